package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue("user-1", time.Now())
	require.NoError(t, err)

	uid, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Minute)
	require.NoError(t, err)

	expired, err := issuer.Issue("user-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalid)

	other, err := NewIssuer("", time.Minute)
	require.NoError(t, err)
	foreign, err := other.Issue("user-1", time.Now())
	require.NoError(t, err)
	_, err = issuer.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalid)
}
