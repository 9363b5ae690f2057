package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid 表示令牌无法解析、签名不符或已过期
var ErrInvalid = errors.New("invalid session token")

// Claims 是会话令牌中携带的数据
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Issuer 负责签发和校验会话令牌
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer 创建签发器。secret 为空时生成一个32字节的随机密钥。
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("无法生成会话密钥: %w", err)
		}
	}
	return &Issuer{secret: key, ttl: ttl}, nil
}

// TTL 返回令牌的有效期
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue 为用户签发一个令牌
func (i *Issuer) Issue(userID string, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse 校验令牌并返回其中的用户ID
func (i *Issuer) Parse(raw string) (string, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid || claims.UserID == "" {
		return "", ErrInvalid
	}
	return claims.UserID, nil
}
