package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RemoteGame 是外部目录返回的一条游戏记录
type RemoteGame struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Year         int      `json:"year"`
	Summary      string   `json:"summary"`
	Genres       []string `json:"genres"`
	Gameplay     []string `json:"gameplay"`
	Perspectives []string `json:"perspectives"`
	Settings     []string `json:"settings"`
	Topics       []string `json:"topics"`
	Platforms    []string `json:"platforms"`
	// CoverPage 是图片站上该游戏的页面，封面地址需要从页面中解析
	CoverPage   string   `json:"coverPage"`
	Screenshots []string `json:"screenshots"`
}

// Client 是外部目录API的客户端，所有请求经过 Gate
type Client struct {
	http     *http.Client
	baseURL  string
	clientID string
	token    string
	gate     *Gate
}

func NewClient(httpClient *http.Client, baseURL, clientID, token string, gate *Gate) *Client {
	return &Client{
		http:     httpClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		token:    token,
		gate:     gate,
	}
}

// FetchPage 读取从 offset 开始的最多 limit 条记录
func (c *Client) FetchPage(ctx context.Context, offset, limit int) ([]RemoteGame, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/games?" + q.Encode()

	var games []RemoteGame
	err := c.gate.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.clientID != "" {
			req.Header.Set("Client-ID", c.clientID)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("目录API返回 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return json.NewDecoder(resp.Body).Decode(&games)
	})
	if err != nil {
		return nil, fmt.Errorf("读取目录 offset=%d: %w", offset, err)
	}
	return games, nil
}
