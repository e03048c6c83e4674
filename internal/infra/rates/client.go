package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheTTL = 10 * time.Minute

// 為替レートproxyのレスポンス
type Rates struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client は外部の為替レートAPIを叩く。redisがあれば10分キャッシュする。
type Client struct {
	baseURL string
	http    *http.Client
	rdb     *redis.Client // nilなら毎回直接取得
	logger  *zap.Logger
}

func NewClient(baseURL string, rdb *redis.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		rdb:     rdb,
		logger:  logger,
	}
}

// Latest はbase通貨のレート一覧を返す。
func (c *Client) Latest(ctx context.Context, base string) (Rates, error) {
	if base == "" {
		base = "EUR"
	}

	key := "rates:" + base

	//キャッシュヒットならそれを返す
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var out Rates
			if json.Unmarshal(raw, &out) == nil {
				return out, nil
			}
		}
	}

	u := fmt.Sprintf("%s/latest?base=%s", c.baseURL, url.QueryEscape(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Rates{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Rates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rates{}, fmt.Errorf("rates upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Rates{}, err
	}

	var out Rates
	if err := json.Unmarshal(body, &out); err != nil {
		return Rates{}, err
	}

	//キャッシュ更新。失敗してもレスポンスは返す。
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, body, cacheTTL).Err(); err != nil {
			c.logger.Warn("rates cache set failed", zap.Error(err))
		}
	}

	return out, nil
}
