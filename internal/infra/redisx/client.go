package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// New はredisクライアントを作って疎通確認する。
func New(addr string) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return r, nil
}
