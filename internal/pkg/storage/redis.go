package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"search-server/pkg/config"
)

var Redis *redis.Client

func initRedis(conf config.Redis) error {
	if Redis != nil || !conf.Enabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect redis %s: %w", conf.Addr, err)
	}
	Redis = client
	log.Info("redis connection success")
	return nil
}
