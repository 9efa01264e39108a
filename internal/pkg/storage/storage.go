package storage

import (
	log "github.com/sirupsen/logrus"

	"search-server/pkg/config"
)

// Init 按配置连接 MySQL 和 Redis, 未配置的跳过
func Init() error {
	if err := initMysql(config.GetMysqlConf()); err != nil {
		return err
	}
	if err := initRedis(config.GetRedisConf()); err != nil {
		return err
	}
	return nil
}

// Close 释放连接
func Close() {
	if Redis != nil {
		if err := Redis.Close(); err != nil {
			log.Warnf("close redis: %v", err)
		}
		Redis = nil
	}
	if DB != nil {
		if sqlDb, err := DB.DB(); err == nil {
			_ = sqlDb.Close()
		}
		DB = nil
	}
}
