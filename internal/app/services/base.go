package services

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"search-server/internal/app/models"
	"search-server/internal/pkg/code"
	"search-server/internal/pkg/storage"
	"search-server/pkg/config"
)

var initOnce sync.Once

var (
	Metaso        *MetasoClient
	Tools         *Toolbox
	SearchRecord  ISearchRecord
	RateLimiter   Limiter
	SessionLocker Locker
)

// Init 按配置组装服务, 需在 storage.Init 之后调用
func Init() error {
	var err error
	initOnce.Do(func() {
		err = setup()
	})
	return err
}

func setup() error {
	if storage.Redis != nil {
		RateLimiter = NewRedisLimiter(storage.Redis, config.GetRateLimitConf())
		SessionLocker = NewRedisLocker(storage.Redis, 2*config.GetMetasoConf().WaitTimeout)
	} else {
		RateLimiter = NewMemoryLimiter(config.GetRateLimitConf())
		SessionLocker = NewLocalLocker()
	}

	if storage.DB != nil {
		history, err := NewSearchRecordService()
		if err != nil {
			return fmt.Errorf("init search record: %w", err)
		}
		SearchRecord = history
	} else {
		log.Info("mysql not configured, search history disabled")
	}

	Metaso = NewMetasoClient(config.GetMetasoConf(), SessionLocker, SearchRecord)
	provider, err := NewToolProvider(config.GetProvider(), Metaso)
	if err != nil {
		return err
	}
	Tools = NewToolbox(provider, RateLimiter)
	log.Infof("search provider: %s", provider.Name())
	return nil
}

// Shutdown 关闭浏览器
func Shutdown() {
	if Metaso != nil {
		if err := Metaso.Close(); err != nil {
			log.Warnf("close metaso browser: %v", err)
		}
	}
}

var successInfo = models.RespInfo{
	Code: code.Success,
	Msg:  code.MsgSuccess,
}

// RespInfoOf 错误对应的返回码和提示
func RespInfoOf(err error) models.RespInfo {
	if err == nil {
		return successInfo
	}
	c := CodeOf(err)
	return models.RespInfo{Code: c, Msg: code.Message(c)}
}
