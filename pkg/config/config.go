package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DefaultPath = "conf/config.yaml"
	EnvPrefix   = "SEARCH"
)

// Config 全部配置
type Config struct {
	Server    Server    `mapstructure:"server"`
	Log       Log       `mapstructure:"log"`
	Provider  string    `mapstructure:"provider"`
	Metaso    Metaso    `mapstructure:"metaso"`
	Bocha     Bocha     `mapstructure:"bocha"`
	Brave     Brave     `mapstructure:"brave"`
	RateLimit RateLimit `mapstructure:"rateLimit"`
	Redis     Redis     `mapstructure:"redis"`
	Mysql     Mysql     `mapstructure:"mysql"`
}

type Server struct {
	Port    int    `mapstructure:"port"`
	RunMode string `mapstructure:"runMode"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	serverConf   Server
	logConf      Log
	providerName string
)

// Init 读取配置文件和 SEARCH_ 前缀的环境变量, 文件不存在时只用默认值和环境变量
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	apply(cfg)
	setupLog(cfg.Log)
	return nil
}

// Load 解析配置但不修改全局状态
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		log.Warnf("config file %s not found, using defaults", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.runMode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("provider", ProviderMetaso)

	v.SetDefault("metaso.uid", "")
	v.SetDefault("metaso.sid", "")
	v.SetDefault("metaso.browserDataDir", "tmp/browser")
	v.SetDefault("metaso.headless", true)
	v.SetDefault("metaso.waitTimeout", 30*time.Second)
	v.SetDefault("metaso.pollInterval", time.Second)
	v.SetDefault("metaso.readSize", 256)

	v.SetDefault("bocha.apiKey", "")
	v.SetDefault("bocha.endpoint", "https://api.bochaai.com/v1/web-search?utm_source=search-mcp-server")
	v.SetDefault("brave.apiKey", "")
	v.SetDefault("brave.endpoint", "https://api.search.brave.com/res/v1")

	v.SetDefault("rateLimit.metaso.perSecond", 1)
	v.SetDefault("rateLimit.metaso.perMinute", 60)
	v.SetDefault("rateLimit.bocha.perSecond", 2)
	v.SetDefault("rateLimit.bocha.perMinute", 60)
	v.SetDefault("rateLimit.brave.perSecond", 1)
	v.SetDefault("rateLimit.brave.perMonth", 15000)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("mysql.host", "")
	v.SetDefault("mysql.username", "")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.dbName", "")
}

func apply(cfg *Config) {
	serverConf = cfg.Server
	logConf = cfg.Log
	providerName = cfg.Provider
	metasoConf = cfg.Metaso
	bochaConf = cfg.Bocha
	braveConf = cfg.Brave
	rateLimitConf = cfg.RateLimit
	redisConf = cfg.Redis
	mysqlConf = cfg.Mysql
}

func setupLog(l Log) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		log.Warnf("invalid log level %q, fallback to info", l.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(l.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func GetServerConf() Server {
	return serverConf
}

func GetLogConf() Log {
	return logConf
}

// GetRunMode 运行模式, dev 模式下数据库打印 SQL
func GetRunMode() string {
	return serverConf.RunMode
}

// GetProvider 当前启用的搜索服务
func GetProvider() string {
	return providerName
}
