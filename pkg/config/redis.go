package config

var redisConf Redis

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled 未配置地址时限流退化为进程内计数, 会话锁退化为本地锁
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

func GetRedisConf() Redis {
	return redisConf
}
