package config

const (
	ProviderMetaso = "metaso"
	ProviderBocha  = "bocha"
	ProviderBrave  = "brave"
)

var (
	bochaConf     Bocha
	braveConf     Brave
	rateLimitConf RateLimit
)

type Bocha struct {
	ApiKey   string `mapstructure:"apiKey"`
	Endpoint string `mapstructure:"endpoint"`
}

type Brave struct {
	ApiKey   string `mapstructure:"apiKey"`
	Endpoint string `mapstructure:"endpoint"`
}

// Limit 固定窗口限额, 0 表示该窗口不限
type Limit struct {
	PerSecond int `mapstructure:"perSecond"`
	PerMinute int `mapstructure:"perMinute"`
	PerMonth  int `mapstructure:"perMonth"`
}

type RateLimit struct {
	Metaso Limit `mapstructure:"metaso"`
	Bocha  Limit `mapstructure:"bocha"`
	Brave  Limit `mapstructure:"brave"`
}

// For 按服务名取限额
func (r RateLimit) For(provider string) Limit {
	switch provider {
	case ProviderMetaso:
		return r.Metaso
	case ProviderBocha:
		return r.Bocha
	case ProviderBrave:
		return r.Brave
	default:
		return Limit{}
	}
}

func GetBochaConf() Bocha {
	return bochaConf
}

func GetBraveConf() Brave {
	return braveConf
}

func GetRateLimitConf() RateLimit {
	return rateLimitConf
}
