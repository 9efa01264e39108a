package config

import "time"

var metasoConf Metaso

type Metaso struct {
	UID            string        `mapstructure:"uid"`
	SID            string        `mapstructure:"sid"`
	BrowserDataDir string        `mapstructure:"browserDataDir"`
	Headless       bool          `mapstructure:"headless"`
	WaitTimeout    time.Duration `mapstructure:"waitTimeout"`
	PollInterval   time.Duration `mapstructure:"pollInterval"`
	ReadSize       int           `mapstructure:"readSize"`
}

func GetMetasoConf() Metaso {
	return metasoConf
}
