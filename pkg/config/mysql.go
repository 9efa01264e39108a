package config

import "fmt"

var mysqlConf Mysql

type Mysql struct {
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
}

// Enabled 未配置地址时不记录搜索历史
func (m Mysql) Enabled() bool {
	return m.Host != "" && m.DBName != ""
}

func (m Mysql) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		m.Username, m.Password, m.Host, m.DBName)
}

func GetMysqlConf() Mysql {
	return mysqlConf
}
