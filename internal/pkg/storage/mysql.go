package storage

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"search-server/pkg/config"
)

var DB *gorm.DB

func initMysql(conf config.Mysql) error {
	if DB != nil || !conf.Enabled() {
		return nil
	}
	db, err := gorm.Open(mysql.Open(conf.DSN()), &gorm.Config{})
	if err != nil {
		log.Errorf("db connect fail:%s", err.Error())
		return fmt.Errorf("connect mysql %s: %w", conf.Host, err)
	}
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}
	sqlDb.SetConnMaxLifetime(time.Hour * 6)
	sqlDb.SetMaxIdleConns(5)
	sqlDb.SetMaxOpenConns(20)
	if strings.Contains(config.GetRunMode(), "dev") {
		db = db.Debug()
	}
	DB = db
	log.Info("mysql connection success")
	return nil
}
