// Command search-server 秘塔、博查、Brave 搜索服务
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"search-server/internal/app/services"
	"search-server/internal/pkg/storage"
	"search-server/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "search-server",
	Short: "Search tools backed by Metaso, Bocha and Brave",
	Long: `search-server exposes web search tools over HTTP. The Metaso provider
drives a logged-in browser session and decodes the answer stream while it
arrives; Bocha and Brave are called through their HTTP APIs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap 读取配置, 连接存储, 组装服务
func bootstrap() error {
	if err := config.Init(configPath); err != nil {
		return err
	}
	if err := storage.Init(); err != nil {
		return err
	}
	if err := services.Init(); err != nil {
		storage.Close()
		return err
	}
	log.Infof("search-server bootstrapped, provider=%s", config.GetProvider())
	return nil
}

func teardown() {
	services.Shutdown()
	storage.Close()
}
