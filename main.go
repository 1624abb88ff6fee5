package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cingweng66/Rmah-Live/app"
	"github.com/cingweng66/Rmah-Live/config"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/metrics"
)

// 加载配置 -> 启动监控 -> 启动计分与广播服务

var (
	configFile string
	logLevel   string
	identifier string
)

var rootCmd = &cobra.Command{
	Use:   "rmah-live",
	Short: "rmah-live 麻将直播计分服务",
	Long:  `rmah-live 麻将直播计分服务`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configFile); err != nil {
			fmt.Printf("加载配置失败: %v\n", err)
			os.Exit(-1)
		}
		if identifier != "" {
			config.Conf.ID = identifier
		}
		log.InitLog(config.Conf.ID, logLevel)
		log.Info("配置文件: %+v", config.Conf)

		if config.Conf.MetricPort > 0 {
			go func() {
				log.Info("启动监控..., URL: http://localhost:%d/debug/statsviz/", config.Conf.MetricPort)
				err := metrics.Serve(fmt.Sprintf("0.0.0.0:%d", config.Conf.MetricPort))
				if err != nil {
					panic(err)
				}
			}()
		}

		err := app.Run(context.Background())
		if err != nil {
			log.Error("发生异常: %v", err)
			os.Exit(-1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "resource/application.yml", "resource file")
	rootCmd.Flags().StringVar(&logLevel, "logLevel", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&identifier, "identifier", "", "identifier of server, overrides config id")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("error happen: %#v", err)
		os.Exit(1)
	}
}
