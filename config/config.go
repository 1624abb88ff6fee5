package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Conf 全局配置，Load 成功后可用
var Conf ServerConfiguration

// ServerConfiguration 直播计分服务的整体配置
type ServerConfiguration struct {
	ID           string       `mapstructure:"id"`
	HttpPort     int          `mapstructure:"httpPort"`   // 快照读取/房间管理 API
	WsPort       int          `mapstructure:"wsPort"`     // 控制端与显示端的长连接
	MetricPort   int          `mapstructure:"metricPort"` // statsviz
	LogConf      LogConf      `mapstructure:"log"`
	JwtConf      JwtConf      `mapstructure:"jwt"`
	DatabaseConf DatabaseConf `mapstructure:"database"`
	HubConf      HubConf      `mapstructure:"hub"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type JwtConf struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // 单位秒
}

type DatabaseConf struct {
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
}

// HubConf 同步中心配置
type HubConf struct {
	DebounceMs   int `mapstructure:"debounceMs"`   // 广播防抖窗口，默认 100ms
	HistoryCap   int `mapstructure:"historyCap"`   // 操作历史（undo）容量，默认 50
	SendBuf      int `mapstructure:"sendBuf"`      // 单连接发送队列长度，默认 64
	SnapshotTTLs int `mapstructure:"snapshotTTLs"` // 读路径本地缓存 TTL（秒），默认 3
}

// Load 读取配置文件并监听变更
// 支持环境变量覆盖，如 DATABASE_REDIS_ADDR
func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	var cfg ServerConfiguration
	if err := v.Unmarshal(&cfg); err != nil {
		return err
	}
	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		cfg.ID = nodeID
	}
	if cfg.ID == "" {
		return fmt.Errorf("配置缺少 id（或设置 NODE_ID 环境变量）")
	}
	applyDefaults(&cfg)
	Conf = cfg

	v.WatchConfig()
	v.OnConfigChange(func(in fsnotify.Event) {
		var next ServerConfiguration
		if err := v.Unmarshal(&next); err != nil {
			return
		}
		// 仅热更新无需重启即可生效的部分
		applyDefaults(&next)
		Conf.HubConf = next.HubConf
		Conf.LogConf = next.LogConf
	})

	return nil
}

func applyDefaults(cfg *ServerConfiguration) {
	if cfg.HttpPort == 0 {
		cfg.HttpPort = 8080
	}
	if cfg.WsPort == 0 {
		cfg.WsPort = 8081
	}
	if cfg.HubConf.DebounceMs <= 0 {
		cfg.HubConf.DebounceMs = 100
	}
	if cfg.HubConf.HistoryCap <= 0 {
		cfg.HubConf.HistoryCap = 50
	}
	if cfg.HubConf.SendBuf <= 0 {
		cfg.HubConf.SendBuf = 64
	}
	if cfg.HubConf.SnapshotTTLs <= 0 {
		cfg.HubConf.SnapshotTTLs = 3
	}
}
