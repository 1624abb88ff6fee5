package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cingweng66/Rmah-Live/api"
	"github.com/cingweng66/Rmah-Live/cache"
	"github.com/cingweng66/Rmah-Live/config"
	"github.com/cingweng66/Rmah-Live/database"
	"github.com/cingweng66/Rmah-Live/hub"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/repo"
	"github.com/cingweng66/Rmah-Live/web"
)

// Run 组装依赖并启动两个监听端口：HTTP 读接口和 websocket 网关
// 阻塞到收到中断信号或 ctx 结束
func Run(ctx context.Context) error {
	conf := config.Conf

	rdb := database.NewRedis(conf.DatabaseConf.RedisConf)
	if rdb == nil {
		log.Fatal("redis 初始化失败")
		return nil
	}
	defer rdb.Close()

	var mongoMgr *database.MongoManager
	var sink hub.HistorySink
	var history *repo.MongoHistoryStore
	if conf.DatabaseConf.MongoConf.Url != "" {
		mongoMgr = database.NewMongo()
		if mongoMgr == nil {
			log.Fatal("mongodb 初始化失败")
			return nil
		}
		defer mongoMgr.Close()
		history = repo.NewMongoHistoryStore(mongoMgr)
		sink = history
	} else {
		log.Warn("未配置 mongodb，变更记录不落盘")
	}

	snapshotTTL := time.Duration(conf.HubConf.SnapshotTTLs) * time.Second
	local, err := cache.NewGeneralCache(64<<20, snapshotTTL)
	if err != nil {
		return err
	}
	defer local.Close()

	store := repo.NewCachedSnapshotStore(repo.NewRedisSnapshotStore(rdb), local)

	syncHub := hub.NewSyncHub(conf.HubConf, store, sink)
	gateway := hub.NewGateway(syncHub, conf.JwtConf, conf.HubConf.SendBuf)
	monitor := hub.NewMonitor(syncHub, gateway, 30*time.Second)

	httpServer := web.NewHttpServer(web.WithPort(conf.HttpPort), web.WithMode("release"))
	api.RegisterRoutes(httpServer, &api.Deps{
		Hub:     syncHub,
		Store:   store,
		History: history,
		JwtConf: conf.JwtConf,
	})

	go func() {
		if err := gateway.Run(fmt.Sprintf(":%d", conf.WsPort)); err != nil {
			log.Fatal("websocket gateway 启动失败: %v", err)
		}
	}()
	go func() {
		log.Info("HTTP 服务监听 :%d", conf.HttpPort)
		if err := httpServer.Start(); err != nil {
			log.Error("HTTP 服务退出: %v", err)
		}
	}()
	go monitor.Start(ctx)

	stop := func() {
		log.Info("正在关闭服务...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan struct{})
		go func() {
			monitor.Stop()
			if err := gateway.Shutdown(shutdownCtx); err != nil {
				log.Warn("关闭 gateway 失败: %v", err)
			}
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Warn("关闭 HTTP 服务失败: %v", err)
			}
			close(done)
		}()

		select {
		case <-done:
			log.Info("服务已关闭")
		case <-shutdownCtx.Done():
			log.Warn("关闭服务超时（5秒），defer 会确保资源最终被释放")
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case s := <-c:
			switch s {
			case syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT:
				stop()
				log.Info("中断信号，服务停止")
				return nil
			case syscall.SIGHUP:
				stop()
				log.Info("挂起信号，服务停止")
				return nil
			default:
				return nil
			}
		}
	}
}
