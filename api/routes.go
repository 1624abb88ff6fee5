package api

import (
	"github.com/cingweng66/Rmah-Live/config"
	"github.com/cingweng66/Rmah-Live/hub"
	"github.com/cingweng66/Rmah-Live/repo"
	"github.com/cingweng66/Rmah-Live/web"
)

// Deps 读接口依赖的协作方
type Deps struct {
	Hub     *hub.SyncHub
	Store   repo.SnapshotStore      // 带本地缓存的读路径
	History *repo.MongoHistoryStore // 可以为 nil
	JwtConf config.JwtConf
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(server *web.HttpServer, deps *Deps) {
	server.Use(web.CorsMiddleware(), web.LoggerMiddleware())
	server.GET("/ping", PingHandler)
	server.GET("/health", HealthHandler)

	v1 := server.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/token", TokenHandler(deps))
		}

		game := v1.Group("/game")
		{
			game.GET("/:gameId/snapshot", SnapshotHandler(deps))
			game.GET("/:gameId/history", HistoryHandler(deps))
			game.POST("/create", CreateRoomHandler(deps))
			game.GET("/list", ListRoomsHandler(deps))
		}
	}
}
