package web

import (
	"time"

	"github.com/cingweng66/Rmah-Live/log"
)

// CORS 跨域中间件
// 叠加层通常跑在 OBS 的浏览器源里，域名不可预期，放开所有来源
func CorsMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		method := c.Method()
		origin := c.GetHeader("Origin")

		if origin != "" {
			c.SetHeader("Access-Control-Allow-Origin", "*")
			c.SetHeader("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			c.SetHeader("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, Token")
			c.SetHeader("Access-Control-Allow-Credentials", "true")
		}

		// 处理预检请求
		if method == "OPTIONS" {
			c.AbortWithStatus(204)
			return nil
		}

		return nil
	}
}

// Logger 日志中间件
func LoggerMiddleware() MiddlewareFunc {
	return func(c *Context) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		defer func() {
			latency := time.Since(start)
			log.Debug("HTTP %s %s from %s completed in %v", method, path, c.ClientIP(), latency)
		}()

		return nil
	}
}
