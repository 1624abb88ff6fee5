package api

import (
	"time"

	"github.com/cingweng66/Rmah-Live/web"
)

// PingHandler ping 检查
func PingHandler(c *web.Context) error {
	c.Success(map[string]interface{}{
		"message":   "pong",
		"timestamp": time.Now().Unix(),
		"service":   "rmah-live",
	})
	return nil
}

// HealthHandler 健康检查
func HealthHandler(c *web.Context) error {
	c.Success(map[string]interface{}{
		"healthy":   true,
		"timestamp": time.Now().Unix(),
	})
	return nil
}
