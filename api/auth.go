package api

import (
	"github.com/cingweng66/Rmah-Live/jwts"
	"github.com/cingweng66/Rmah-Live/log"
	"github.com/cingweng66/Rmah-Live/web"
)

type tokenRequest struct {
	UserID string `json:"userId" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

// TokenHandler 给控制端签发令牌
// 简单的共享密钥换 JWT：拿得到服务端密钥的运维才有资格当控制端
func TokenHandler(deps *Deps) web.HandlerFunc {
	return func(c *web.Context) error {
		var req tokenRequest
		if err := c.BindJSON(&req); err != nil {
			c.BadRequest("参数不合法")
			return nil
		}
		if req.Secret != deps.JwtConf.Secret {
			c.Unauthorized("密钥不正确")
			return nil
		}

		token, err := jwts.NewControlToken(req.UserID, deps.JwtConf.Secret, deps.JwtConf.Expire)
		if err != nil {
			log.Error("签发令牌失败: %v", err)
			c.InternalServerError("")
			return nil
		}
		c.Success(map[string]string{
			"token": token,
		})
		return nil
	}
}
