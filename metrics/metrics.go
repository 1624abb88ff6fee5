package metrics

import (
	"net/http"

	"github.com/arl/statsviz"
)

// Serve 在 addr 上暴露 statsviz 运行时监控页
// 访问 http://<addr>/debug/statsviz/
func Serve(addr string) error {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return err
	}
	return http.ListenAndServe(addr, mux)
}
