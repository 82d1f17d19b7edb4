package middleware

import (
	"net/http"

	"github.com/beego/beego/v2/server/web/context"
)

// 前端开发服务器的源（Vite和CRA的默认端口）
var allowedOrigins = map[string]struct{}{
	"http://localhost:5173": {},
	"http://localhost:3000": {},
	"http://127.0.0.1:5173": {},
	"http://127.0.0.1:3000": {},
}

// CORSMiddleware CORS中间件
func CORSMiddleware(ctx *context.Context) {
	origin := ctx.Input.Header("Origin")
	if origin != "" {
		if _, ok := allowedOrigins[origin]; ok {
			ctx.Output.Header("Access-Control-Allow-Origin", origin)
			ctx.Output.Header("Access-Control-Allow-Credentials", "true")
		}
	}

	ctx.Output.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	ctx.Output.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")
	ctx.Output.Header("Access-Control-Max-Age", "3600")

	// 处理OPTIONS预检请求
	if ctx.Input.Method() == http.MethodOptions {
		ctx.Output.SetStatus(http.StatusNoContent)
		ctx.ResponseWriter.WriteHeader(http.StatusNoContent)
	}
}
