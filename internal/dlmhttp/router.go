// router.go wires the optional liveness + metrics HTTP surface for a running Session.
// Grounded on marmos91-dittofs's pkg/api/router.go chi middleware stack and Route blocks,
// narrowed to the two endpoints this module needs.
//
// router.go 为运行中的 Session 接入可选的存活性与指标 HTTP 接口
// 参照 marmos91-dittofs 的 pkg/api/router.go 中间件栈与 Route 写法，裁剪为本模块所需的两个端点
package dlmhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the dlmctl-adjacent observability surface:
//
//   - GET /healthz - liveness probe, always 200 while the process is up
//   - GET /metrics - Prometheus exposition format
//
// The handler served at /metrics is promhttp.Handler, which gathers from
// Prometheus's default registry only: a *Metrics shows up there when NewMetrics
// was given prometheus.DefaultRegisterer, and not when it was given another
// registry or nil. NewRouter does not need the *Metrics value itself.
//
// NewRouter 构建与 dlmctl 相邻的可观测性接口：
// GET /healthz 存活性探针，进程运行期间恒为 200
// GET /metrics Prometheus 暴露格式
// /metrics 处为 promhttp.Handler，仅收集 Prometheus 默认注册表：
// 只有 NewMetrics 传入 prometheus.DefaultRegisterer 时 *Metrics 才会出现在其中，传入其它注册表或 nil 时不会；
// NewRouter 本身不需要 *Metrics 值
func NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/", liveness)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
