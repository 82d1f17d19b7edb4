package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标定义
var (
	// TranscriptRequests 转录处理请求计数，按最终HTTP状态分类
	TranscriptRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_transcript_requests_total",
		Help: "Total transcript processing requests by status.",
	}, []string{"status"})

	// PolicySearchDuration 策略向量检索耗时（嵌入+近邻查询+去重）
	PolicySearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "incident_policy_search_duration_seconds",
		Help:    "Duration of embed + kNN + dedupe for one policy search.",
		Buckets: prometheus.DefBuckets,
	})

	// PoliciesIngested 已入库的策略文档计数
	PoliciesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "incident_policies_ingested_total",
		Help: "Total policy documents committed to the store.",
	})
)

// Handler 返回Prometheus指标的HTTP处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
