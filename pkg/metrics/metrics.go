// Package metrics 提供 Prometheus helper，包含 HTTP 与礼品卡业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DominikK03/GiftCardSystem-sub001/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数（method/path/status）
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 发卡计数
	CardsIssuedTotal prometheus.Counter
	// 兑换计数
	RedemptionsTotal prometheus.Counter
	// 乐观锁冲突计数
	ConcurrencyConflictsTotal prometheus.Counter
	// 租户隔离违规计数
	TenantViolationsTotal prometheus.Counter
	// Webhook 投递计数（result: ok/failed）
	WebhookDeliveriesTotal *prometheus.CounterVec
	// Outbox 中继发布计数
	OutboxPublishedTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CardsIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "cards_issued_total",
			Help:      "Total gift cards issued",
		}),
		RedemptionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "redemptions_total",
			Help:      "Total successful redemptions",
		}),
		ConcurrencyConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "concurrency_conflicts_total",
			Help:      "Total optimistic concurrency conflicts on append",
		}),
		TenantViolationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "tenant_violations_total",
			Help:      "Total tenant isolation violations detected",
		}),
		WebhookDeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "webhook_deliveries_total",
			Help:      "Total webhook delivery attempts",
		}, []string{"result"}),
		OutboxPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "giftcard",
			Subsystem: serviceName,
			Name:      "outbox_published_total",
			Help:      "Total outbox messages relayed to the broker",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CardsIssuedTotal,
		m.RedemptionsTotal,
		m.ConcurrencyConflictsTotal,
		m.TenantViolationsTotal,
		m.WebhookDeliveriesTotal,
		m.OutboxPublishedTotal,
	)

	return m
}

// ExposeHTTP 在独立端口上暴露 /metrics
func (m *Metrics) ExposeHTTP(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "metrics server starting", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error(context.Background(), "metrics server exited", "error", err)
	}
}
