// Package dlmhttp: Optional observability surface for a running Session
// Exposes a liveness endpoint, a Prometheus held-lock gauge, and acquire/release/steal counters;
// neither is part of the core lock protocol itself
//
// dlmhttp: 运行中 Session 的可选可观测性接口
// 暴露存活性端点、已持有锁数量的 Prometheus 仪表，以及获取/释放/窃取计数器
// 两者都不属于核心锁协议本身
package dlmhttp

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks held-lock and steal counters a running Session reports through.
// Safe for concurrent use; every method is a no-op on a nil receiver so callers can pass a
// nil *Metrics when metrics are disabled, the same defensive pattern the pack's own metrics types use.
//
// Metrics 跟踪运行中 Session 上报的已持有锁与窃取计数器
// 支持并发安全调用；在接收者为 nil 时每个方法都是无操作
// 与代码库中其它指标类型相同的防御性写法，使禁用指标时可以传入 nil *Metrics
type Metrics struct {
	heldGauge    *prometheus.GaugeVec
	acquireTotal *prometheus.CounterVec
	stealTotal   *prometheus.CounterVec
	releaseTotal *prometheus.CounterVec
}

// NewMetrics creates lock-manager metrics. If registry is nil the metrics are created but not
// registered, useful for tests that want the type without a global registry side effect.
//
// NewMetrics 创建锁管理器指标；若 registry 为 nil 则创建指标但不注册
// 适用于希望使用该类型却不产生全局注册表副作用的测试
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		heldGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "dlm",
				Name:      "held_locks",
				Help:      "Number of locks this session currently believes it holds",
			},
			[]string{"table"},
		),
		acquireTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dlm",
				Name:      "acquire_total",
				Help:      "Total number of successful acquires, including steals",
			},
			[]string{"table"},
		),
		stealTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dlm",
				Name:      "steal_total",
				Help:      "Total number of times this session observed its own lock being stolen",
			},
			[]string{"table"},
		),
		releaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dlm",
				Name:      "release_total",
				Help:      "Total number of release calls, including no-ops",
			},
			[]string{"table"},
		),
	}
	if registry != nil {
		registry.MustRegister(m.heldGauge, m.acquireTotal, m.stealTotal, m.releaseTotal)
	}
	return m
}

// ObserveAcquire records a successful acquire (including a steal-win) for table.
// ObserveAcquire 记录一次成功的获取（包括窃取获胜）
func (m *Metrics) ObserveAcquire(table string) {
	if m == nil {
		return
	}
	m.acquireTotal.WithLabelValues(table).Inc()
	m.heldGauge.WithLabelValues(table).Inc()
}

// ObserveRelease records a release call for table. wasHeld must be true only when this call
// is a genuine Held-to-Free transition, so the held-lock gauge isn't decremented twice when a
// release follows a steal that already decremented it via ObserveStolen.
//
// ObserveRelease 记录一次释放调用；wasHeld 仅在这是一次真正的 Held 到 Free 转换时才应为 true
// 从而避免在一次窃取之后（该窃取已通过 ObserveStolen 递减过一次）的释放重复递减持有锁数量
func (m *Metrics) ObserveRelease(table string, wasHeld bool) {
	if m == nil {
		return
	}
	m.releaseTotal.WithLabelValues(table).Inc()
	if wasHeld {
		m.heldGauge.WithLabelValues(table).Dec()
	}
}

// ObserveStolen records this session's lock being stolen out from under it for table.
// ObserveStolen 记录本会话的锁被外部窃取
func (m *Metrics) ObserveStolen(table string) {
	if m == nil {
		return
	}
	m.stealTotal.WithLabelValues(table).Inc()
	m.heldGauge.WithLabelValues(table).Dec()
}

// AcquireTotalForTest exposes the acquire counter for table, for assertions with
// prometheus/client_golang/prometheus/testutil. Not meant for production call sites.
func (m *Metrics) AcquireTotalForTest(table string) prometheus.Collector {
	return m.acquireTotal.WithLabelValues(table)
}

// ReleaseTotalForTest exposes the release counter for table, for the same testing purpose.
func (m *Metrics) ReleaseTotalForTest(table string) prometheus.Collector {
	return m.releaseTotal.WithLabelValues(table)
}

// HeldGaugeForTest exposes the held-lock gauge for table, for the same testing purpose.
func (m *Metrics) HeldGaugeForTest(table string) prometheus.Collector {
	return m.heldGauge.WithLabelValues(table)
}
