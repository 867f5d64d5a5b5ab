// Package locksession: Session factory bound to one table
// Owns a Store Adapter, a Clock/HostIdentity pair, and a Refresher; creates free Handles,
// deserializes foreign Handles, and stops its Refresher on Close
//
// locksession: 绑定到一张表的会话工厂
// 拥有一个存储适配器、一对 Clock/HostIdentity，以及一个 Refresher
// 负责创建空闲句柄、反序列化外来句柄，并在 Close 时停止其 Refresher
package locksession

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/yyle88/erero"
	"github.com/yyle88/must"

	"github.com/go-xlan/dlm-go-suo/clockid"
	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/internal/dlmhttp"
	"github.com/go-xlan/dlm-go-suo/internal/logging"
	"github.com/go-xlan/dlm-go-suo/lockhandle"
	"github.com/go-xlan/dlm-go-suo/locktech"
	"github.com/go-xlan/dlm-go-suo/refresher"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
)

var validate = validator.New()

// sessionSpec is validated once at construction time, the same way the other example repos in
// this lineage validate their config structs with struct tags instead of hand-rolled checks.
//
// sessionSpec 在构造时验证一次
// 与该谱系中其它示例仓库使用结构体标签而非手写检查来验证配置结构体的方式相同
type sessionSpec struct {
	TableName string `validate:"required"`
}

// Session is bound to one table for its entire lifetime; callers may freely construct many
// coexisting Sessions, with no implicit sharing between them.
//
// Session 在其整个生命周期内绑定到一张表；调用方可以自由构造多个共存的 Session
// 它们之间没有隐式共享
type Session struct {
	store     storeadapter.Store
	clock     clockid.Clock
	hostID    clockid.HostIdentity
	logger    logging.Logger
	refresher *refresher.Refresher
	metrics   *dlmhttp.Metrics

	tableName string
}

// Option configures a Session at construction time.
// Option 在构造时配置 Session
type Option func(*Session)

// WithClock overrides the default system clock, for deterministic tests.
// WithClock 覆盖默认的系统时钟，用于确定性测试
func WithClock(clock clockid.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithHostIdentity overrides the default process host identity.
// WithHostIdentity 覆盖默认的进程主机身份
func WithHostIdentity(hostID clockid.HostIdentity) Option {
	return func(s *Session) { s.hostID = hostID }
}

// WithLogger overrides the default no-op logger.
// WithLogger 覆盖默认的空操作日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithMetrics attaches a Prometheus observability surface; every Handle this Session creates or
// deserializes reports its acquire/release/steal events through it. Nil is the default: no-op.
//
// WithMetrics 接入一个 Prometheus 可观测性接口
// 本 Session 创建或反序列化的每个 Handle 都会通过它上报获取/释放/窃取事件；默认值为 nil，即无操作
func WithMetrics(metrics *dlmhttp.Metrics) Option {
	return func(s *Session) { s.metrics = metrics }
}

// New binds a Session to tableName over store. The lease/clock-skew caveat: callers must not
// set a lock's lease below the expected cross-host clock skew plus worst-case one-way network
// latency. This package does not and cannot mitigate clock drift on its own.
//
// New 将 Session 绑定到 store 上的 tableName
// 租约/时钟漂移注意事项：调用方不得将锁的租约设置得低于预期的跨主机时钟偏差加最坏情况单程网络延迟
// 本包自身不会也无法缓解时钟漂移
func New(store storeadapter.Store, tableName string, opts ...Option) *Session {
	must.Done(validate.Struct(sessionSpec{TableName: tableName}))

	s := &Session{
		store:     must.Nice(store),
		clock:     clockid.NewSystemClock(),
		hostID:    clockid.NewProcessHostIdentity(),
		logger:    logging.NewNopLogger(),
		tableName: tableName,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.refresher = refresher.New(s.logger)
	return s
}

// GetSession is convenience sugar over New; it deliberately does not cache sessions, since each
// Session owns a background worker whose lifetime must stay controllable by the caller.
//
// GetSession 是 New 之上的便捷糖；它刻意不缓存会话
// 因为每个 Session 都拥有一个生命周期必须由调用方可控的后台工作协程
func GetSession(store storeadapter.Store, tableName string, opts ...Option) *Session {
	return New(store, tableName, opts...)
}

// LockOption configures the lease policy of one CreateLock call.
// LockOption 配置一次 CreateLock 调用的租约策略
type LockOption func(*locktech.Params)

// WithLeaseDuration overrides the default 20s lease window.
// WithLeaseDuration 覆盖默认的 20 秒租约窗口
func WithLeaseDuration(d time.Duration) LockOption {
	return func(p *locktech.Params) { p.Lease = d }
}

// WithRefreshPeriod overrides the default 5s refresh cadence.
// WithRefreshPeriod 覆盖默认的 5 秒刷新节奏
func WithRefreshPeriod(d time.Duration) LockOption {
	return func(p *locktech.Params) { p.RefreshPeriod = d }
}

// WithAcquireTimeout bounds Acquire's retry loop. Zero (the default) means unbounded.
// WithAcquireTimeout 限定 Acquire 的重试循环；零值（默认）表示无限
func WithAcquireTimeout(d time.Duration) LockOption {
	return func(p *locktech.Params) { p.AcquireTimeout = d }
}

// WithRetryInterval overrides the default Lease/2 sleep between conflict observations.
// WithRetryInterval 覆盖默认的 Lease/2 冲突观察间隔休眠
func WithRetryInterval(d time.Duration) LockOption {
	return func(p *locktech.Params) { p.RetryInterval = d }
}

// CreateLock builds a free Handle bound to name within this Session's table.
// CreateLock 构建一个绑定到本 Session 表内 name 的空闲 Handle
func (s *Session) CreateLock(name string, opts ...LockOption) *lockhandle.Handle {
	params := locktech.DefaultParams()
	for _, opt := range opts {
		opt(&params)
	}
	return lockhandle.New(s.store, s.clock, s.hostID, s.refresher, s.tableName, name, params, lockhandle.WithMetrics(s.metrics))
}

// DeserializeLock parses blob, proves its embedded version is still current by rotating it via
// a conditional write, and returns a Held Handle registered with this Session's Refresher.
// Fails with WrongTable, MalformedToken, or AlreadyInUse per that algorithm.
//
// DeserializeLock 解析 blob，通过条件写入旋转其内嵌版本以证明其仍然有效
// 并返回一个已注册到本 Session Refresher 的 Held Handle
// 依据该算法失败时返回 WrongTable、MalformedToken 或 AlreadyInUse
func (s *Session) DeserializeLock(ctx context.Context, blob string) (*lockhandle.Handle, error) {
	t, err := lockhandle.ParseToken(blob)
	if err != nil {
		return nil, err
	}
	if t.Table != s.tableName {
		return nil, &dlmerrors.WrongTableError{SessionTable: s.tableName, TokenTable: t.Table}
	}

	params := locktech.Params{
		Lease:         time.Duration(t.Lease) * time.Second,
		RefreshPeriod: time.Duration(t.RefreshPeriod) * time.Second,
	}.Normalize()

	newVersion := clockid.NewVersion()
	record := storeadapter.Record{
		LockKey:        t.Name,
		LeaseDuration:  int64(params.Lease / time.Second),
		VersionNumber:  newVersion,
		HostIdentifier: s.hostID.HostID(),
	}
	if err := s.store.PutIfVersion(ctx, t.Name, record, t.Version); err != nil {
		if errors.Is(err, dlmerrors.ErrConflict) {
			return nil, &dlmerrors.AlreadyInUseError{LockName: t.Name}
		}
		return nil, erero.Wro(err)
	}

	return lockhandle.NewHeld(s.store, s.clock, s.hostID, s.refresher, s.tableName, t.Name, newVersion, params, lockhandle.WithMetrics(s.metrics)), nil
}

// Close stops the Session's Refresher. Outstanding lock records are left for the backing
// store's lease expiry to reclaim; Close never forcibly deletes them.
//
// Close 停止 Session 的 Refresher
// 未完成的锁记录留给后端存储的租约过期机制回收；Close 从不强制删除它们
func (s *Session) Close() {
	s.refresher.Stop()
}
