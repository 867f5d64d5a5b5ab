// Package lockhandle: Per-caller Handle bound to a logical lock name
// Wraps locktech's free functions with the in-memory state machine (Free / Held / Stolen) a caller
// actually interacts with, plus the scoped-use and serialize/deserialize surface
//
// lockhandle: 绑定到逻辑锁名的调用方句柄
// 在 locktech 的自由函数之上包装调用方实际交互的内存状态机（Free / Held / Stolen）
// 以及作用域使用与序列化/反序列化接口
package lockhandle

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/yyle88/erero"
	"github.com/yyle88/must"

	"github.com/go-xlan/dlm-go-suo/clockid"
	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/internal/dlmhttp"
	"github.com/go-xlan/dlm-go-suo/locktech"
	"github.com/go-xlan/dlm-go-suo/refresher"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
)

// state is the handle's in-memory state tag: Free to Held(version) to Free, with Stolen terminal.
// state 是句柄的内存状态标记
type state int

const (
	stateFree state = iota
	stateHeld
	stateStolen
)

// Token is the wire format of Serialize/Deserialize. Field names are the blob's
// contract; unknown top-level fields must make deserialization fail with MalformedToken.
//
// Token 是 Serialize/Deserialize 的线格式
// 字段名即该数据块的契约；未知顶层字段必须使反序列化失败并返回 MalformedToken
type Token struct {
	Table         string `json:"table"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	Lease         int64  `json:"lease"`
	RefreshPeriod int64  `json:"refresh_period"`
}

// Handle is the per-caller object bound to one logical lock name within one table.
// Its mutable state is guarded by mutex because both the caller and the owning Refresher touch it.
//
// Handle 是绑定到一个表内某个逻辑锁名的调用方对象
// 其可变状态由 mutex 保护，因为调用方与所属的 Refresher 都会访问它
type Handle struct {
	store     storeadapter.Store
	clock     clockid.Clock
	hostID    clockid.HostIdentity
	refresher *refresher.Refresher
	params    locktech.Params

	tableName string
	name      string

	mutex    sync.Mutex
	state    state
	version  string
	detached bool

	metrics *dlmhttp.Metrics
}

// Option configures an optional concern of a Handle at construction time.
// Option 在构造时配置 Handle 的可选能力
type Option func(*Handle)

// WithMetrics attaches the observability surface a Session was built with, so Acquire, Release,
// and steal detection report through it. A nil *dlmhttp.Metrics is safe and simply a no-op.
//
// WithMetrics 接入 Session 构建时所用的可观测性接口
// 使 Acquire、Release 与窃取检测都通过它上报；nil *dlmhttp.Metrics 是安全的，等同于无操作
func WithMetrics(metrics *dlmhttp.Metrics) Option {
	return func(h *Handle) { h.metrics = metrics }
}

// New builds a free Handle bound to name within tableName, not yet registered with refresherInst.
// New 构建一个绑定到 tableName 内 name 的空闲 Handle，尚未注册到 refresherInst
func New(store storeadapter.Store, clock clockid.Clock, hostID clockid.HostIdentity, refresherInst *refresher.Refresher, tableName, name string, params locktech.Params, opts ...Option) *Handle {
	h := &Handle{
		store:     store,
		clock:     clock,
		hostID:    hostID,
		refresher: refresherInst,
		params:    params.Normalize(),
		tableName: must.Nice(tableName),
		name:      must.Nice(name),
		state:     stateFree,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewHeld builds a Handle already in the Held state with version, and registers it with
// refresherInst. Used by locksession.DeserializeLock after a successful deserializing conditional write.
//
// NewHeld 构建一个已处于 Held 状态、携带 version 的 Handle，并将其注册到 refresherInst
// 供 locksession.DeserializeLock 在反序列化条件写入成功后使用
func NewHeld(store storeadapter.Store, clock clockid.Clock, hostID clockid.HostIdentity, refresherInst *refresher.Refresher, tableName, name, version string, params locktech.Params, opts ...Option) *Handle {
	h := New(store, clock, hostID, refresherInst, tableName, name, params, opts...)
	h.state = stateHeld
	h.version = version
	refresherInst.Register(h.registryKey(), h)
	return h
}

func (h *Handle) registryKey() string {
	return h.tableName + "/" + h.name
}

// Name returns the lock's logical name. Name 返回锁的逻辑名称
func (h *Handle) Name() string {
	return h.name
}

// LeaseDuration returns the lease window this handle was configured with.
// LeaseDuration 返回该句柄配置的租约窗口
func (h *Handle) LeaseDuration() time.Duration {
	return h.params.Lease
}

// RefreshPeriod implements refresher.Refreshable. RefreshPeriod 实现 refresher.Refreshable
func (h *Handle) RefreshPeriod() time.Duration {
	return h.params.RefreshPeriod
}

// IsHeld reports whether the handle currently believes it holds the lock. A Stolen handle
// reports false: Stolen is terminal but equivalent to Free for reuse.
//
// IsHeld 报告句柄当前是否认为自己持有锁
// 已被窃取的句柄报告 false：Stolen 是终止态，但对复用而言等价于 Free
func (h *Handle) IsHeld() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.state == stateHeld
}

// Acquire runs locktech.Acquire and transitions the handle to Held on success, registering
// it with the Refresher. Re-acquiring an already-held handle fails with dlmerrors.ErrIllegalState.
//
// Acquire 运行 locktech.Acquire 并在成功时将句柄迁移为 Held，同时向 Refresher 注册
// 对已持有的句柄重新获取会失败并返回 dlmerrors.ErrIllegalState
func (h *Handle) Acquire(ctx context.Context) error {
	h.mutex.Lock()
	if h.state == stateHeld {
		h.mutex.Unlock()
		return dlmerrors.ErrIllegalState
	}
	h.mutex.Unlock()

	version, err := locktech.Acquire(ctx, h.store, h.clock, h.hostID, h.name, h.params)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	h.state = stateHeld
	h.version = version
	h.detached = false
	h.mutex.Unlock()

	h.refresher.Register(h.registryKey(), h)
	h.metrics.ObserveAcquire(h.tableName)
	return nil
}

// Release runs locktech.Release and always leaves the handle Free, whether or not it was
// Held, Stolen, or already Free. Release is an idempotent no-op past the first call.
//
// Release 运行 locktech.Release，无论此前是 Held、Stolen 还是已经 Free
// 都始终将句柄置为 Free，释放在第一次调用之后是幂等的无操作
func (h *Handle) Release(ctx context.Context) error {
	h.mutex.Lock()
	if h.state == stateFree {
		h.mutex.Unlock()
		h.metrics.ObserveRelease(h.tableName, false)
		return nil
	}
	wasHeld := h.state == stateHeld
	version := h.version
	h.state = stateFree
	h.version = ""
	h.detached = false
	h.mutex.Unlock()

	h.refresher.Deregister(h.registryKey())
	h.metrics.ObserveRelease(h.tableName, wasHeld)
	return locktech.Release(ctx, h.store, h.name, version)
}

// ScopedUse acquires on entry and releases on every exit path, including a panic recovered
// and re-raised after cleanup, so a caller never needs to remember to release by hand.
//
// ScopedUse 在进入时获取，在每一条退出路径（包括恢复并重新抛出的 panic）上都释放
// 调用方无需自行记得释放
func (h *Handle) ScopedUse(ctx context.Context, fn func(ctx context.Context) error) (resErr error) {
	if err := h.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = h.Release(ctx)
			panic(r)
		}
		if err := h.Release(ctx); err != nil && resErr == nil {
			resErr = err
		}
	}()
	return fn(ctx)
}

// RefreshOnce implements refresher.Refreshable: one protocol refresh, reporting whether the
// handle is still Held afterwards. A false return means the handle is no longer Held: it
// transitioned to Stolen, or it was released (or re-acquired) while the refresh was in flight.
//
// RefreshOnce 实现 refresher.Refreshable：一次协议刷新，报告句柄之后是否仍为 Held
// 返回 false 表示句柄已不再是 Held：已迁移为 Stolen，或在刷新期间被释放（或重新获取）
func (h *Handle) RefreshOnce(ctx context.Context) bool {
	h.mutex.Lock()
	if h.state != stateHeld {
		h.mutex.Unlock()
		return false
	}
	version := h.version
	h.mutex.Unlock()

	outcome, newVersion, err := locktech.Refresh(ctx, h.store, h.hostID, h.name, version, h.params)
	if err != nil || outcome == locktech.RefreshStolen {
		h.mutex.Lock()
		if h.state != stateHeld || h.version != version {
			// released or re-acquired while the refresh round-tripped: Release already did the bookkeeping.
			h.mutex.Unlock()
			return false
		}
		h.state = stateStolen
		h.version = ""
		h.mutex.Unlock()
		h.metrics.ObserveStolen(h.tableName)
		return false
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.state != stateHeld {
		// released or stolen while the refresh round-tripped: don't resurrect it.
		return false
	}
	h.version = newVersion
	return true
}

// Serialize renders the handle into a JSON token and detaches it from the Refresher in the
// same call: serialize implies detach, so the source handle stops refreshing once the token
// is handed off. Only valid while Held; otherwise fails with dlmerrors.ErrIllegalState.
//
// Serialize 将句柄渲染为 JSON 令牌，并在同一调用内将其从 Refresher 脱离
// 序列化即隐含脱离，令牌交出后源句柄即停止刷新
// 仅在 Held 时有效；否则失败并返回 dlmerrors.ErrIllegalState
func (h *Handle) Serialize() (string, error) {
	h.mutex.Lock()
	if h.state != stateHeld {
		h.mutex.Unlock()
		return "", dlmerrors.ErrIllegalState
	}
	t := Token{
		Table:         h.tableName,
		Name:          h.name,
		Version:       h.version,
		Lease:         int64(h.params.Lease / time.Second),
		RefreshPeriod: int64(h.params.RefreshPeriod / time.Second),
	}
	h.detached = true
	h.mutex.Unlock()

	h.refresher.Deregister(h.registryKey())

	blob, err := json.Marshal(t)
	if err != nil {
		return "", erero.Wro(err)
	}
	return string(blob), nil
}

// ParseToken parses blob into a Token, rejecting unknown top-level fields and missing data,
// both surfaced as dlmerrors.MalformedTokenError. Used by locksession.DeserializeLock.
//
// ParseToken 解析 blob 为 Token，拒绝未知顶层字段与缺失数据
// 均以 dlmerrors.MalformedTokenError 形式暴露，供 locksession.DeserializeLock 使用
func ParseToken(blob string) (Token, error) {
	var t Token
	decoder := json.NewDecoder(strings.NewReader(blob))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&t); err != nil {
		return Token{}, &dlmerrors.MalformedTokenError{Reason: err.Error()}
	}
	if t.Table == "" || t.Name == "" || t.Version == "" {
		return Token{}, &dlmerrors.MalformedTokenError{Reason: "missing required field"}
	}
	return t, nil
}
