// Package locktech: The acquire/refresh/release/steal state machine, built on the version-lease technique.
// Every operation here is expressed purely over storeadapter.Store, clockid.Clock and clockid.HostIdentity
// so it carries no dependency on any concrete backing store or on the Handle/Session bookkeeping above it
//
// locktech: 获取/刷新/释放/窃取状态机 —— 版本租约技术
// 这里的每个操作都纯粹地表达在 storeadapter.Store、clockid.Clock 和 clockid.HostIdentity 之上
// 因此不依赖任何具体的后端存储，也不依赖其上层的 Handle/Session 记账逻辑
package locktech

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/yyle88/erero"

	"github.com/go-xlan/dlm-go-suo/clockid"
	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
)

// DefaultLease is the advertised lease window used when a caller doesn't override it.
// DefaultLease 是调用方未覆盖时使用的建议租约窗口
const DefaultLease = 20 * time.Second

// DefaultRefreshPeriod is the refresh cadence used when a caller doesn't override it.
// DefaultRefreshPeriod 是调用方未覆盖时使用的刷新节奏
const DefaultRefreshPeriod = 5 * time.Second

// networkSlack is the margin Normalize keeps between RefreshPeriod and Lease once Lease exceeds it.
// networkSlack 是 Lease 超过它时 Normalize 在 RefreshPeriod 与 Lease 之间保留的余量
const networkSlack = 1 * time.Second

// transientRetryLimit bounds how many times Refresh retries a Transient failure
// within one refresh period before treating the handle as Stolen.
//
// transientRetryLimit 限定 Refresh 在视句柄为已被窃取之前
// 对一次 Transient 失败在一个刷新周期内的重试次数
const transientRetryLimit = 3

// Params bundles the numeric policy of the version-lease technique.
// Params 汇总了版本租约技术的数值策略
type Params struct {
	// Lease is the advertised lease window; must be at least 2*RefreshPeriod.
	// Lease 是建议的租约窗口；必须至少是 2 倍 RefreshPeriod
	Lease time.Duration

	// RefreshPeriod is strictly less than Lease, clamped to Lease-networkSlack at minimum margin.
	// RefreshPeriod 严格小于 Lease，并以至少 networkSlack 的余量被限制在 Lease 之下
	RefreshPeriod time.Duration

	// AcquireTimeout bounds how long Acquire retries before giving up. Zero means unbounded.
	// AcquireTimeout 限定 Acquire 重试的总时长，零值表示无限
	AcquireTimeout time.Duration

	// RetryInterval is how long Acquire sleeps between conflict observations. Defaults to Lease/2.
	// RetryInterval 是 Acquire 在观察到冲突之间的休眠时长，默认值为 Lease/2
	RetryInterval time.Duration
}

// DefaultParams returns the 20s/5s policy as the reasonable default.
// DefaultParams 返回合理的默认策略：20 秒租约、5 秒刷新
func DefaultParams() Params {
	return Params{
		Lease:         DefaultLease,
		RefreshPeriod: DefaultRefreshPeriod,
		RetryInterval: DefaultLease / 2,
	}
}

// Normalize clamps RefreshPeriod below Lease by at least networkSlack, and fills
// in a zero RetryInterval with Lease/2.
//
// The full one-second networkSlack applies whenever Lease exceeds one second; for
// leases short enough that a flat one-second margin would consume the whole window (as
// in this package's own sub-second tests), the margin scales down to a quarter of Lease
// instead of clamping RefreshPeriod to zero or negative.
//
// Normalize 将 RefreshPeriod 限制在 Lease 之下至少 networkSlack 的余量
// 并为零值的 RetryInterval 填充 Lease/2
//
// 只要 Lease 超过一秒，完整的一秒 networkSlack 即适用；
// 对于一秒固定余量会吞掉整个窗口的短租约（如本包自身的亚秒级测试），
// 余量按 Lease 的四分之一缩放，而不是将 RefreshPeriod 限制为零或负值
func (p Params) Normalize() Params {
	must := p
	if must.Lease <= 0 {
		must.Lease = DefaultLease
	}
	if must.RefreshPeriod <= 0 {
		must.RefreshPeriod = DefaultRefreshPeriod
	}
	slack := networkSlack
	if slack >= must.Lease {
		slack = must.Lease / 4
	}
	if ceiling := must.Lease - slack; must.RefreshPeriod > ceiling {
		must.RefreshPeriod = ceiling
	}
	if must.RetryInterval <= 0 {
		must.RetryInterval = must.Lease / 2
	}
	return must
}

// RefreshOutcome reports what happened to a Held handle's refresh attempt.
// RefreshOutcome 报告一次已持有句柄的刷新尝试的结果
type RefreshOutcome int

const (
	// RefreshOK means the write succeeded; the caller must adopt NewVersion.
	// RefreshOK 表示写入成功；调用方必须采用 NewVersion
	RefreshOK RefreshOutcome = iota

	// RefreshStolen means the lock was stolen: the lease expired before this refresh arrived.
	// RefreshStolen 表示锁已被窃取：租约在此次刷新到达前已过期
	RefreshStolen
)

func newRecord(name string, lease time.Duration, hostID clockid.HostIdentity) storeadapter.Record {
	return storeadapter.Record{
		LockKey:        name,
		LeaseDuration:  int64(lease / time.Second),
		VersionNumber:  clockid.NewVersion(),
		HostIdentifier: hostID.HostID(),
	}
}

// Acquire runs the put-if-absent / inspect / steal loop: put-if-absent first, and on conflict
// inspect the live record, sleep for min(Lease, RetryInterval), then steal via put-if-version
// if it is still the same stale version. Returns the fencing token of the winning write.
//
// Acquire 运行先尝试无条件存在时写入的获取循环
// 遇到冲突时检查当前记录，休眠 min(Lease, RetryInterval) 后，若版本仍未变化则通过条件版本写入窃取
// 返回获胜写入的防护令牌
func Acquire(ctx context.Context, store storeadapter.Store, clock clockid.Clock, hostID clockid.HostIdentity, name string, params Params) (string, error) {
	params = params.Normalize()

	deadline := time.Time{}
	if params.AcquireTimeout > 0 {
		deadline = clock.Now().Add(params.AcquireTimeout)
	}

	for {
		record := newRecord(name, params.Lease, hostID)
		err := store.PutIfAbsent(ctx, name, record)
		if err == nil {
			return record.VersionNumber, nil
		}
		if !errors.Is(err, dlmerrors.ErrConflict) {
			return "", erero.Wro(err)
		}

		version, acquired, retry, err := tryStealOnce(ctx, store, clock, hostID, name, params, deadline)
		if err != nil {
			return "", err
		}
		if acquired {
			return version, nil
		}
		if !retry {
			return "", &dlmerrors.AcquireTimeoutError{LockName: name, Waited: params.AcquireTimeout.String()}
		}
		// retry is true: absence raced or nothing stale to steal yet, loop again.
	}
}

// tryStealOnce inspects the current record once and decides the next move: acquired
// (won a steal), or retry from the top (record absent, or still live before the deadline),
// or the deadline has passed and the caller must fail with AcquireTimeout.
func tryStealOnce(ctx context.Context, store storeadapter.Store, clock clockid.Clock, hostID clockid.HostIdentity, name string, params Params, deadline time.Time) (version string, acquired bool, retry bool, err error) {
	current, err := store.Get(ctx, name)
	if err != nil {
		return "", false, false, erero.Wro(err)
	}
	if current == nil {
		// raced release: retry from the top immediately.
		return "", false, true, nil
	}

	observed := current.VersionNumber
	sleep := params.Lease
	if params.RetryInterval < sleep {
		sleep = params.RetryInterval
	}
	if err := sleepCtx(ctx, sleep); err != nil {
		return "", false, false, erero.Wro(err)
	}

	current, err = store.Get(ctx, name)
	if err != nil {
		return "", false, false, erero.Wro(err)
	}
	if current == nil {
		return "", false, true, nil
	}
	if current.VersionNumber != observed {
		// the holder refreshed: the lock is still live. Keep retrying unless time is up.
		if !deadline.IsZero() && !clock.Now().Before(deadline) {
			return "", false, false, nil
		}
		return "", false, true, nil
	}

	// same stale version observed twice across one retry sleep: the holder is presumed dead.
	record := newRecord(name, params.Lease, hostID)
	if err := store.PutIfVersion(ctx, name, record, observed); err != nil {
		if errors.Is(err, dlmerrors.ErrConflict) {
			// someone else won the steal race first.
			if !deadline.IsZero() && !clock.Now().Before(deadline) {
				return "", false, false, nil
			}
			return "", false, true, nil
		}
		return "", false, false, erero.Wro(err)
	}
	return record.VersionNumber, true, false, nil
}

// Refresh runs one protocol refresh: a conditional write keyed on the
// handle's current version. RefreshOK carries the rotated version the caller must adopt;
// RefreshStolen means the handle must transition to Stolen and stop refreshing.
//
// Refresh 执行一次协议刷新：以句柄当前版本为前提条件的条件写入
// RefreshOK 携带调用方必须采用的新版本；RefreshStolen 表示句柄必须迁移为 Stolen 并停止刷新
func Refresh(ctx context.Context, store storeadapter.Store, hostID clockid.HostIdentity, name string, version string, params Params) (RefreshOutcome, string, error) {
	params = params.Normalize()
	record := newRecord(name, params.Lease, hostID)

	var lastErr error
	for attempt := 0; attempt < transientRetryLimit; attempt++ {
		err := store.PutIfVersion(ctx, name, record, version)
		if err == nil {
			return RefreshOK, record.VersionNumber, nil
		}
		if errors.Is(err, dlmerrors.ErrConflict) {
			return RefreshStolen, "", nil
		}
		if !errors.Is(err, dlmerrors.ErrTransient) {
			return RefreshStolen, "", erero.Wro(err)
		}
		lastErr = err
	}
	// exhausted the transient retry budget within the refresh period: treat as Stolen.
	_ = lastErr
	return RefreshStolen, "", nil
}

// Release runs a conditional delete keyed on version. A conflict here is not raised to
// the caller: the lock was already stolen, and release must always succeed from the
// caller's point of view.
//
// Release 执行以版本为前提条件的条件删除
// 此处的冲突不会暴露给调用方——锁已被窃取，释放从调用方视角看必须始终成功
func Release(ctx context.Context, store storeadapter.Store, name string, version string) error {
	err := store.DeleteIfVersion(ctx, name, version)
	if err == nil {
		return nil
	}
	if errors.Is(err, dlmerrors.ErrConflict) {
		return nil
	}
	return erero.Wro(err)
}

// sleepCtx sleeps for d or returns ctx.Err() if ctx is cancelled first, so Acquire's
// retry loop remains cancellable.
//
// sleepCtx 休眠 d 时长，若 ctx 先被取消则返回 ctx.Err()
// 使 Acquire 的重试循环保持可取消
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
