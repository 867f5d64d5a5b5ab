// Package refresher: Background activity that keeps held locks alive
// A single worker per Session wakes on the nearest deadline and re-asserts ownership of each due entry
// Entries are added on acquire success and removed on release or on a Stolen transition
//
// refresher: 保持已持有锁存活的后台活动
// 每个 Session 对应一个工作协程，在最近的截止时间到来时唤醒，并对每个到期条目重新确认所有权
// 条目在获取成功时添加，在释放或发生 Stolen 迁移时移除
package refresher

import (
	"context"
	"sync"
	"time"

	"github.com/go-xlan/dlm-go-suo/internal/logging"
)

// Refreshable is the minimal surface the Refresher needs from a held lock handle.
// It is deliberately narrow so the Refresher never needs to import lockhandle,
// avoiding an ownership cycle between Session (which owns both) and Refresher.
//
// Refreshable 是 Refresher 对已持有锁句柄所需的最小接口
// 刻意保持窄小，使 Refresher 永远不需要导入 lockhandle
// 从而避免 Session（同时拥有两者）与 Refresher 之间的所有权环
type Refreshable interface {
	// RefreshOnce attempts one protocol refresh and reports whether the handle is
	// still held afterwards. A false return means the handle is no longer held
	// (stolen or released) and must be dropped from the schedule.
	//
	// RefreshOnce 尝试一次协议刷新，并报告句柄之后是否仍被持有
	// 返回 false 表示句柄已不再被持有（被窃取或已释放），必须从调度中移除
	RefreshOnce(ctx context.Context) bool

	// RefreshPeriod is the cadence at which this handle wants to be refreshed.
	// RefreshPeriod 是该句柄希望被刷新的节奏
	RefreshPeriod() time.Duration
}

type entry struct {
	handle      Refreshable
	nextRefresh time.Time
}

// Refresher is the single background worker shared by all handles held through one Session.
// Refresher 是一个 Session 下所有已持有句柄共享的单一后台工作协程
type Refresher struct {
	logger logging.Logger

	mutex   sync.Mutex
	entries map[string]*entry

	wake   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

// New creates a Refresher and starts its background worker immediately.
// Call Stop to shut it down; outstanding lock records are left to expire naturally.
//
// New 创建一个 Refresher 并立即启动其后台工作协程
// 调用 Stop 关闭它；未完成的锁记录将被留下自然过期
func New(logger logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher{
		logger:  logger,
		entries: make(map[string]*entry),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go r.run(ctx)
	return r
}

// Register adds or replaces the schedule entry for name, due at handle.RefreshPeriod() from now.
// Register 为 name 添加或替换调度条目，在当前时间加上 handle.RefreshPeriod() 后到期
func (r *Refresher) Register(name string, handle Refreshable) {
	r.mutex.Lock()
	r.entries[name] = &entry{
		handle:      handle,
		nextRefresh: time.Now().Add(handle.RefreshPeriod()),
	}
	r.mutex.Unlock()
	r.nudge()
}

// Deregister removes name from the schedule. Safe to call for a name that is not registered.
// Deregister 将 name 从调度中移除；对未注册的 name 调用是安全的
func (r *Refresher) Deregister(name string) {
	r.mutex.Lock()
	delete(r.entries, name)
	r.mutex.Unlock()
}

// Stop cancels the background worker and waits for it to exit. Outstanding lock records
// are left for the backing store's lease expiry to reclaim, never force-deleted.
//
// Stop 取消后台工作协程并等待其退出
// 未完成的锁记录留给后端存储的租约过期机制回收，绝不强制删除
func (r *Refresher) Stop() {
	r.cancel()
	<-r.done
}

func (r *Refresher) nudge() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)
	for {
		sleep := r.nextSleepDuration()
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.wake:
			timer.Stop()
			continue
		case <-timer.C:
		}
		r.refreshDueEntries(ctx)
	}
}

func (r *Refresher) nextSleepDuration() time.Duration {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.entries) == 0 {
		return time.Hour
	}
	nearest := time.Time{}
	for _, e := range r.entries {
		if nearest.IsZero() || e.nextRefresh.Before(nearest) {
			nearest = e.nextRefresh
		}
	}
	sleep := time.Until(nearest)
	if sleep < 0 {
		sleep = 0
	}
	return sleep
}

func (r *Refresher) refreshDueEntries(ctx context.Context) {
	now := time.Now()

	r.mutex.Lock()
	due := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if !e.nextRefresh.After(now) {
			due = append(due, name)
		}
	}
	r.mutex.Unlock()

	for _, name := range due {
		r.mutex.Lock()
		e, ok := r.entries[name]
		r.mutex.Unlock()
		if !ok {
			continue
		}

		stillHeld := e.handle.RefreshOnce(ctx)
		if !stillHeld {
			r.logger.DebugLog("lock stolen, dropping from refresh schedule")
			r.Deregister(name)
			continue
		}

		r.mutex.Lock()
		if current, ok := r.entries[name]; ok && current == e {
			current.nextRefresh = time.Now().Add(e.handle.RefreshPeriod())
		}
		r.mutex.Unlock()
	}
}
