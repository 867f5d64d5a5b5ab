// Package example1 demonstrates basic distributed lock usage with automatic release
// Shows simple lock acquisition, protected code execution, and guaranteed cleanup
// Illustrates the essential lock workflow in production applications
//
// example1 演示带自动释放的基本分布式锁用法
// 展示简单的锁获取、受保护代码执行和保证的清理
// 说明实际应用中的基本锁工作流程
package example1

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/locksession"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
	"github.com/go-xlan/dlm-go-suo/storeadapter/memstore"
)

var caseStore storeadapter.Store

func TestMain(m *testing.M) {
	caseStore = memstore.New()
	m.Run()
}

// TestBasicLockUsage demonstrates the basic lock acquisition and release pattern
// Shows how to obtain a lock, execute protected code, and release it
//
// TestBasicLockUsage 演示基本的锁获取和释放模式
// 展示如何获取锁、执行受保护代码并释放它
func TestBasicLockUsage(t *testing.T) {
	ctx := context.Background()

	session := locksession.New(caseStore, "example1")
	defer session.Close()

	// Create a distributed lock with a 5-second lease
	// 创建一个具有 5 秒租约的分布式锁
	lock := session.CreateLock("example-lock-1", locksession.WithLeaseDuration(5*time.Second))

	// Acquire the lock
	// 获取锁
	require.NoError(t, lock.Acquire(ctx))
	require.True(t, lock.IsHeld())

	t.Logf("Lock obtained: %s", lock.Name())

	// Execute protected code
	// 执行受保护的代码
	t.Log("Executing protected operation...")
	time.Sleep(100 * time.Millisecond) // Simulate work

	// Release the lock
	// 释放锁
	require.NoError(t, lock.Release(ctx))
	require.False(t, lock.IsHeld())

	t.Log("Lock released")
}

// TestLockWithScopedUse demonstrates using ScopedUse to guarantee lock release
// Shows the recommended pattern to ensure cleanup even when panics happen
//
// TestLockWithScopedUse 演示使用 ScopedUse 保证锁释放
// 展示推荐的模式以确保即使发生 panic 也能清理
func TestLockWithScopedUse(t *testing.T) {
	session := locksession.New(caseStore, "example1")
	defer session.Close()

	lock := session.CreateLock("example-lock-2", locksession.WithLeaseDuration(5*time.Second))

	// ScopedUse acquires on entry and releases on every exit path, panics included.
	// ScopedUse 在进入时获取，在每一条退出路径（含 panic）上释放
	err := lock.ScopedUse(context.Background(), func(ctx context.Context) error {
		t.Log("Working with the lock...")
		time.Sleep(100 * time.Millisecond)
		t.Log("Protected operation finished")
		return nil
	})
	require.NoError(t, err)
	require.False(t, lock.IsHeld())
	t.Log("Lock cleanup completed")
}

// TestLockContention demonstrates what occurs when two handles compete for the same lock
// Shows that a bounded acquire attempt fails with AcquireTimeoutError while the lock is held
//
// TestLockContention 演示两个句柄竞争获取同一个锁时会发生什么
// 展示当锁被占用时，一次限时获取尝试会以 AcquireTimeoutError 失败
func TestLockContention(t *testing.T) {
	ctx := context.Background()
	session := locksession.New(caseStore, "example1")
	defer session.Close()

	// First handle obtains the lock, refreshing fast enough that a contender's steal-check
	// window always observes a version change and never mistakes it for a dead holder.
	// 第一个句柄获取锁，其刷新速度足以让竞争者的窃取检查窗口始终观察到版本变化
	// 不会将其误判为已失效的持有者
	lock1 := session.CreateLock("example-lock-3",
		locksession.WithLeaseDuration(100*time.Millisecond),
		locksession.WithRefreshPeriod(20*time.Millisecond),
	)
	require.NoError(t, lock1.Acquire(ctx))
	t.Log("First handle obtained the lock")

	// Second handle attempts to obtain the same lock with a short deadline; its retry
	// interval stays above the first handle's refresh period so it never falsely steals.
	// 第二个句柄以较短的截止时间尝试获取同一个锁；其重试间隔始终大于第一个句柄的刷新周期，因此永远不会误判窃取
	lock2 := session.CreateLock("example-lock-3",
		locksession.WithLeaseDuration(100*time.Millisecond),
		locksession.WithRefreshPeriod(20*time.Millisecond),
		locksession.WithAcquireTimeout(80*time.Millisecond),
		locksession.WithRetryInterval(30*time.Millisecond),
	)
	err := lock2.Acquire(ctx)
	var timeoutErr *dlmerrors.AcquireTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	t.Log("Second handle failed to obtain the lock (expected)")

	// Release the first lock
	// 释放第一个锁
	require.NoError(t, lock1.Release(ctx))
	t.Log("First handle released the lock")

	// Now the second handle can obtain the lock
	// 现在第二个句柄可以获取锁了
	require.NoError(t, lock2.Acquire(ctx))
	t.Log("Second handle obtained the lock once first released")

	require.NoError(t, lock2.Release(ctx))
}

// TestLockReleaseAndReacquire demonstrates lock release and subsequent acquisition
// Shows that once a lock is released, it becomes available to get again with a new fencing version
// Illustrates the complete lifecycle: acquire -> work -> release -> acquire again
//
// TestLockReleaseAndReacquire 演示锁释放和后续获取
// 展示一旦锁被释放，它就可以携带新的防护版本被再次获取
// 说明完整的生命周期：获取 -> 工作 -> 释放 -> 再次获取
func TestLockReleaseAndReacquire(t *testing.T) {
	ctx := context.Background()
	session := locksession.New(caseStore, "example1")
	defer session.Close()
	lockName := "example-lock-4"

	t.Run("FirstAcquisition", func(t *testing.T) {
		lock := session.CreateLock(lockName, locksession.WithLeaseDuration(5*time.Second))
		require.NoError(t, lock.Acquire(ctx))

		time.Sleep(50 * time.Millisecond)
		t.Log("Work completed")

		require.NoError(t, lock.Release(ctx))
		t.Log("Lock released")
	})

	t.Run("SecondAcquisition", func(t *testing.T) {
		lock := session.CreateLock(lockName, locksession.WithLeaseDuration(5*time.Second))
		require.NoError(t, lock.Acquire(ctx))
		t.Log("Lock acquired again")

		require.NoError(t, lock.Release(ctx))
		t.Log("Lock released")
	})
}
