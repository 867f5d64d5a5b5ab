// Package clockid: Injectable clock and host identity sources for the lock protocol
// Provides a monotonic-ish wall clock, a stable per-process diagnostic host id, and fencing-token generation
// Both the clock and the identity source are interfaces so tests can substitute deterministic fakes
//
// clockid: 锁协议使用的可注入时钟与主机身份来源
// 提供近似单调的挂钟时间、稳定的进程级诊断主机标识符，以及防护令牌生成
// 时钟和身份来源均为接口，便于测试时替换为确定性的假实现
package clockid

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/yyle88/must"

	"github.com/go-xlan/dlm-go-suo/internal/utils"
)

// Clock reports the current time as a time.Time; the default implementation is time.Now.
// Clock 以 time.Time 报告当前时间；默认实现为 time.Now
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock backed by time.Now.
// systemClock 是基于 time.Now 的默认 Clock
type systemClock struct{}

// NewSystemClock returns the default wall-clock Clock.
// NewSystemClock 返回默认的挂钟 Clock
func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// HostIdentity returns a stable per-process diagnostic string. Correctness
// never depends on its uniqueness; it is recorded on the lock record purely to help a human debug who holds what.
//
// HostIdentity 返回稳定的进程级诊断字符串
// 正确性从不依赖其唯一性——它被记录在锁记录上纯粹为了帮助人工调试谁持有了什么
type HostIdentity interface {
	HostID() string
}

// staticHostIdentity always returns the same string, set at construction.
// staticHostIdentity 总是返回构造时设置的同一字符串
type staticHostIdentity struct {
	id string
}

// NewStaticHostIdentity returns a HostIdentity that always reports id.
// NewStaticHostIdentity 返回一个始终报告 id 的 HostIdentity
func NewStaticHostIdentity(id string) HostIdentity {
	return staticHostIdentity{id: must.Nice(id)}
}

func (h staticHostIdentity) HostID() string {
	return h.id
}

// NewProcessHostIdentity builds a HostIdentity from the OS hostname, suffixed
// with a short random token so multiple processes on the same host remain distinguishable in logs.
//
// NewProcessHostIdentity 基于操作系统主机名构建 HostIdentity
// 并附加一个短随机令牌，使同一主机上的多个进程在日志中仍可区分
func NewProcessHostIdentity() HostIdentity {
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "unknown-host"
	}
	return staticHostIdentity{id: name + "-" + shortToken()}
}

// NewVersion returns a fresh globally-unique fencing token per call (UUID-shaped).
// NewVersion 每次调用返回一个新的全局唯一防护令牌（UUID 形态）
func NewVersion() string {
	return uuid.New().String()
}

func shortToken() string {
	return utils.NewUUID()[:8]
}
