// Package dlmerrors: Typed error kinds surfaced to lock manager callers
// Distinguishes protocol signals (Conflict, Transient) from caller-facing failures
// Provides sentinel errors for errors.Is and typed errors carrying extra context for errors.As
//
// dlmerrors: 锁管理器调用方可见的类型化错误种类
// 区分协议信号（Conflict、Transient）与面向调用方的失败
// 提供支持 errors.Is 的哨兵错误和携带额外上下文支持 errors.As 的类型化错误
package dlmerrors

import "github.com/pkg/errors"

// Sentinel errors returned by storeadapter.Store implementations.
// These are protocol signals, never surfaced directly to lock manager callers.
//
// storeadapter.Store 实现返回的哨兵错误
// 这些是协议信号，从不直接暴露给锁管理器调用方
var (
	// ErrConflict reports a failed conditional write: version mismatch or absence
	// when presence (or a matching version) was required.
	//
	// ErrConflict 报告失败的条件写入：版本不匹配或在需要存在（或匹配版本）时缺失
	ErrConflict = errors.New("dlm: conditional write conflict")

	// ErrTransient reports a store communication failure. The adapters in this module
	// return it on the first failure without retrying; the protocol layer decides how to react.
	//
	// ErrTransient 报告存储通信失败；本模块中的适配器在首次失败时即返回它，不做重试
	// 协议层决定如何应对
	ErrTransient = errors.New("dlm: transient store failure")
)

// ErrIllegalState reports an operation invalid for the handle's current state:
// acquire on held, serialize on free. Release on free/stolen is a no-op, not this error.
//
// ErrIllegalState 报告对当前句柄状态无效的操作：对已持有的句柄执行获取、对空闲句柄执行序列化
// 对空闲/已被窃取句柄执行释放是无操作，不会返回此错误
var ErrIllegalState = errors.New("dlm: illegal state for this operation")

// AcquireTimeoutError reports that acquire exceeded its deadline while the lock
// stayed continuously held by another agent.
//
// AcquireTimeoutError 报告获取超过截止时间，而锁持续被其它代理持有
type AcquireTimeoutError struct {
	LockName string
	Waited   string
}

func (e *AcquireTimeoutError) Error() string {
	return "dlm: acquire timeout on lock " + e.LockName + " after " + e.Waited
}

// AlreadyInUseError reports that deserialization raced with a steal, release, or refresh:
// the version embedded in the token no longer matches the store record.
//
// AlreadyInUseError 报告反序列化与窃取、释放或刷新发生了竞争
// 令牌中内嵌的版本已经与存储记录不匹配
type AlreadyInUseError struct {
	LockName string
}

func (e *AlreadyInUseError) Error() string {
	return "dlm: lock already in use: " + e.LockName
}

// MalformedTokenError reports that a serialization blob could not be parsed,
// or was missing required fields, or carried unknown top-level fields.
//
// MalformedTokenError 报告序列化令牌无法解析、缺少必需字段、或携带未知顶层字段
type MalformedTokenError struct {
	Reason string
}

func (e *MalformedTokenError) Error() string {
	return "dlm: malformed token: " + e.Reason
}

// WrongTableError reports deserialization attempted against a session bound
// to a different table than the one recorded in the token.
//
// WrongTableError 报告反序列化尝试发生在会话绑定表与令牌记录表不一致的情况下
type WrongTableError struct {
	SessionTable string
	TokenTable   string
}

func (e *WrongTableError) Error() string {
	return "dlm: wrong table: session bound to " + e.SessionTable + ", token names " + e.TokenTable
}
