// Package storeadapter: Narrow capability interface over a conditional-write backing store
// Exposes exactly the four operations the lock protocol needs, nothing else
// Implementations must back every operation with strongly consistent, linearizable conditional writes on a single key
//
// storeadapter: 在支持条件写入的后端存储上的窄能力接口
// 仅暴露锁协议所需的四个操作
// 各实现必须以对单个键的强一致、可线性化条件写入来支撑每个操作
package storeadapter

import "context"

// Record is the sole on-store entity, keyed by lock name within a table.
// A lock name is held iff a record exists for it; absence means free.
//
// Record 是唯一的存储实体，以表内锁名作为键
// 锁名被持有当且仅当其记录存在；缺失代表空闲
type Record struct {
	// LockKey is the logical lock name, the primary key within the table.
	// LockKey 是逻辑锁名，是表内的主键
	LockKey string

	// LeaseDuration is the advertised lease window in seconds; other clients
	// must wait at least this long since the last observed write before stealing.
	//
	// LeaseDuration 是以秒为单位的建议租约窗口
	// 其它客户端必须在最后一次观察到的写入之后至少等待这么久才能窃取
	LeaseDuration int64

	// VersionNumber is the fencing token: changes on every write, and is the
	// only legitimate precondition for a subsequent conditional write by the reader that observed it.
	//
	// VersionNumber 是防护令牌：每次写入都会变化
	// 是观察到它的读取者后续条件写入时唯一合法的前提条件
	VersionNumber string

	// HostIdentifier is diagnostic only; it is never used for correctness decisions.
	// HostIdentifier 仅用于诊断；从不用于正确性判断
	HostIdentifier string
}

// Store is the narrow capability a backing document store must expose to serve the lock protocol.
// Every method must be safe for concurrent use.
//
// Store 是后端文档存储为服务锁协议必须暴露的窄能力
// 每个方法都必须支持并发安全调用
type Store interface {
	// PutIfAbsent writes record under key iff no record currently exists for key.
	// Returns dlmerrors.ErrConflict if one already exists, dlmerrors.ErrTransient on transport failure.
	//
	// PutIfAbsent 在 key 当前不存在记录时写入 record
	// 若已存在记录则返回 dlmerrors.ErrConflict，传输失败时返回 dlmerrors.ErrTransient
	PutIfAbsent(ctx context.Context, key string, record Record) error

	// PutIfVersion writes record under key iff the stored record's VersionNumber equals expectedVersion.
	// Returns dlmerrors.ErrConflict on version mismatch or absence, dlmerrors.ErrTransient on transport failure.
	//
	// PutIfVersion 在已存储记录的 VersionNumber 等于 expectedVersion 时写入 record
	// 版本不匹配或记录缺失时返回 dlmerrors.ErrConflict，传输失败时返回 dlmerrors.ErrTransient
	PutIfVersion(ctx context.Context, key string, record Record, expectedVersion string) error

	// DeleteIfVersion deletes the record under key iff its VersionNumber equals expectedVersion.
	// Returns dlmerrors.ErrConflict on version mismatch or absence, dlmerrors.ErrTransient on transport failure.
	//
	// DeleteIfVersion 在记录的 VersionNumber 等于 expectedVersion 时删除该记录
	// 版本不匹配或记录缺失时返回 dlmerrors.ErrConflict，传输失败时返回 dlmerrors.ErrTransient
	DeleteIfVersion(ctx context.Context, key string, expectedVersion string) error

	// Get reads the record under key. Returns (nil, nil) when absent.
	// Get 读取 key 对应的记录；不存在时返回 (nil, nil)
	Get(ctx context.Context, key string) (*Record, error)
}
