// Package redisstore: Redis-backed storeadapter.Store using Lua scripting for atomic conditional writes
// Stores each Record as a JSON value and checks versionNumber equality inside the script itself
// Generalizes the session-TTL mutex technique into a full fencing-token lock record
//
// redisstore: 使用 Lua 脚本实现原子条件写入的 Redis 版 storeadapter.Store
// 将每个 Record 以 JSON 值存储，并在脚本内部检查 versionNumber 是否相等
// 将会话级 TTL 互斥技术泛化为完整的防护令牌锁记录
package redisstore

import (
	"context"
	"encoding/json"

	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
	"github.com/redis/go-redis/v9"
	"github.com/yyle88/erero"
)

// Store is a storeadapter.Store backed by a redis.UniversalClient.
// Each lock name within tableName maps to one Redis key holding the JSON-encoded Record.
//
// Store 是由 redis.UniversalClient 支撑的 storeadapter.Store
// tableName 内每个锁名都映射到一个保存 JSON 编码 Record 的 Redis 键
type Store struct {
	redisClient redis.UniversalClient
	tableName   string
}

// New creates a redisstore.Store namespaced under tableName.
// New 创建一个以 tableName 为命名空间的 redisstore.Store
func New(redisClient redis.UniversalClient, tableName string) *Store {
	return &Store{
		redisClient: redisClient,
		tableName:   tableName,
	}
}

func (s *Store) redisKey(key string) string {
	return s.tableName + ":" + key
}

const (
	scriptPutIfAbsent = `local existing = redis.call("GET", KEYS[1])
if existing then
    return "CONFLICT"
end
redis.call("SET", KEYS[1], ARGV[1])
return "OK"`

	scriptPutIfVersion = `local existing = redis.call("GET", KEYS[1])
if not existing then
    return "CONFLICT"
end
if cjson.decode(existing)["versionNumber"] ~= ARGV[2] then
    return "CONFLICT"
end
redis.call("SET", KEYS[1], ARGV[1])
return "OK"`

	scriptDeleteIfVersion = `local existing = redis.call("GET", KEYS[1])
if not existing then
    return "CONFLICT"
end
if cjson.decode(existing)["versionNumber"] ~= ARGV[1] then
    return "CONFLICT"
end
redis.call("DEL", KEYS[1])
return "OK"`
)

// jsonRecord mirrors storeadapter.Record with JSON field names matching the shared lock record schema.
// jsonRecord 以共享锁记录模式中的字段名映射 storeadapter.Record
type jsonRecord struct {
	LockKey        string `json:"lockKey"`
	LeaseDuration  int64  `json:"leaseDuration"`
	VersionNumber  string `json:"versionNumber"`
	HostIdentifier string `json:"hostIdentifier"`
}

func encodeRecord(record storeadapter.Record) ([]byte, error) {
	return json.Marshal(jsonRecord{
		LockKey:        record.LockKey,
		LeaseDuration:  record.LeaseDuration,
		VersionNumber:  record.VersionNumber,
		HostIdentifier: record.HostIdentifier,
	})
}

func decodeRecord(data []byte) (storeadapter.Record, error) {
	var jr jsonRecord
	if err := json.Unmarshal(data, &jr); err != nil {
		return storeadapter.Record{}, erero.Wro(err)
	}
	return storeadapter.Record{
		LockKey:        jr.LockKey,
		LeaseDuration:  jr.LeaseDuration,
		VersionNumber:  jr.VersionNumber,
		HostIdentifier: jr.HostIdentifier,
	}, nil
}

func (s *Store) PutIfAbsent(ctx context.Context, key string, record storeadapter.Record) error {
	payload, err := encodeRecord(record)
	if err != nil {
		return erero.Wro(err)
	}
	return s.runConditionalWrite(ctx, scriptPutIfAbsent, key, []string{string(payload)})
}

func (s *Store) PutIfVersion(ctx context.Context, key string, record storeadapter.Record, expectedVersion string) error {
	payload, err := encodeRecord(record)
	if err != nil {
		return erero.Wro(err)
	}
	return s.runConditionalWrite(ctx, scriptPutIfVersion, key, []string{string(payload), expectedVersion})
}

func (s *Store) DeleteIfVersion(ctx context.Context, key string, expectedVersion string) error {
	return s.runConditionalWrite(ctx, scriptDeleteIfVersion, key, []string{expectedVersion})
}

func (s *Store) runConditionalWrite(ctx context.Context, script, key string, argv []string) error {
	resp, err := s.redisClient.Eval(ctx, script, []string{s.redisKey(key)}, argvToAny(argv)...).Result()
	if err != nil {
		return erero.Wro(dlmerrors.ErrTransient)
	}
	msg, ok := resp.(string)
	if !ok {
		return erero.Wro(dlmerrors.ErrTransient)
	}
	if msg != "OK" {
		return dlmerrors.ErrConflict
	}
	return nil
}

func argvToAny(argv []string) []interface{} {
	out := make([]interface{}, len(argv))
	for i, v := range argv {
		out[i] = v
	}
	return out
}

func (s *Store) Get(ctx context.Context, key string) (*storeadapter.Record, error) {
	data, err := s.redisClient.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, erero.Wro(dlmerrors.ErrTransient)
	}
	record, err := decodeRecord(data)
	if err != nil {
		return nil, erero.Wro(err)
	}
	return &record, nil
}
