// Package memstore: In-memory fake storeadapter.Store for property tests
// Backs the lock protocol with a plain mutex-protected map instead of a network client
// Used to property-test mutual exclusion, version monotonicity, and release idempotence without external dependencies
//
// memstore: 供性质测试使用的 storeadapter.Store 内存假实现
// 使用普通的互斥锁保护的映射而非网络客户端来支撑锁协议
// 用于在无需外部依赖的情况下对互斥性、版本单调性和释放幂等性进行性质测试
package memstore

import (
	"context"
	"sync"

	"github.com/go-xlan/dlm-go-suo/dlmerrors"
	"github.com/go-xlan/dlm-go-suo/storeadapter"
)

// Store is a mutex-protected in-memory storeadapter.Store.
// Safe for concurrent use by multiple goroutines, simulating multiple sessions against one shared table.
//
// Store 是互斥锁保护的内存版 storeadapter.Store
// 支持多个 goroutine 并发安全使用，模拟多个会话共享同一张表
type Store struct {
	mutex   sync.Mutex
	records map[string]storeadapter.Record
}

// New creates an empty in-memory store.
// New 创建一个空的内存存储
func New() *Store {
	return &Store{
		records: make(map[string]storeadapter.Record),
	}
}

func (s *Store) PutIfAbsent(_ context.Context, key string, record storeadapter.Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.records[key]; exists {
		return dlmerrors.ErrConflict
	}
	s.records[key] = record
	return nil
}

func (s *Store) PutIfVersion(_ context.Context, key string, record storeadapter.Record, expectedVersion string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, exists := s.records[key]
	if !exists || existing.VersionNumber != expectedVersion {
		return dlmerrors.ErrConflict
	}
	s.records[key] = record
	return nil
}

func (s *Store) DeleteIfVersion(_ context.Context, key string, expectedVersion string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, exists := s.records[key]
	if !exists || existing.VersionNumber != expectedVersion {
		return dlmerrors.ErrConflict
	}
	delete(s.records, key)
	return nil
}

func (s *Store) Get(_ context.Context, key string) (*storeadapter.Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, exists := s.records[key]
	if !exists {
		return nil, nil
	}
	// Return a copy so callers can't mutate the stored record through the pointer.
	// 返回副本，避免调用方通过指针修改已存储的记录
	record := existing
	return &record, nil
}
