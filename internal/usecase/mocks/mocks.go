package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/fundstransfer/internal/usecase"
)

// FakeTransactionManager is a func-field implementation of TransactionManager.
// Without BeginFunc it hands out FakeTransactions and remembers them.
type FakeTransactionManager struct {
	mu  sync.Mutex
	Txs []*FakeTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &FakeTransaction{}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

// FakeTransaction counts Commit and Rollback calls.
type FakeTransaction struct {
	mu        sync.Mutex
	Commits   int
	Rollbacks int

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	m.mu.Lock()
	m.Rollbacks++
	m.mu.Unlock()
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// FakeIDGenerator is a func-field implementation of IDGenerator.
type FakeIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("fake-id-%d", m.counter)
}

// FakeIdempotencyStore is an in-memory IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *FakeIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Get returns the stored value for key.
func (m *FakeIdempotencyStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}
