package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// InMemoryKV keeps records in process memory. Used by tests and by the CLI
// when no durable backend is configured. Values are stored as marshaled JSON
// so Get round-trips exactly like the durable adapters.
type InMemoryKV struct {
	mu      sync.RWMutex
	records map[string][]byte
	logs    map[string][]json.RawMessage
}

func NewInMemoryKV() *InMemoryKV {
	return &InMemoryKV{
		records: make(map[string][]byte),
		logs:    make(map[string][]json.RawMessage),
	}
}

func compositeKey(namespace, key string) string {
	return namespace + "/" + key
}

func (s *InMemoryKV) Put(_ context.Context, namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[compositeKey(namespace, key)] = raw
	return nil
}

func (s *InMemoryKV) Append(_ context.Context, namespace, key string, entry any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", namespace, key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := compositeKey(namespace, key)
	s.logs[k] = append(s.logs[k], raw)
	return nil
}

func (s *InMemoryKV) Get(_ context.Context, namespace, key string, out any) error {
	s.mu.RLock()
	raw, ok := s.records[compositeKey(namespace, key)]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *InMemoryKV) GetLog(_ context.Context, namespace, key string, out any) error {
	s.mu.RLock()
	entries, ok := s.logs[compositeKey(namespace, key)]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
