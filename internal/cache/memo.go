package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const keyPrefix = "askdocs"

// Memo stores JSON-serializable results keyed by content hash.
type Memo interface {
	// Get decodes a cached value into out and reports whether it was found.
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Key derives askdocs:<namespace>:<sha256> from the given parts.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, namespace, hex.EncodeToString(h.Sum(nil)))
}

type localEntry struct {
	payload   []byte
	expiresAt time.Time
}

// LocalMemo keeps entries in process memory. Expired entries are dropped on
// every Set.
type LocalMemo struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]localEntry
	now     func() time.Time
}

// NewLocalMemo never expires entries when ttl <= 0.
func NewLocalMemo(ttl time.Duration) *LocalMemo {
	return &LocalMemo{ttl: ttl, entries: make(map[string]localEntry), now: time.Now}
}

func (m *LocalMemo) Get(_ context.Context, key string, out any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.payload, out); err != nil {
		return false, fmt.Errorf("unmarshal cached value failed: %w", err)
	}
	return true, nil
}

func (m *LocalMemo) Set(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value failed: %w", err)
	}
	now := m.now()
	e := localEntry{payload: payload}
	if m.ttl > 0 {
		e.expiresAt = now.Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, old := range m.entries {
		if !old.expiresAt.IsZero() && now.After(old.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = e
	return nil
}

func (m *LocalMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
