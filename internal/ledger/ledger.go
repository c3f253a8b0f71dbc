package ledger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DedupWindow suppresses repeated notifications for the same event key.
	DedupWindow = 5 * time.Minute
	// retention bounds how long a key stays in the table before eviction.
	retention = time.Hour
)

// Ledger is the durable table of already-notified event keys. It makes
// log-driven notifications idempotent across process restarts. All operations
// are serialized by one table-level lock; the expected write rate is a few
// events per minute.
type Ledger struct {
	path string

	mu     sync.Mutex
	cache  map[string]time.Time
	loaded bool

	now func() time.Time
}

func New(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure ledger dir: %w", err)
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to init ledger file: %w", err)
		}
	}
	return &Ledger{path: path, now: time.Now}, nil
}

// Lookup returns a copy of the full table, loading it from the backing file
// on first use.
func (l *Ledger) Lookup() map[string]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()
	out := make(map[string]time.Time, len(l.cache))
	for k, v := range l.cache {
		out[k] = v
	}
	return out
}

// Seen returns the last-notified timestamp for key, if any.
func (l *Ledger) Seen(key string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()
	ts, ok := l.cache[key]
	return ts, ok
}

// Record inserts key with the given timestamp, evicts expired entries and
// persists the table.
func (l *Ledger) Record(key string, ts time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()
	l.cache[key] = ts
	l.evictLocked()
	return l.persistLocked()
}

// RecordIfStale inserts key at ts unless an existing record is younger than
// window, checking and writing under one lock. It reports whether the record
// was written. A persist failure still leaves the entry in the cache.
func (l *Ledger) RecordIfStale(key string, ts time.Time, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()
	if last, ok := l.cache[key]; ok && ts.Sub(last) < window {
		return false, nil
	}
	l.cache[key] = ts
	l.evictLocked()
	return true, l.persistLocked()
}

// CleanupExpired evicts entries older than the retention window and persists.
func (l *Ledger) CleanupExpired() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked()
	if n := l.evictLocked(); n > 0 {
		log.Printf("evicted %d expired event(s) from ledger", n)
	}
	return l.persistLocked()
}

func (l *Ledger) loadLocked() {
	if l.loaded {
		return
	}
	l.cache = make(map[string]time.Time)
	l.loaded = true

	data, err := os.ReadFile(l.path)
	if err != nil {
		log.Printf("⚠️ failed to read ledger file: %v", err)
		return
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("⚠️ failed to parse ledger file: %v", err)
		return
	}
	for key, s := range raw {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			log.Printf("⚠️ dropping ledger entry %q with bad timestamp %q", key, s)
			continue
		}
		l.cache[key] = ts
	}
	log.Printf("loaded %d processed event(s) from ledger", len(l.cache))
}

func (l *Ledger) evictLocked() int {
	now := l.now()
	var expired []string
	for key, ts := range l.cache {
		if now.Sub(ts) > retention {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(l.cache, key)
	}
	return len(expired)
}

func (l *Ledger) persistLocked() error {
	raw := make(map[string]string, len(l.cache))
	for key, ts := range l.cache {
		raw[key] = ts.Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
