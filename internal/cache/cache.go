package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Outcome classifies a cache read.
type Outcome int

const (
	// Miss means no usable entry exists for the key.
	Miss Outcome = iota
	// Hit means a valid entry was found and its payload returned.
	Hit
	// NegativeHit means the provider previously confirmed "not found" for
	// this key; callers should return empty without going to the network.
	NegativeHit
)

// Store is an advisory cache for provider responses. Implementations must
// never let a cache failure abort the caller: write errors are logged and
// swallowed, corrupt entries are discarded and reported as a miss.
type Store interface {
	// Load returns the cached payload for key, if any. Entries older than
	// ttl are treated as a miss.
	Load(provider, kind, key string, ttl time.Duration) ([]byte, Outcome)
	// Save stores a payload for key.
	Save(provider, kind, key string, payload []byte)
	// SaveNotFound records that the provider confirmed absence of data for
	// key, so the next Load within ttl returns NegativeHit.
	SaveNotFound(provider, kind, key string)
}

// envelope is the on-disk record. NotFound entries carry no data.
type envelope struct {
	Data     json.RawMessage `json:"data,omitempty"`
	NotFound bool            `json:"not_found,omitempty"`
	CachedAt time.Time       `json:"cached_at"`
}

// ──────────────────── Filesystem store ────────────────────

// FSStore keeps one JSON envelope file per key under
// <root>/<provider>/<kind>/<md5(key)>.json. Concurrent readers are safe;
// overlapping writes on one key are last-writer-wins, which is acceptable
// because the cache is advisory.
type FSStore struct {
	root         string
	forceRefresh bool
}

func NewFSStore(root string, forceRefresh bool) *FSStore {
	return &FSStore{root: root, forceRefresh: forceRefresh}
}

func (s *FSStore) path(provider, kind, key string) string {
	sum := md5.Sum([]byte(key))
	return filepath.Join(s.root, provider, kind, hex.EncodeToString(sum[:])+".json")
}

func (s *FSStore) Load(provider, kind, key string, ttl time.Duration) ([]byte, Outcome) {
	// force-refresh bypasses reads but not writes
	if s.forceRefresh {
		return nil, Miss
	}

	path := s.path(provider, kind, key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Miss
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Corrupt entry: delete and treat as miss.
		log.Printf("cache: removing corrupt entry %s: %v", path, err)
		os.Remove(path)
		return nil, Miss
	}
	if ttl > 0 && time.Since(env.CachedAt) > ttl {
		return nil, Miss
	}
	if env.NotFound {
		return nil, NegativeHit
	}
	return env.Data, Hit
}

func (s *FSStore) Save(provider, kind, key string, payload []byte) {
	s.write(provider, kind, key, envelope{Data: payload, CachedAt: time.Now().UTC()})
}

func (s *FSStore) SaveNotFound(provider, kind, key string) {
	s.write(provider, kind, key, envelope{NotFound: true, CachedAt: time.Now().UTC()})
}

func (s *FSStore) write(provider, kind, key string, env envelope) {
	path := s.path(provider, kind, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("cache: mkdir failed for %s: %v", path, err)
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		log.Printf("cache: marshal failed for %s: %v", key, err)
		return
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		log.Printf("cache: write failed for %s: %v", path, err)
	}
}

// ──────────────────── In-memory store ────────────────────

// MemStore is the test implementation. Not safe for concurrent use; each
// worker owns its own cache handle.
type MemStore struct {
	entries      map[string]envelope
	forceRefresh bool
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]envelope)}
}

// SetForceRefresh toggles read bypass, mirroring the FSStore flag.
func (s *MemStore) SetForceRefresh(v bool) { s.forceRefresh = v }

func memKey(provider, kind, key string) string {
	return provider + "/" + kind + "/" + key
}

func (s *MemStore) Load(provider, kind, key string, ttl time.Duration) ([]byte, Outcome) {
	if s.forceRefresh {
		return nil, Miss
	}
	env, ok := s.entries[memKey(provider, kind, key)]
	if !ok {
		return nil, Miss
	}
	if ttl > 0 && time.Since(env.CachedAt) > ttl {
		return nil, Miss
	}
	if env.NotFound {
		return nil, NegativeHit
	}
	return env.Data, Hit
}

func (s *MemStore) Save(provider, kind, key string, payload []byte) {
	s.entries[memKey(provider, kind, key)] = envelope{Data: payload, CachedAt: time.Now().UTC()}
}

func (s *MemStore) SaveNotFound(provider, kind, key string) {
	s.entries[memKey(provider, kind, key)] = envelope{NotFound: true, CachedAt: time.Now().UTC()}
}

// Backdate rewinds an entry's cached-at timestamp; used by TTL tests.
func (s *MemStore) Backdate(provider, kind, key string, age time.Duration) error {
	k := memKey(provider, kind, key)
	env, ok := s.entries[k]
	if !ok {
		return errors.New("no such entry")
	}
	env.CachedAt = time.Now().UTC().Add(-age)
	s.entries[k] = env
	return nil
}

// Len reports the number of stored entries.
func (s *MemStore) Len() int { return len(s.entries) }

var _ Store = (*FSStore)(nil)
var _ Store = (*MemStore)(nil)

// String implements fmt.Stringer for log lines.
func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case NegativeHit:
		return "negative"
	default:
		return "miss"
	}
}
