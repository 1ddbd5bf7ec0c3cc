package amounts

import (
	"sync"
)

const numShards = 16

// ShardedSessionMap is a sharded map of pair sessions to reduce lock
// contention when many pairs are open at once.
type ShardedSessionMap struct {
	shards [numShards]sessionShard
}

type sessionShard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewShardedSessionMap() *ShardedSessionMap {
	m := &ShardedSessionMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].sessions = make(map[string]*Session)
	}
	return m
}

// getShard returns the shard for a given pair id (FNV-1a over the id).
func (m *ShardedSessionMap) getShard(key string) *sessionShard {
	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return &m.shards[h%numShards]
}

func (m *ShardedSessionMap) Get(key string) (*Session, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	s, ok := shard.sessions[key]
	shard.mu.RUnlock()
	return s, ok
}

func (m *ShardedSessionMap) Set(key string, s *Session) {
	shard := m.getShard(key)
	shard.mu.Lock()
	shard.sessions[key] = s
	shard.mu.Unlock()
}

// GetOrSet returns the existing session for key, or stores and returns the
// one produced by create. create runs under the shard lock so two callers
// cannot both start a session for the same pair.
func (m *ShardedSessionMap) GetOrSet(key string, create func() *Session) (*Session, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if s, ok := shard.sessions[key]; ok {
		return s, false
	}
	s := create()
	shard.sessions[key] = s
	return s, true
}

func (m *ShardedSessionMap) Delete(key string) (*Session, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	s, ok := shard.sessions[key]
	if ok {
		delete(shard.sessions, key)
	}
	shard.mu.Unlock()
	return s, ok
}

func (m *ShardedSessionMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].sessions)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Range iterates over all sessions (acquires locks per shard).
func (m *ShardedSessionMap) Range(f func(key string, s *Session) bool) {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].sessions {
			if !f(k, v) {
				m.shards[i].mu.RUnlock()
				return
			}
		}
		m.shards[i].mu.RUnlock()
	}
}
