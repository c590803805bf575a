package decompose

import (
	"sync"
	"sync/atomic"

	"github.com/arcspace/go-arc-sdk/stdlib/symbol"
	"github.com/arcspace/go-arc-sdk/stdlib/symbol/memory_table"

	"github.com/zxcalc/gozx"
)

// memoCache is the default in-process DecompCache. Canonical keys are
// interned to dense symbol IDs once, so the hot path compares an int
// instead of rehashing the key, and entries shard across 16 locks so
// unrelated branches never serialize on one mutex.
type memoCache struct {
	keys    symbol.Table
	shards  [16]memoShard
	hits    atomic.Int64
	entries atomic.Int64
}

type memoShard struct {
	mu sync.RWMutex
	m  map[symbol.ID][]*gozx.Scalar
}

// NewMemoCache returns an empty in-memory decomposition cache.
func NewMemoCache() (gozx.DecompCache, error) {
	tableOpts := memory_table.DefaultOpts()
	keys, err := tableOpts.CreateTable()
	if err != nil {
		return nil, err
	}
	mc := &memoCache{keys: keys}
	for i := range mc.shards {
		mc.shards[i].m = make(map[symbol.ID][]*gozx.Scalar)
	}
	return mc, nil
}

func (mc *memoCache) Lookup(key []byte) ([]*gozx.Scalar, bool) {
	id := mc.keys.GetSymbolID(key, false)
	if id == 0 {
		return nil, false
	}
	sh := &mc.shards[uint64(id)&15]
	sh.mu.RLock()
	rel, ok := sh.m[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}
	mc.hits.Add(1)
	out := make([]*gozx.Scalar, len(rel))
	for i, s := range rel {
		out[i] = s.Copy()
	}
	return out, true
}

func (mc *memoCache) Store(key []byte, rel []*gozx.Scalar) {
	id := mc.keys.GetSymbolID(key, true)
	kept := make([]*gozx.Scalar, len(rel))
	for i, s := range rel {
		kept[i] = s.Copy()
	}
	sh := &mc.shards[uint64(id)&15]
	sh.mu.Lock()
	if _, exists := sh.m[id]; !exists {
		sh.m[id] = kept
		mc.entries.Add(1)
	}
	sh.mu.Unlock()
}

func (mc *memoCache) Hits() int64 {
	return mc.hits.Load()
}

func (mc *memoCache) Entries() int64 {
	return mc.entries.Load()
}
