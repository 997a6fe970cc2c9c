/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/waywedo/Streamstone/table"
)

// ResolveShard maps a stream id onto a shard index in [0, shardCount). The
// hash is deterministic and non-cryptographic, so the same id resolves to
// the same shard on every host.
func ResolveShard(streamID string, shardCount int) int {
	if shardCount < 1 {
		panic(fmt.Sprintf("shard: shardCount must be positive, got %d", shardCount))
	}
	return int(xxhash.Sum64String(streamID) % uint64(shardCount))
}

// AccountPool is a thread-safe set of table handles backing a horizontally
// partitioned deployment. Streams are spread over the registered tables by
// ResolveShard; resolution is stable as long as the registration order and
// count stay fixed.
type AccountPool struct {
	mu       sync.RWMutex
	accounts []table.Table
}

// NewAccountPool creates a pool over the given tables.
func NewAccountPool(accounts ...table.Table) *AccountPool {
	return &AccountPool{accounts: accounts}
}

// Add registers another table with the pool. Adding a table reshuffles
// which streams resolve where; do it only before the pool is in use.
func (p *AccountPool) Add(t table.Table) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts = append(p.accounts, t)
}

// Len reports the number of registered tables.
func (p *AccountPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.accounts)
}

// Resolve returns the table owning the given stream id.
func (p *AccountPool) Resolve(streamID string) (table.Table, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.accounts) == 0 {
		return nil, fmt.Errorf("account pool is empty")
	}
	return p.accounts[ResolveShard(streamID, len(p.accounts))], nil
}

// Partition resolves the stream id to a table and returns the partition
// addressing it there.
func (p *AccountPool) Partition(streamID string) (*Partition, error) {
	t, err := p.Resolve(streamID)
	if err != nil {
		return nil, err
	}
	return NewPartition(t, streamID), nil
}
