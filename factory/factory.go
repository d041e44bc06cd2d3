// Package factory creates and indexes pools. Each (token0, token1, fee)
// triple maps to at most one pool, with the token pair stored in canonical
// order so both orderings of a query resolve to the same pool.
package factory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/clamm/clamm-go/ledger"
	"github.com/clamm/clamm-go/pool"
)

var (
	// ErrIdenticalTokens is returned when both sides of the pair are the same token.
	ErrIdenticalTokens = errors.New("identical tokens")
	// ErrEmptyToken is returned when a token identifier is empty.
	ErrEmptyToken = errors.New("empty token")
	// ErrUnsupportedFee is returned for a fee without a registered tick spacing.
	ErrUnsupportedFee = errors.New("unsupported fee")
	// ErrPoolExists is returned when the pair and fee already have a pool.
	ErrPoolExists = errors.New("pool already exists")
)

// PoolKey identifies a pool by its canonically ordered pair and fee.
type PoolKey struct {
	Token0 string
	Token1 string
	Fee    uint32
}

// Factory tracks every pool of a deployment and the supported fee tiers.
type Factory struct {
	ledger   ledger.Ledger
	feeTiers map[uint32]int32 // fee in ppm -> tick spacing
	pools    map[PoolKey]*pool.Pool
}

// New returns a factory with the standard fee tiers: 0.05% at spacing 10,
// 0.3% at spacing 60 and 1% at spacing 200.
func New(l ledger.Ledger) *Factory {
	return &Factory{
		ledger: l,
		feeTiers: map[uint32]int32{
			500:    10,
			3_000:  60,
			10_000: 200,
		},
		pools: make(map[PoolKey]*pool.Pool),
	}
}

// EnableFeeTier registers an additional fee tier. Existing tiers cannot be
// changed.
func (f *Factory) EnableFeeTier(fee uint32, tickSpacing int32) error {
	if _, ok := f.feeTiers[fee]; ok {
		return ErrUnsupportedFee
	}
	if tickSpacing <= 0 {
		return ErrUnsupportedFee
	}
	f.feeTiers[fee] = tickSpacing
	return nil
}

// TickSpacing returns the tick spacing of a fee tier.
func (f *Factory) TickSpacing(fee uint32) (int32, bool) {
	spacing, ok := f.feeTiers[fee]
	return spacing, ok
}

// CreatePool creates the pool for a pair and fee. The tokens may be given in
// either order. The new pool is uninitialized; a starting price must be set
// before it can be used.
func (f *Factory) CreatePool(tokenA, tokenB string, fee uint32) (*pool.Pool, error) {
	key, err := f.key(tokenA, tokenB, fee)
	if err != nil {
		return nil, err
	}
	if _, ok := f.pools[key]; ok {
		return nil, ErrPoolExists
	}
	spacing := f.feeTiers[fee]

	p := pool.New(poolAccount(key), pool.Config{
		Token0:      key.Token0,
		Token1:      key.Token1,
		Fee:         fee,
		TickSpacing: spacing,
	}, f.ledger)
	f.pools[key] = p
	return p, nil
}

// Pool returns the pool for a pair and fee, in either token order.
func (f *Factory) Pool(tokenA, tokenB string, fee uint32) (*pool.Pool, bool) {
	key, err := f.key(tokenA, tokenB, fee)
	if err != nil {
		return nil, false
	}
	p, ok := f.pools[key]
	return p, ok
}

// Pools returns the keys of every pool, sorted for deterministic iteration.
func (f *Factory) Pools() []PoolKey {
	keys := make([]PoolKey, 0, len(f.pools))
	for key := range f.pools {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Token0 != keys[j].Token0 {
			return keys[i].Token0 < keys[j].Token0
		}
		if keys[i].Token1 != keys[j].Token1 {
			return keys[i].Token1 < keys[j].Token1
		}
		return keys[i].Fee < keys[j].Fee
	})
	return keys
}

func (f *Factory) key(tokenA, tokenB string, fee uint32) (PoolKey, error) {
	if tokenA == "" || tokenB == "" {
		return PoolKey{}, ErrEmptyToken
	}
	if tokenA == tokenB {
		return PoolKey{}, ErrIdenticalTokens
	}
	if _, ok := f.feeTiers[fee]; !ok {
		return PoolKey{}, ErrUnsupportedFee
	}
	if tokenB < tokenA {
		tokenA, tokenB = tokenB, tokenA
	}
	return PoolKey{Token0: tokenA, Token1: tokenB, Fee: fee}, nil
}

// poolAccount derives the ledger account custodying a pool's funds.
func poolAccount(key PoolKey) string {
	return fmt.Sprintf("pool.%s.%s.%d", key.Token0, key.Token1, key.Fee)
}
