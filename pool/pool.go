// Package pool implements a single concentrated-liquidity trading pair. A
// Pool owns its tick table, tick bitmap, positions and fee accumulators, and
// custodies tokens through a ledger account. Every mutating operation
// validates and stages its effects before touching state, so a failed call
// leaves the pool exactly as it was.
package pool

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/ledger"
	"github.com/clamm/clamm-go/position"
	"github.com/clamm/clamm-go/tick"
	"github.com/clamm/clamm-go/tickbitmap"
	"github.com/clamm/clamm-go/tickmath"
)

var (
	// ErrAlreadyInitialized is returned when Initialize is called twice.
	ErrAlreadyInitialized = errors.New("already initialized")
	// ErrNotInitialized is returned when an operation requires a price.
	ErrNotInitialized = errors.New("not initialized")
	// ErrInvalidTickRange is returned for a malformed or out-of-bounds tick range.
	ErrInvalidTickRange = errors.New("invalid tick range")
	// ErrZeroLiquidity is returned when a mint or burn specifies no liquidity.
	ErrZeroLiquidity = errors.New("zero liquidity")
	// ErrZeroAmount is returned when a swap specifies no amount.
	ErrZeroAmount = errors.New("amount specified is zero")
	// ErrInsufficientInput is returned when the caller's deposits do not
	// cover the tokens owed to the pool.
	ErrInsufficientInput = errors.New("insufficient input amount")
	// ErrInvalidPriceLimit is returned when a swap's price limit is on the
	// wrong side of the current price or outside the representable range.
	ErrInvalidPriceLimit = errors.New("invalid price limit")
	// ErrNotEnoughLiquidity is returned when a swap runs out of liquidity
	// before satisfying the specified amount.
	ErrNotEnoughLiquidity = errors.New("not enough liquidity")
	// ErrPositionNotFound is returned when collecting from an unknown position.
	ErrPositionNotFound = errors.New("position not found")
	// ErrUnknownToken is returned for a token the pool does not trade.
	ErrUnknownToken = errors.New("unknown token")
)

// Config identifies a pool: its token pair and fee tier. Token0 must sort
// before Token1; the factory enforces the canonical order.
type Config struct {
	Token0      string
	Token1      string
	Fee         uint32 // in ppm
	TickSpacing int32
}

// Pool is the full state of one trading pair at one fee tier.
type Pool struct {
	cfg     Config
	account string // the pool's own ledger account
	ledger  ledger.Ledger

	sqrtPriceX96 *uint256.Int
	currentTick  int32
	initialized  bool

	liquidity            *uint256.Int
	feeGrowthGlobal0X128 *uint256.Int
	feeGrowthGlobal1X128 *uint256.Int

	ticks     *tick.Registry
	bitmap    *tickbitmap.Bitmap
	positions map[common.Hash]*position.Info

	// Per-account token deposits awaiting use by Mint or Swap.
	deposited0 map[string]*uint256.Int
	deposited1 map[string]*uint256.Int

	maxLiquidityPerTick *uint256.Int
}

// New creates an uninitialized pool custodying funds under the given ledger
// account. No operations other than Initialize and deposits are valid until
// a starting price is set.
func New(account string, cfg Config, l ledger.Ledger) *Pool {
	return &Pool{
		cfg:                  cfg,
		account:              account,
		ledger:               l,
		sqrtPriceX96:         new(uint256.Int),
		liquidity:            new(uint256.Int),
		feeGrowthGlobal0X128: new(uint256.Int),
		feeGrowthGlobal1X128: new(uint256.Int),
		ticks:                tick.NewRegistry(),
		bitmap:               tickbitmap.New(),
		positions:            make(map[common.Hash]*position.Info),
		deposited0:           make(map[string]*uint256.Int),
		deposited1:           make(map[string]*uint256.Int),
		maxLiquidityPerTick:  tick.SpacingToMaxLiquidityPerTick(cfg.TickSpacing),
	}
}

// Config returns the pool's pair and fee configuration.
func (p *Pool) Config() Config { return p.cfg }

// Account returns the pool's ledger account.
func (p *Pool) Account() string { return p.account }

// Initialize sets the starting price. It may be called exactly once.
func (p *Pool) Initialize(sqrtPriceX96 *uint256.Int) error {
	if p.initialized {
		return ErrAlreadyInitialized
	}
	t, err := tickmath.GetTickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return err
	}
	p.sqrtPriceX96.Set(sqrtPriceX96)
	p.currentTick = t
	p.initialized = true
	return nil
}

// Slot0 returns the current sqrt price, tick and whether the pool is
// initialized.
func (p *Pool) Slot0() (*uint256.Int, int32, bool) {
	return new(uint256.Int).Set(p.sqrtPriceX96), p.currentTick, p.initialized
}

// Liquidity returns the liquidity active at the current price.
func (p *Pool) Liquidity() *uint256.Int {
	return new(uint256.Int).Set(p.liquidity)
}

// FeeGrowthGlobal returns the global fee growth accumulators, per token, in
// UQ128.128 per unit of liquidity.
func (p *Pool) FeeGrowthGlobal() (*uint256.Int, *uint256.Int) {
	return new(uint256.Int).Set(p.feeGrowthGlobal0X128), new(uint256.Int).Set(p.feeGrowthGlobal1X128)
}

// MaxLiquidityPerTick returns the per-tick liquidity cap for this pool's
// tick spacing.
func (p *Pool) MaxLiquidityPerTick() *uint256.Int {
	return new(uint256.Int).Set(p.maxLiquidityPerTick)
}

// Tick returns the registry state of a single tick, for introspection.
func (p *Pool) Tick(t int32) (*tick.Info, bool) {
	return p.ticks.Get(t)
}

// Position returns a position's state, or false if it does not exist.
func (p *Pool) Position(owner string, lowerTick, upperTick int32) (*position.Info, bool) {
	pos, ok := p.positions[position.Key(owner, lowerTick, upperTick)]
	return pos, ok
}

// OnTransfer implements ledger.Receiver: tokens sent to the pool's account
// are credited to the sender's deposit balance, to be drawn on by Mint and
// Swap. The full amount is always used.
func (p *Pool) OnTransfer(token, sender string, amount *uint256.Int, memo string) (*uint256.Int, error) {
	switch token {
	case p.cfg.Token0:
		creditDeposit(p.deposited0, sender, amount)
	case p.cfg.Token1:
		creditDeposit(p.deposited1, sender, amount)
	default:
		return new(uint256.Int), ErrUnknownToken
	}
	return new(uint256.Int).Set(amount), nil
}

// DepositOf returns an account's unused deposits, per token.
func (p *Pool) DepositOf(account string) (*uint256.Int, *uint256.Int) {
	return depositOf(p.deposited0, account), depositOf(p.deposited1, account)
}

// WithdrawDeposits returns an account's unused deposits to it through the
// ledger and reports the amounts moved.
func (p *Pool) WithdrawDeposits(account string) (*uint256.Int, *uint256.Int, error) {
	amount0 := depositOf(p.deposited0, account)
	amount1 := depositOf(p.deposited1, account)
	if !amount0.IsZero() {
		if err := p.ledger.Transfer(p.cfg.Token0, p.account, account, amount0); err != nil {
			return nil, nil, err
		}
		delete(p.deposited0, account)
	}
	if !amount1.IsZero() {
		if err := p.ledger.Transfer(p.cfg.Token1, p.account, account, amount1); err != nil {
			return nil, nil, err
		}
		delete(p.deposited1, account)
	}
	return amount0, amount1, nil
}

func creditDeposit(deposits map[string]*uint256.Int, account string, amount *uint256.Int) {
	balance, ok := deposits[account]
	if !ok {
		balance = new(uint256.Int)
		deposits[account] = balance
	}
	balance.Add(balance, amount)
}

func depositOf(deposits map[string]*uint256.Int, account string) *uint256.Int {
	if balance, ok := deposits[account]; ok {
		return new(uint256.Int).Set(balance)
	}
	return new(uint256.Int)
}

func debitDeposit(deposits map[string]*uint256.Int, account string, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	balance, ok := deposits[account]
	if !ok || balance.Lt(amount) {
		return ErrInsufficientInput
	}
	balance.Sub(balance, amount)
	if balance.IsZero() {
		delete(deposits, account)
	}
	return nil
}

// checkTicks validates a position's tick range against the pool's spacing
// and the global tick bounds.
func (p *Pool) checkTicks(lowerTick, upperTick int32) error {
	if lowerTick >= upperTick {
		return ErrInvalidTickRange
	}
	if lowerTick < tickmath.MinTick || upperTick > tickmath.MaxTick {
		return ErrInvalidTickRange
	}
	if lowerTick%p.cfg.TickSpacing != 0 || upperTick%p.cfg.TickSpacing != 0 {
		return tickbitmap.ErrTickNotSpaced
	}
	return nil
}
