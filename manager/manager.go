// Package manager is the user-facing layer over the factory and pools. It
// funds pool deposits through the ledger, converts desired token amounts
// into liquidity, enforces slippage bounds, and returns unused balances, so
// callers never touch pool deposits directly.
package manager

import (
	"errors"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/clamm/clamm-go/factory"
	"github.com/clamm/clamm-go/ledger"
	"github.com/clamm/clamm-go/liquiditymath"
	"github.com/clamm/clamm-go/pool"
	"github.com/clamm/clamm-go/position"
	"github.com/clamm/clamm-go/sqrtpricemath"
	"github.com/clamm/clamm-go/tickmath"
)

var (
	// ErrPoolNotFound is returned when no pool exists for the pair and fee.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrInvalidPair is returned when the tokens do not form the pool's pair.
	ErrInvalidPair = errors.New("invalid token pair")
	// ErrSlippage is returned when an operation would violate its min/max
	// amount bounds. Nothing is transferred.
	ErrSlippage = errors.New("slippage bounds exceeded")
)

const depositMemo = "deposit"

// Manager wires the factory, the ledger and the pools together.
type Manager struct {
	factory *factory.Factory
	ledger  ledger.Ledger
	log     *zap.Logger
	metrics *Metrics
}

// New creates a manager. log may be nil for no logging and metrics may be
// nil for unregistered metrics.
func New(f *factory.Factory, l ledger.Ledger, log *zap.Logger, metrics *Metrics) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Manager{factory: f, ledger: l, log: log, metrics: metrics}
}

// CreatePool creates and initializes a pool at the given starting price.
func (m *Manager) CreatePool(tokenA, tokenB string, fee uint32, sqrtPriceX96 *uint256.Int) (*pool.Pool, error) {
	p, err := m.factory.CreatePool(tokenA, tokenB, fee)
	if err != nil {
		m.metrics.OpFailures.WithLabelValues("create_pool").Inc()
		return nil, err
	}
	if err := p.Initialize(sqrtPriceX96); err != nil {
		m.metrics.OpFailures.WithLabelValues("create_pool").Inc()
		return nil, err
	}
	cfg := p.Config()
	m.metrics.PoolsCreated.Inc()
	m.log.Info("pool created",
		zap.String("token0", cfg.Token0),
		zap.String("token1", cfg.Token1),
		zap.Uint32("fee", cfg.Fee),
		zap.String("sqrt_price_x96", sqrtPriceX96.Dec()),
	)
	return p, nil
}

// MintParams describes a liquidity provision. The tokens may be given in
// either order; desired and minimum amounts follow the order given.
type MintParams struct {
	TokenA, TokenB       string
	Fee                  uint32
	LowerTick, UpperTick int32
	AmountADesired       *uint256.Int
	AmountBDesired       *uint256.Int
	AmountAMin           *uint256.Int
	AmountBMin           *uint256.Int
}

// MintResult reports the liquidity minted and the canonical-order token
// amounts it consumed.
type MintResult struct {
	Liquidity *uint256.Int
	Amount0   *uint256.Int
	Amount1   *uint256.Int
}

// Mint funds the pool from the owner's ledger balances and mints as much
// liquidity as the desired amounts support at the current price. Amounts not
// consumed are returned to the owner. The slippage bounds are checked before
// any tokens move.
func (m *Manager) Mint(owner string, params MintParams) (*MintResult, error) {
	res, err := m.mint(owner, params)
	if err != nil {
		m.metrics.OpFailures.WithLabelValues("mint").Inc()
		return nil, err
	}
	m.metrics.MintsTotal.Inc()
	m.log.Info("liquidity minted",
		zap.String("owner", owner),
		zap.Int32("lower_tick", params.LowerTick),
		zap.Int32("upper_tick", params.UpperTick),
		zap.String("liquidity", res.Liquidity.Dec()),
		zap.String("amount0", res.Amount0.Dec()),
		zap.String("amount1", res.Amount1.Dec()),
	)
	return res, nil
}

func (m *Manager) mint(owner string, params MintParams) (*MintResult, error) {
	p, ok := m.factory.Pool(params.TokenA, params.TokenB, params.Fee)
	if !ok {
		return nil, ErrPoolNotFound
	}
	cfg := p.Config()

	// Reorder the caller's amounts into canonical token order.
	desired0, desired1 := orZero(params.AmountADesired), orZero(params.AmountBDesired)
	min0, min1 := orZero(params.AmountAMin), orZero(params.AmountBMin)
	if params.TokenA != cfg.Token0 {
		desired0, desired1 = desired1, desired0
		min0, min1 = min1, min0
	}

	sqrtPrice, currentTick, initialized := p.Slot0()
	if !initialized {
		return nil, pool.ErrNotInitialized
	}

	var lowerRatio, upperRatio uint256.Int
	if err := tickmath.GetSqrtRatioAtTick(&lowerRatio, params.LowerTick); err != nil {
		return nil, err
	}
	if err := tickmath.GetSqrtRatioAtTick(&upperRatio, params.UpperTick); err != nil {
		return nil, err
	}

	liquidity := new(uint256.Int)
	if err := liquiditymath.GetLiquidityForAmounts(liquidity, sqrtPrice, &lowerRatio, &upperRatio, desired0, desired1); err != nil {
		return nil, err
	}
	if liquidity.IsZero() {
		return nil, pool.ErrZeroLiquidity
	}

	// The amounts the pool will charge are deterministic; check the bounds
	// before moving any tokens.
	expected0, expected1, err := amountsForLiquidity(currentTick, sqrtPrice, params.LowerTick, params.UpperTick, &lowerRatio, &upperRatio, liquidity)
	if err != nil {
		return nil, err
	}
	if expected0.Lt(min0) || expected1.Lt(min1) {
		return nil, ErrSlippage
	}

	if err := m.deposit(p, owner, cfg.Token0, desired0); err != nil {
		return nil, err
	}
	if err := m.deposit(p, owner, cfg.Token1, desired1); err != nil {
		m.refund(p, owner)
		return nil, err
	}

	amount0, amount1, err := p.Mint(owner, params.LowerTick, params.UpperTick, liquidity)
	if err != nil {
		m.refund(p, owner)
		return nil, err
	}

	// Hand back whatever the mint did not consume.
	m.refund(p, owner)
	return &MintResult{Liquidity: liquidity, Amount0: amount0, Amount1: amount1}, nil
}

// SwapParams describes a single-pool exact-input swap.
type SwapParams struct {
	TokenIn, TokenOut string
	Fee               uint32
	AmountIn          *uint256.Int
	AmountOutMin      *uint256.Int
	SqrtPriceLimitX96 *uint256.Int // nil for no limit
	Recipient         string       // defaults to the sender
}

// SwapExactInput sells AmountIn of TokenIn for TokenOut. The minimum output
// is checked against a quote before any tokens move.
func (m *Manager) SwapExactInput(sender string, params SwapParams) (*uint256.Int, error) {
	out, err := m.swapExactInput(sender, params)
	if err != nil {
		m.metrics.OpFailures.WithLabelValues("swap").Inc()
		return nil, err
	}
	m.metrics.SwapsTotal.Inc()
	m.log.Info("swap executed",
		zap.String("sender", sender),
		zap.String("token_in", params.TokenIn),
		zap.String("token_out", params.TokenOut),
		zap.String("amount_in", params.AmountIn.Dec()),
		zap.String("amount_out", out.Dec()),
	)
	return out, nil
}

func (m *Manager) swapExactInput(sender string, params SwapParams) (*uint256.Int, error) {
	p, ok := m.factory.Pool(params.TokenIn, params.TokenOut, params.Fee)
	if !ok {
		return nil, ErrPoolNotFound
	}
	cfg := p.Config()
	if params.TokenIn == params.TokenOut ||
		(params.TokenIn != cfg.Token0 && params.TokenIn != cfg.Token1) ||
		(params.TokenOut != cfg.Token0 && params.TokenOut != cfg.Token1) {
		return nil, ErrInvalidPair
	}
	zeroForOne := params.TokenIn == cfg.Token0

	recipient := params.Recipient
	if recipient == "" {
		recipient = sender
	}

	amount0, amount1, err := p.Quote(zeroForOne, params.AmountIn, params.SqrtPriceLimitX96)
	if err != nil {
		return nil, err
	}
	amountOut := new(uint256.Int)
	if zeroForOne {
		amountOut.Neg(amount1)
	} else {
		amountOut.Neg(amount0)
	}
	if params.AmountOutMin != nil && amountOut.Lt(params.AmountOutMin) {
		return nil, ErrSlippage
	}

	if err := m.deposit(p, sender, params.TokenIn, params.AmountIn); err != nil {
		return nil, err
	}
	if _, _, err := p.Swap(sender, recipient, zeroForOne, params.AmountIn, params.SqrtPriceLimitX96); err != nil {
		m.refund(p, sender)
		return nil, err
	}

	// A price-limited swap may leave input unspent.
	m.refund(p, sender)
	return amountOut, nil
}

// Burn removes liquidity from the owner's position, crediting the freed
// tokens and any accrued fees to the position for later collection.
func (m *Manager) Burn(owner, tokenA, tokenB string, fee uint32, lowerTick, upperTick int32, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	p, ok := m.factory.Pool(tokenA, tokenB, fee)
	if !ok {
		m.metrics.OpFailures.WithLabelValues("burn").Inc()
		return nil, nil, ErrPoolNotFound
	}
	amount0, amount1, err := p.Burn(owner, lowerTick, upperTick, liquidity)
	if err != nil {
		m.metrics.OpFailures.WithLabelValues("burn").Inc()
		return nil, nil, err
	}
	m.metrics.BurnsTotal.Inc()
	m.log.Info("liquidity burned",
		zap.String("owner", owner),
		zap.Int32("lower_tick", lowerTick),
		zap.Int32("upper_tick", upperTick),
		zap.String("amount0", amount0.Dec()),
		zap.String("amount1", amount1.Dec()),
	)
	return amount0, amount1, nil
}

// Position returns the state of an owner's position in a pool.
func (m *Manager) Position(owner, tokenA, tokenB string, fee uint32, lowerTick, upperTick int32) (*position.Info, error) {
	p, ok := m.factory.Pool(tokenA, tokenB, fee)
	if !ok {
		return nil, ErrPoolNotFound
	}
	pos, ok := p.Position(owner, lowerTick, upperTick)
	if !ok {
		return nil, pool.ErrPositionNotFound
	}
	return pos, nil
}

// Collect pays out a position's owed tokens to the recipient.
func (m *Manager) Collect(owner, recipient, tokenA, tokenB string, fee uint32, lowerTick, upperTick int32, requested0, requested1 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	p, ok := m.factory.Pool(tokenA, tokenB, fee)
	if !ok {
		m.metrics.OpFailures.WithLabelValues("collect").Inc()
		return nil, nil, ErrPoolNotFound
	}
	collected0, collected1, err := p.Collect(owner, recipient, lowerTick, upperTick, orZero(requested0), orZero(requested1))
	if err != nil {
		m.metrics.OpFailures.WithLabelValues("collect").Inc()
		return nil, nil, err
	}
	m.metrics.CollectsTotal.Inc()
	m.log.Info("fees collected",
		zap.String("owner", owner),
		zap.String("recipient", recipient),
		zap.String("amount0", collected0.Dec()),
		zap.String("amount1", collected1.Dec()),
	)
	return collected0, collected1, nil
}

// deposit moves tokens from an account into the pool's deposit balance.
func (m *Manager) deposit(p *pool.Pool, account, token string, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	_, err := m.ledger.TransferAndNotify(token, account, p.Account(), amount, depositMemo, p)
	return err
}

// refund returns an account's unused pool deposits. Failures are logged and
// swallowed: the deposits stay withdrawable.
func (m *Manager) refund(p *pool.Pool, account string) {
	if _, _, err := p.WithdrawDeposits(account); err != nil {
		m.log.Warn("deposit refund failed", zap.String("account", account), zap.Error(err))
	}
}

// amountsForLiquidity mirrors the pool's charge calculation for a mint:
// round-up amounts for the given liquidity at the current price.
func amountsForLiquidity(currentTick int32, sqrtPrice *uint256.Int, lowerTick, upperTick int32, lowerRatio, upperRatio, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	amount0 := new(uint256.Int)
	amount1 := new(uint256.Int)
	switch {
	case currentTick < lowerTick:
		if err := sqrtpricemath.GetAmount0Delta(amount0, lowerRatio, upperRatio, liquidity, true); err != nil {
			return nil, nil, err
		}
	case currentTick < upperTick:
		if err := sqrtpricemath.GetAmount0Delta(amount0, sqrtPrice, upperRatio, liquidity, true); err != nil {
			return nil, nil, err
		}
		if err := sqrtpricemath.GetAmount1Delta(amount1, lowerRatio, sqrtPrice, liquidity, true); err != nil {
			return nil, nil, err
		}
	default:
		if err := sqrtpricemath.GetAmount1Delta(amount1, lowerRatio, upperRatio, liquidity, true); err != nil {
			return nil, nil, err
		}
	}
	return amount0, amount1, nil
}

func orZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x
}
