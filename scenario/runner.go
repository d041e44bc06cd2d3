package scenario

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/clamm/clamm-go/fixedpoint"
	"github.com/clamm/clamm-go/ledger"
	"github.com/clamm/clamm-go/manager"
)

// Runner executes scenarios against a manager and its ledger.
type Runner struct {
	manager *manager.Manager
	ledger  *ledger.Memory
	log     *zap.Logger
}

// NewRunner creates a runner. log may be nil.
func NewRunner(m *manager.Manager, l *ledger.Memory, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{manager: m, ledger: l, log: log}
}

// Run funds the accounts, creates the pools and executes every action in
// order. The first failing step aborts the run.
func (r *Runner) Run(s *Scenario) error {
	for account, balances := range s.Accounts {
		for token, raw := range balances {
			v, err := amount(raw)
			if err != nil {
				return fmt.Errorf("account %s: %w", account, err)
			}
			if v != nil {
				r.ledger.Mint(token, account, v)
			}
		}
	}

	for i, spec := range s.Pools {
		price, err := amount(spec.SqrtPriceX96)
		if err != nil {
			return fmt.Errorf("pool %d: %w", i, err)
		}
		if _, err := r.manager.CreatePool(spec.TokenA, spec.TokenB, spec.Fee, price); err != nil {
			return fmt.Errorf("pool %d (%s/%s): %w", i, spec.TokenA, spec.TokenB, err)
		}
	}

	for i, a := range s.Actions {
		if err := r.runAction(a); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func (r *Runner) runAction(a Action) error {
	switch a.Type {
	case "mint":
		desiredA, err := amount(a.AmountADesired)
		if err != nil {
			return err
		}
		desiredB, err := amount(a.AmountBDesired)
		if err != nil {
			return err
		}
		minA, err := amount(a.AmountAMin)
		if err != nil {
			return err
		}
		minB, err := amount(a.AmountBMin)
		if err != nil {
			return err
		}
		res, err := r.manager.Mint(a.Account, manager.MintParams{
			TokenA: a.TokenA, TokenB: a.TokenB, Fee: a.Fee,
			LowerTick: a.LowerTick, UpperTick: a.UpperTick,
			AmountADesired: desiredA, AmountBDesired: desiredB,
			AmountAMin: minA, AmountBMin: minB,
		})
		if err != nil {
			return err
		}
		r.log.Info("minted",
			zap.String("account", a.Account),
			zap.String("liquidity", res.Liquidity.Dec()),
		)
		return nil

	case "swap":
		in, err := amount(a.AmountIn)
		if err != nil {
			return err
		}
		outMin, err := amount(a.AmountOutMin)
		if err != nil {
			return err
		}
		out, err := r.manager.SwapExactInput(a.Account, manager.SwapParams{
			TokenIn: a.TokenA, TokenOut: a.TokenB, Fee: a.Fee,
			AmountIn: in, AmountOutMin: outMin,
			Recipient: a.Recipient,
		})
		if err != nil {
			return err
		}
		r.log.Info("swapped",
			zap.String("account", a.Account),
			zap.String("amount_out", out.Dec()),
		)
		return nil

	case "burn":
		liquidity, err := amount(a.Liquidity)
		if err != nil {
			return err
		}
		if liquidity == nil {
			liquidity = new(uint256.Int) // a zero burn pokes the position
		}
		amount0, amount1, err := r.manager.Burn(a.Account, a.TokenA, a.TokenB, a.Fee,
			a.LowerTick, a.UpperTick, liquidity)
		if err != nil {
			return err
		}
		r.log.Info("burned",
			zap.String("account", a.Account),
			zap.String("amount0", amount0.Dec()),
			zap.String("amount1", amount1.Dec()),
		)
		return nil

	case "collect":
		max0, err := amount(a.Amount0Max)
		if err != nil {
			return err
		}
		max1, err := amount(a.Amount1Max)
		if err != nil {
			return err
		}
		if max0 == nil {
			max0 = new(uint256.Int).Set(fixedpoint.MaxUint128)
		}
		if max1 == nil {
			max1 = new(uint256.Int).Set(fixedpoint.MaxUint128)
		}
		recipient := a.Recipient
		if recipient == "" {
			recipient = a.Account
		}
		collected0, collected1, err := r.manager.Collect(a.Account, recipient,
			a.TokenA, a.TokenB, a.Fee, a.LowerTick, a.UpperTick, max0, max1)
		if err != nil {
			return err
		}
		r.log.Info("collected",
			zap.String("account", a.Account),
			zap.String("amount0", collected0.Dec()),
			zap.String("amount1", collected1.Dec()),
		)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}
