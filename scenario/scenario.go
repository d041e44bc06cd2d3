// Package scenario loads and runs YAML trading scenarios: a set of funded
// accounts, pools to create, and a sequence of mint, swap, burn and collect
// actions executed through the manager. Scenarios drive the simulate command
// and make pool behavior reproducible from a single file.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// ErrUnknownAction is returned for an action type the runner does not know.
var ErrUnknownAction = errors.New("unknown action type")

// Scenario is the root of a scenario file.
type Scenario struct {
	// Accounts maps account names to their starting token balances, as
	// decimal strings per token.
	Accounts map[string]map[string]string `yaml:"accounts"`
	Pools    []PoolSpec                   `yaml:"pools"`
	Actions  []Action                     `yaml:"actions"`
}

// PoolSpec describes one pool to create before the actions run.
type PoolSpec struct {
	TokenA       string `yaml:"token_a"`
	TokenB       string `yaml:"token_b"`
	Fee          uint32 `yaml:"fee"`
	SqrtPriceX96 string `yaml:"sqrt_price_x96"`
}

// Action is one step of a scenario. Type selects the operation; the remaining
// fields are read as that operation needs them.
type Action struct {
	Type    string `yaml:"type"` // mint, swap, burn or collect
	Account string `yaml:"account"`

	TokenA string `yaml:"token_a,omitempty"`
	TokenB string `yaml:"token_b,omitempty"`
	Fee    uint32 `yaml:"fee,omitempty"`

	LowerTick int32 `yaml:"lower_tick,omitempty"`
	UpperTick int32 `yaml:"upper_tick,omitempty"`

	// Mint amounts, in token A and B order.
	AmountADesired string `yaml:"amount_a_desired,omitempty"`
	AmountBDesired string `yaml:"amount_b_desired,omitempty"`
	AmountAMin     string `yaml:"amount_a_min,omitempty"`
	AmountBMin     string `yaml:"amount_b_min,omitempty"`

	// Swap parameters. TokenA is the input token and TokenB the output.
	AmountIn     string `yaml:"amount_in,omitempty"`
	AmountOutMin string `yaml:"amount_out_min,omitempty"`

	// Burn liquidity.
	Liquidity string `yaml:"liquidity,omitempty"`

	// Collect amounts in canonical token order; empty means everything.
	Amount0Max string `yaml:"amount0_max,omitempty"`
	Amount1Max string `yaml:"amount1_max,omitempty"`
	Recipient  string `yaml:"recipient,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, a := range s.Actions {
		switch a.Type {
		case "mint", "swap", "burn", "collect":
		default:
			return nil, fmt.Errorf("action %d: %w: %q", i, ErrUnknownAction, a.Type)
		}
	}
	return &s, nil
}

// amount parses a decimal amount field; empty means nil.
func amount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", s, err)
	}
	return v, nil
}
