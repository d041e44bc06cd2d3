package ledger

import (
	"github.com/holiman/uint256"
)

// Memory is an in-memory Ledger. It is not safe for concurrent use; callers
// serialize access the same way they serialize pool operations.
type Memory struct {
	balances map[string]map[string]*uint256.Int // token -> account -> balance
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]map[string]*uint256.Int)}
}

// Mint credits amount of token to account, registering the token if needed.
func (m *Memory) Mint(token, account string, amount *uint256.Int) {
	accounts, ok := m.balances[token]
	if !ok {
		accounts = make(map[string]*uint256.Int)
		m.balances[token] = accounts
	}
	balance, ok := accounts[account]
	if !ok {
		balance = new(uint256.Int)
		accounts[account] = balance
	}
	balance.Add(balance, amount)
}

// BalanceOf implements Ledger.
func (m *Memory) BalanceOf(token, account string) *uint256.Int {
	if accounts, ok := m.balances[token]; ok {
		if balance, ok := accounts[account]; ok {
			return new(uint256.Int).Set(balance)
		}
	}
	return new(uint256.Int)
}

// Transfer implements Ledger.
func (m *Memory) Transfer(token, from, to string, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	accounts, ok := m.balances[token]
	if !ok {
		return ErrUnknownToken
	}
	balance, ok := accounts[from]
	if !ok || balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	balance.Sub(balance, amount)
	dest, ok := accounts[to]
	if !ok {
		dest = new(uint256.Int)
		accounts[to] = dest
	}
	dest.Add(dest, amount)
	return nil
}

// TransferAndNotify implements Ledger. The transfer happens before the
// callback, matching token standards where the receiver observes its balance
// already credited; unused amounts are refunded afterwards.
func (m *Memory) TransferAndNotify(token, from, to string, amount *uint256.Int, memo string, recv Receiver) (*uint256.Int, error) {
	if err := m.Transfer(token, from, to, amount); err != nil {
		return nil, err
	}
	used, err := recv.OnTransfer(token, from, amount, memo)
	if err != nil {
		// Receiver rejected the transfer outright; return everything.
		if rerr := m.Transfer(token, to, from, amount); rerr != nil {
			return nil, rerr
		}
		return new(uint256.Int).Set(amount), err
	}
	unused := new(uint256.Int).Sub(amount, used)
	if unused.Sign() < 0 {
		unused.Clear()
	}
	if !unused.IsZero() {
		if err := m.Transfer(token, to, from, unused); err != nil {
			return nil, err
		}
	}
	return unused, nil
}
