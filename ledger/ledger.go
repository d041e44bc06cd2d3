// Package ledger abstracts token custody. The pool and manager never hold
// token state themselves; every balance change goes through a Ledger, which
// in production fronts the token contracts and in tests is an in-memory map.
package ledger

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnknownToken is returned for a token the ledger does not track.
	ErrUnknownToken = errors.New("unknown token")
)

// Receiver is implemented by accounts that accept notified transfers. The
// implementation returns how much of the transferred amount it kept; the
// remainder is returned to the sender.
type Receiver interface {
	OnTransfer(token, sender string, amount *uint256.Int, memo string) (used *uint256.Int, err error)
}

// Ledger moves token balances between accounts. Amounts are unsigned 128-bit
// values carried in 256-bit words.
type Ledger interface {
	// BalanceOf returns the balance of account in token. Unknown accounts
	// have a zero balance.
	BalanceOf(token, account string) *uint256.Int
	// Transfer moves amount of token from one account to another.
	Transfer(token, from, to string, amount *uint256.Int) error
	// TransferAndNotify moves amount to the receiver's account and invokes
	// its OnTransfer callback. Any amount the receiver does not use is
	// credited back to the sender; the unused amount is returned.
	TransferAndNotify(token, from, to string, amount *uint256.Int, memo string, recv Receiver) (*uint256.Int, error)
}
