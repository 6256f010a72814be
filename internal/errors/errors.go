// internal/errors/errors.go
package appErrors

import "fmt"

// ErrNoWalletProvider means no signing key is configured for the session.
// Surfaced as a user-visible condition, never a crash.
type ErrNoWalletProvider struct{}

func (e *ErrNoWalletProvider) Error() string {
	return "no wallet provider: please connect your wallet to continue"
}

func NewNoWalletProvider() error {
	return &ErrNoWalletProvider{}
}

// ErrUserRejected means the wallet refused the request.
type ErrUserRejected struct {
	Reason string
}

func (e *ErrUserRejected) Error() string {
	return fmt.Sprintf("wallet request rejected: %s", e.Reason)
}

func NewUserRejected(reason string) error {
	return &ErrUserRejected{Reason: reason}
}

// ErrWrongNetwork means the active chain differs from the required one.
// Both sides are named so the message can tell the user what to switch to.
type ErrWrongNetwork struct {
	Active   string
	Required string
}

func (e *ErrWrongNetwork) Error() string {
	return fmt.Sprintf(
		"wrong network: active chain is %s, please switch to the %s network and try again",
		e.Active, e.Required,
	)
}

func NewWrongNetwork(active, required string) error {
	return &ErrWrongNetwork{Active: active, Required: required}
}

// ErrContractRead wraps a failed on-chain read (reverted call or RPC error).
type ErrContractRead struct {
	Reason string
}

func (e *ErrContractRead) Error() string {
	return fmt.Sprintf("contract read failed: %s", e.Reason)
}

func NewContractRead(reason string) error {
	return &ErrContractRead{Reason: reason}
}

// ErrContractWrite wraps a failed on-chain write transaction.
type ErrContractWrite struct {
	Reason string
}

func (e *ErrContractWrite) Error() string {
	return fmt.Sprintf("contract write failed: %s", e.Reason)
}

func NewContractWrite(reason string) error {
	return &ErrContractWrite{Reason: reason}
}

// ErrPersistence means the record store was unreachable or rejected the
// operation. A persistence failure never unwinds an on-chain deployment.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

func NewPersistence(op string, err error) error {
	return &ErrPersistence{Op: op, Err: err}
}

// ErrValidation means a client-side form invariant was violated before any
// network call was made.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ErrValidation{Field: field, Reason: reason}
}

// ErrCampaignNotFound is a sentinel error for a missing campaign record.
type ErrCampaignNotFound struct {
	ID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign %s not found", e.ID)
}

func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{ID: id}
}
