// internal/service/redemption.go
package service

import (
	"context"
	"sync"

	"github.com/xefers/xefers-backend/internal/contract"
	appErrors "github.com/xefers/xefers-backend/internal/errors"
	"github.com/xefers/xefers-backend/internal/model"
)

type RedemptionState string

const (
	StateUnauthenticated RedemptionState = "unauthenticated"
	StateLoading         RedemptionState = "loading"
	StateReady           RedemptionState = "ready"
	StateRedeeming       RedemptionState = "redeeming"
	StateRedeemed        RedemptionState = "redeemed"
	StateErrored         RedemptionState = "errored"
)

const walletPrompt = "Please connect your wallet to continue."

// Redemption tracks one redemption page instance, keyed by
// (contractAddress, viewerAccount). Transitions fire only on account
// changes and explicit continue actions; there is no automatic retry.
type Redemption struct {
	mu sync.Mutex

	ContractAddress string
	Account         string

	gateway contract.GatewayInterface

	state   RedemptionState
	meta    *model.LinkMetadata
	failure FailureKind
	reason  string
	txHash  string

	// epoch guards against stale async results: it advances whenever the
	// instance is reset, and a result dispatched under an older epoch is
	// dropped on resolution.
	epoch int
}

// RedemptionView is the rendered snapshot of a redemption instance.
type RedemptionView struct {
	ContractAddress string              `json:"contractAddress"`
	Account         string              `json:"account,omitempty"`
	State           RedemptionState     `json:"state"`
	Metadata        *model.LinkMetadata `json:"metadata,omitempty"`
	Reason          string              `json:"reason,omitempty"`
	AlreadyReferred bool                `json:"alreadyReferred"`
	WalletRequired  bool                `json:"walletRequired"`
	CanContinue     bool                `json:"canContinue"`
	RedirectURL     string              `json:"redirectUrl,omitempty"`
	TxHash          string              `json:"txHash,omitempty"`
}

func newRedemption(gateway contract.GatewayInterface, contractAddress, account string) *Redemption {
	r := &Redemption{
		ContractAddress: contractAddress,
		Account:         account,
		gateway:         gateway,
		state:           StateUnauthenticated,
	}
	if account == "" {
		r.reason = walletPrompt
	}
	return r
}

// Load fetches the campaign metadata. Without a bound account the machine
// stays Unauthenticated and no contract read fires.
func (r *Redemption) Load(ctx context.Context) {
	r.mu.Lock()
	if r.Account == "" {
		r.state = StateUnauthenticated
		r.reason = walletPrompt
		r.mu.Unlock()
		return
	}
	if r.state != StateUnauthenticated && r.state != StateLoading {
		// Already past loading for this (contract, account) pair.
		r.mu.Unlock()
		return
	}
	r.state = StateLoading
	epoch := r.epoch
	contractAddr := r.ContractAddress
	r.mu.Unlock()

	meta, err := r.gateway.GetMetadata(ctx, contractAddr)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch || r.ContractAddress != contractAddr {
		return // instance was reset while the read was in flight
	}

	if err != nil {
		r.failure, r.reason = ClassifyRPCError(err)
		r.state = StateErrored
		return
	}
	r.meta = meta
	r.state = StateReady
	r.failure = FailureGeneric
	r.reason = ""
}

// Continue is the user's explicit trigger for the on-chain refer call.
// Re-entrant triggers are rejected while the write is in flight.
func (r *Redemption) Continue(ctx context.Context) (string, error) {
	r.mu.Lock()
	switch r.state {
	case StateRedeeming:
		r.mu.Unlock()
		return "", appErrors.NewContractWrite("a redemption is already in progress")
	case StateReady:
		// proceed
	default:
		state := r.state
		r.mu.Unlock()
		return "", appErrors.NewContractWrite("redemption is not ready (state: " + string(state) + ")")
	}
	r.state = StateRedeeming
	epoch := r.epoch
	contractAddr := r.ContractAddress
	r.mu.Unlock()

	txHash, err := r.gateway.Refer(ctx, contractAddr)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch || r.ContractAddress != contractAddr {
		return "", appErrors.NewContractWrite("redemption was superseded")
	}

	if err != nil {
		r.failure, r.reason = ClassifyRPCError(err)
		r.state = StateErrored
		return "", err
	}
	r.txHash = txHash
	r.state = StateRedeemed
	return r.fullRedirectURLLocked(), nil
}

// BindAccount rebinds the viewer account, resetting the machine so the
// next Load starts fresh. Late results from the previous binding are
// dropped via the epoch guard.
func (r *Redemption) BindAccount(account string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account == r.Account {
		return
	}
	r.Account = account
	r.epoch++
	r.meta = nil
	r.txHash = ""
	r.failure = FailureGeneric
	if account == "" {
		r.state = StateUnauthenticated
		r.reason = walletPrompt
	} else {
		r.state = StateUnauthenticated
		r.reason = ""
	}
}

// Snapshot renders the current state for the caller. The continue
// affordance stays available after an "already referred" failure because
// the destination itself remains valid.
func (r *Redemption) Snapshot() RedemptionView {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := RedemptionView{
		ContractAddress: r.ContractAddress,
		Account:         r.Account,
		State:           r.state,
		Metadata:        r.meta,
		Reason:          r.reason,
		AlreadyReferred: r.state == StateErrored && r.failure == FailureAlreadyReferred,
		WalletRequired:  r.state == StateUnauthenticated || (r.state == StateErrored && r.failure == FailureWalletRequired),
		TxHash:          r.txHash,
	}

	switch {
	case r.state == StateReady:
		view.CanContinue = true
	case view.AlreadyReferred && r.meta != nil:
		// Repeat visits may still follow the destination manually.
		view.CanContinue = true
		view.RedirectURL = r.fullRedirectURLLocked()
	}
	if r.state == StateRedeemed {
		view.RedirectURL = r.fullRedirectURLLocked()
	}
	return view
}

func (r *Redemption) fullRedirectURLLocked() string {
	base := ""
	if r.meta != nil {
		base = r.meta.RedirectURL
	}
	return FullRedirectURL(base, r.Account)
}

// RedemptionManager hands out one machine per (contract, account) pair.
type RedemptionManager struct {
	mu        sync.Mutex
	gateway   contract.GatewayInterface
	instances map[string]*Redemption
}

func NewRedemptionManager(gateway contract.GatewayInterface) *RedemptionManager {
	return &RedemptionManager{
		gateway:   gateway,
		instances: make(map[string]*Redemption),
	}
}

func (m *RedemptionManager) Get(contractAddress, account string) *Redemption {
	key := contractAddress + "|" + account

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.instances[key]; ok {
		return r
	}
	r := newRedemption(m.gateway, contractAddress, account)
	m.instances[key] = r
	return r
}
