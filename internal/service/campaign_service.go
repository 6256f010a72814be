// internal/service/campaign_service.go
package service

import (
	"context"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xefers/xefers-backend/internal/chain"
	"github.com/xefers/xefers-backend/internal/contract"
	appErrors "github.com/xefers/xefers-backend/internal/errors"
	"github.com/xefers/xefers-backend/internal/model"
	"github.com/xefers/xefers-backend/internal/repository"
	"github.com/xefers/xefers-backend/internal/wallet"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Gateway      contract.GatewayInterface
	Session      wallet.SessionInterface
}

type CreateCampaignRequest struct {
	Title         string          `json:"title"`
	RedirectURL   string          `json:"redirectUrl"`
	Reward        decimal.Decimal `json:"reward"`
	RewardChecked bool            `json:"rewardChecked"`
	ChainID       int64           `json:"chainId"`
}

type CreateCampaignResult struct {
	Campaign    model.Campaign `json:"campaign"`
	ShareURL    string         `json:"shareUrl"`
	ContractURL string         `json:"contractUrl"`
	TxHash      string         `json:"txHash"`
	// Persisted is false when the record store write failed after a
	// successful deployment. The deployment still counts as success.
	Persisted bool `json:"persisted"`
}

// Create runs the campaign creation flow: validate locally, verify the
// network, deploy, then persist best-effort. Validation failures never
// reach the network layer, and a persistence failure never rolls back a
// deployment; the two systems share no transaction.
func (s *CampaignService) Create(ctx context.Context, req CreateCampaignRequest, origin string) (*CreateCampaignResult, error) {
	title := strings.TrimSpace(req.Title)
	redirect := model.NormalizeRedirectURL(req.RedirectURL)
	if title == "" || !model.IsValidURL(redirect) {
		return nil, appErrors.NewValidation("form", "please provide a link page title and valid redirect URL")
	}

	info, ok := chain.Lookup(req.ChainID)
	if !ok {
		return nil, appErrors.NewValidation("chainId", "unsupported network")
	}

	// A disabled reward is always recorded as zero, even when stale text
	// was left in the reward input.
	reward := decimal.Zero
	if req.RewardChecked {
		reward = req.Reward
		if reward.IsNegative() {
			return nil, appErrors.NewValidation("reward", "must not be negative")
		}
	}

	owner, err := s.activeAccount()
	if err != nil {
		return nil, err
	}

	if err := s.Session.EnsureNetwork(ctx, info); err != nil {
		return nil, err
	}

	address, txHash, err := s.Gateway.Deploy(ctx, title, toWei(reward), redirect)
	if err != nil {
		return nil, err
	}

	id := address
	if id == "" {
		id = model.FallbackID(time.Now())
	}

	campaign := model.Campaign{
		ID:          id,
		Title:       title,
		RedirectURL: redirect,
		Reward:      reward,
		Owner:       owner,
		ChainID:     info.ID,
		CreatedAt:   time.Now(),
	}

	result := &CreateCampaignResult{
		Campaign:    campaign,
		ShareURL:    ShareLink(origin, id),
		ContractURL: chain.ExplorerURL(info, id, false),
		TxHash:      txHash,
		Persisted:   true,
	}

	if err := s.CampaignRepo.Create(&campaign); err != nil {
		log.Println("⚠️ failed to persist campaign record:", err)
		result.Persisted = false
	}
	result.Campaign = campaign

	return result, nil
}

// ListByOwner returns the caller's campaigns; an owner with none gets an
// empty slice.
func (s *CampaignService) ListByOwner(owner string) ([]model.Campaign, error) {
	return s.CampaignRepo.ListByOwner(owner)
}

// CampaignDetail pairs the stored record with the contract's live title.
type CampaignDetail struct {
	Campaign     model.Campaign `json:"campaign"`
	OnChainTitle string         `json:"onChainTitle,omitempty"`
}

// Get looks up one campaign and enriches it with the title the contract
// reports right now. A failed chain read degrades to the stored record.
func (s *CampaignService) Get(ctx context.Context, id string) (*CampaignDetail, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	detail := &CampaignDetail{Campaign: *campaign}
	title, err := s.Gateway.GetTitle(ctx, campaign.ID)
	if err != nil {
		log.Println("⚠️ failed to read on-chain title:", err)
	} else {
		detail.OnChainTitle = title
	}
	return detail, nil
}

// Fund sends the reward pool top-up transaction.
func (s *CampaignService) Fund(ctx context.Context, contractAddress string, amount decimal.Decimal, chainID int64) (string, error) {
	info, ok := chain.Lookup(chainID)
	if !ok {
		return "", appErrors.NewValidation("chainId", "unsupported network")
	}
	if amount.Sign() <= 0 {
		return "", appErrors.NewValidation("amount", "must be positive")
	}

	if err := s.Session.EnsureNetwork(ctx, info); err != nil {
		return "", err
	}
	return s.Gateway.Fund(ctx, contractAddress, toWei(amount))
}

func (s *CampaignService) activeAccount() (string, error) {
	if accounts := s.Session.CurrentAccounts(); len(accounts) > 0 {
		return accounts[0], nil
	}
	return s.Session.Connect()
}

// toWei converts a native-unit amount to its 18-decimal integer form.
func toWei(amount decimal.Decimal) *big.Int {
	return amount.Mul(decimal.New(1, 18)).BigInt()
}
