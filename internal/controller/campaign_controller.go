// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xefers/xefers-backend/internal/chain"
	appErrors "github.com/xefers/xefers-backend/internal/errors"
	"github.com/xefers/xefers-backend/internal/service"
)

type CampaignController struct {
	CampaignService  *service.CampaignService
	AnalyticsService *service.AnalyticsService
}

func (c *CampaignController) Home(w http.ResponseWriter, r *http.Request) {
	info := chain.Default()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"app":          "xefers-backend",
		"description":  "Multi-chain referral link tracking",
		"defaultChain": info.Name,
		"chains":       chain.All(),
	})
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.ChainID == 0 {
		body.ChainID = chain.Default().ID
	}

	result, err := c.CampaignService.Create(r.Context(), body, requestOrigin(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query parameter is required", http.StatusBadRequest)
		return
	}

	campaigns, err := c.CampaignService.ListByOwner(owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": campaigns,
	})
}

// GetCampaign returns one campaign record together with the title the
// contract reports now and the referrals recorded against it.
func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	detail, err := c.CampaignService.Get(r.Context(), address)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	referrals, err := c.AnalyticsService.ContractReferrals(address)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaign":     detail.Campaign,
		"onChainTitle": detail.OnChainTitle,
		"referrals":    referrals,
	})
}

func (c *CampaignController) FundCampaign(w http.ResponseWriter, r *http.Request) {
	contractAddress := chi.URLParam(r, "address")

	var body struct {
		Amount  decimal.Decimal `json:"amount"`
		ChainID int64           `json:"chainId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.ChainID == 0 {
		body.ChainID = chain.Default().ID
	}

	txHash, err := c.CampaignService.Fund(r.Context(), contractAddress, body.Amount, body.ChainID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"txHash": txHash,
	})
}

func (c *CampaignController) History(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	info := chain.Default()
	if v := r.URL.Query().Get("chainId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid chainId", http.StatusBadRequest)
			return
		}
		found, ok := chain.Lookup(id)
		if !ok {
			http.Error(w, "unsupported network", http.StatusBadRequest)
			return
		}
		info = found
	}

	counts, err := c.AnalyticsService.DailyActivity(r.Context(), address, info)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"address": address,
		"chainId": info.ID,
		"daily":   counts,
	})
}

// requestOrigin resolves the origin used to build shareable links.
func requestOrigin(r *http.Request) string {
	if origin := os.Getenv("XEFERS_ORIGIN"); origin != "" {
		return origin
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return "http://" + r.Host
}

// writeServiceError maps the failure taxonomy onto HTTP statuses. Messages
// pass through verbatim; the user retries with a new explicit action.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation  *appErrors.ErrValidation
		notFound    *appErrors.ErrCampaignNotFound
		wrongNet    *appErrors.ErrWrongNetwork
		noProvider  *appErrors.ErrNoWalletProvider
		rejected    *appErrors.ErrUserRejected
		readFail    *appErrors.ErrContractRead
		writeFail   *appErrors.ErrContractWrite
		persistence *appErrors.ErrPersistence
	)

	switch {
	case errors.As(err, &validation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &wrongNet):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &noProvider):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &rejected):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &readFail), errors.As(err, &writeFail):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.As(err, &persistence):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
