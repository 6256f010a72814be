// internal/model/campaign.go
package model

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xefers/xefers-backend/internal/chain"
	appErrors "github.com/xefers/xefers-backend/internal/errors"
)

// Campaign is the off-chain record describing a deployed referral link.
// Created once at campaign-creation time and never updated afterwards.
type Campaign struct {
	ID          string          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	RedirectURL string          `db:"redirect_url" json:"redirectUrl"`
	Reward      decimal.Decimal `db:"reward" json:"reward"`
	Owner       string          `db:"owner" json:"owner"`
	ChainID     int64           `db:"chain_id" json:"chainId"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// NormalizeRedirectURL prepends http:// when the value carries no scheme.
// Values already containing "://" pass through unchanged.
func NormalizeRedirectURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}

// IsValidURL reports whether link parses as an absolute URL.
func IsValidURL(link string) bool {
	if link == "" {
		return false
	}
	u, err := url.Parse(link)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// FallbackID derives a campaign id from a timestamp when no contract
// address is available yet.
func FallbackID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Validate enforces the record invariants at the store boundary. The
// backing store does no validation of its own, so this is the sole gate.
func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return appErrors.NewValidation("title", "must not be empty")
	}
	if !IsValidURL(c.RedirectURL) {
		return appErrors.NewValidation("redirectUrl", "must be a valid absolute URL")
	}
	if c.Reward.IsNegative() {
		return appErrors.NewValidation("reward", "must not be negative")
	}
	if strings.TrimSpace(c.Owner) == "" {
		return appErrors.NewValidation("owner", "must not be empty")
	}
	if _, ok := chain.Lookup(c.ChainID); !ok {
		return appErrors.NewValidation("chainId", "unsupported network "+strconv.FormatInt(c.ChainID, 10))
	}
	return nil
}
