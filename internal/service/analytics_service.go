// internal/service/analytics_service.go
package service

import (
	"context"
	"log"

	"github.com/xefers/xefers-backend/internal/analytics"
	"github.com/xefers/xefers-backend/internal/chain"
	"github.com/xefers/xefers-backend/internal/model"
	"github.com/xefers/xefers-backend/internal/repository"
)

type AnalyticsService struct {
	EventRepo repository.ReferralEventRepositoryInterface
	Mirror    analytics.MirrorClientInterface
}

// DailyActivity merges per-day redemption counts from the record store
// with the address's mirror-node transaction activity when the chain has
// one. A mirror failure degrades to store-only data rather than erroring.
func (s *AnalyticsService) DailyActivity(ctx context.Context, address string, info chain.Info) (map[string]int, error) {
	counts, err := s.EventRepo.DailyCountsForOwner(address)
	if err != nil {
		return nil, err
	}

	if s.Mirror != nil && info.MirrorURL != "" {
		times, err := s.Mirror.AccountTransactions(ctx, info.MirrorURL, address)
		if err != nil {
			log.Println("⚠️ mirror node fetch failed:", err)
		} else {
			for _, ts := range times {
				counts[DateString(ts)]++
			}
		}
	}
	return counts, nil
}

// ContractReferrals lists the recorded redemptions for one contract in
// the order they happened.
func (s *AnalyticsService) ContractReferrals(contractAddress string) ([]model.ReferralEvent, error) {
	return s.EventRepo.ListByContract(contractAddress)
}
