package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/xefers/xefers-backend/internal/errors"
	"github.com/xefers/xefers-backend/internal/model"
)

type ReferralEventRepositoryInterface interface {
	Create(e *model.ReferralEvent) error
	ListByContract(contractAddress string) ([]model.ReferralEvent, error)
	DailyCountsForOwner(owner string) (map[string]int, error)
}

type ReferralEventRepository struct {
	DB *sql.DB
}

func (r *ReferralEventRepository) Create(e *model.ReferralEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO referral_events (id, contract_address, referrer, tx_hash, chain_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.DB.Exec(query, e.ID, e.ContractAddress, e.Referrer, e.TxHash, e.ChainID, e.CreatedAt)
	if err != nil {
		return appErrors.NewPersistence("create referral event", err)
	}
	return nil
}

func (r *ReferralEventRepository) ListByContract(contractAddress string) ([]model.ReferralEvent, error) {
	query := `
        SELECT id, contract_address, referrer, tx_hash, chain_id, created_at
        FROM referral_events WHERE contract_address=$1 ORDER BY created_at
    `
	rows, err := r.DB.Query(query, contractAddress)
	if err != nil {
		return nil, appErrors.NewPersistence("list referral events", err)
	}
	defer rows.Close()

	events := []model.ReferralEvent{}
	for rows.Next() {
		var e model.ReferralEvent
		if err := rows.Scan(&e.ID, &e.ContractAddress, &e.Referrer, &e.TxHash, &e.ChainID, &e.CreatedAt); err != nil {
			return nil, appErrors.NewPersistence("scan referral event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewPersistence("list referral events", err)
	}
	return events, nil
}

// DailyCountsForOwner buckets redemptions per day across every campaign
// the address owns.
func (r *ReferralEventRepository) DailyCountsForOwner(owner string) (map[string]int, error) {
	query := `
        SELECT to_char(e.created_at, 'YYYY-MM-DD'), COUNT(*)
        FROM referral_events e
        JOIN campaigns c ON c.id = e.contract_address
        WHERE c.owner=$1
        GROUP BY 1
    `
	rows, err := r.DB.Query(query, owner)
	if err != nil {
		return nil, appErrors.NewPersistence("count referral events", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, appErrors.NewPersistence("scan referral count", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewPersistence("count referral events", err)
	}
	return counts, nil
}

var _ ReferralEventRepositoryInterface = (*ReferralEventRepository)(nil)
