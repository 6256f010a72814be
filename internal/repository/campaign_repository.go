package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/xefers/xefers-backend/internal/errors"
	"github.com/xefers/xefers-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id string) (*model.Campaign, error)
	ListByOwner(owner string) ([]model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// Create persists a campaign record. The record is validated first; the
// backing store itself enforces nothing beyond the primary key.
func (r *CampaignRepository) Create(c *model.Campaign) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if err := c.Validate(); err != nil {
		return err
	}

	query := `
        INSERT INTO campaigns (id, title, redirect_url, reward, owner, chain_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.DB.Exec(query, c.ID, c.Title, c.RedirectURL, c.Reward, c.Owner, c.ChainID, c.CreatedAt)
	if err != nil {
		return appErrors.NewPersistence("create campaign", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	query := `
        SELECT id, title, redirect_url, reward, owner, chain_id, created_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Title, &c.RedirectURL, &c.Reward, &c.Owner, &c.ChainID, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, appErrors.NewPersistence("get campaign", err)
	}
	return &c, nil
}

// ListByOwner returns every campaign owned by the address. No ordering is
// promised to callers; created_at is used only for stable output. An owner
// with no campaigns gets an empty slice, not an error.
func (r *CampaignRepository) ListByOwner(owner string) ([]model.Campaign, error) {
	query := `
        SELECT id, title, redirect_url, reward, owner, chain_id, created_at
        FROM campaigns WHERE owner=$1 ORDER BY created_at
    `
	rows, err := r.DB.Query(query, owner)
	if err != nil {
		return nil, appErrors.NewPersistence("list campaigns", err)
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.Title, &c.RedirectURL, &c.Reward, &c.Owner, &c.ChainID, &c.CreatedAt); err != nil {
			return nil, appErrors.NewPersistence("scan campaign", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewPersistence("list campaigns", err)
	}
	return campaigns, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
