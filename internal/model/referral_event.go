// internal/model/referral_event.go
package model

import "time"

// ReferralEvent records one successful redemption of a referral link.
type ReferralEvent struct {
	ID              string    `db:"id" json:"id"`
	ContractAddress string    `db:"contract_address" json:"contractAddress"`
	Referrer        string    `db:"referrer" json:"referrer"`
	TxHash          string    `db:"tx_hash" json:"txHash"`
	ChainID         int64     `db:"chain_id" json:"chainId"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
