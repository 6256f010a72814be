// internal/model/link_metadata.go
package model

import "math/big"

// LinkMetadata is the referral contract's on-chain view of a campaign,
// as returned by getMetadata. Fetched, never owned.
type LinkMetadata struct {
	Title       string   `json:"title"`
	RedirectURL string   `json:"redirectUrl"`
	Owner       string   `json:"owner"`
	Reward      *big.Int `json:"reward"`
}
