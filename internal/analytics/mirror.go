// internal/analytics/mirror.go
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MirrorClientInterface fetches on-chain activity from a chain's REST
// mirror node.
type MirrorClientInterface interface {
	AccountTransactions(ctx context.Context, baseURL, address string) ([]time.Time, error)
}

type MirrorClient struct {
	HTTPClient *http.Client
}

func NewMirrorClient() *MirrorClient {
	return &MirrorClient{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type accountResponse struct {
	Transactions []struct {
		ConsensusTimestamp string `json:"consensus_timestamp"`
	} `json:"transactions"`
}

// AccountTransactions returns the timestamps of the account's recent
// transactions as reported by the mirror node.
func (c *MirrorClient) AccountTransactions(ctx context.Context, baseURL, address string) ([]time.Time, error) {
	url := fmt.Sprintf("%s/api/v1/accounts/%s", strings.TrimRight(baseURL, "/"), address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mirror node returned %s", resp.Status)
	}

	var body accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(body.Transactions))
	for _, tx := range body.Transactions {
		ts, err := parseConsensusTimestamp(tx.ConsensusTimestamp)
		if err != nil {
			continue // skip rows with malformed timestamps
		}
		times = append(times, ts)
	}
	return times, nil
}

// parseConsensusTimestamp handles the mirror node's "seconds.nanos" form.
func parseConsensusTimestamp(raw string) (time.Time, error) {
	secStr, nanoStr, _ := strings.Cut(raw, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	var nanos int64
	if nanoStr != "" {
		// right-pad to nanosecond precision
		for len(nanoStr) < 9 {
			nanoStr += "0"
		}
		nanos, err = strconv.ParseInt(nanoStr[:9], 10, 64)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Unix(sec, nanos), nil
}

var _ MirrorClientInterface = (*MirrorClient)(nil)
