package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xefers/xefers-backend/internal/chain"
	"github.com/xefers/xefers-backend/internal/model"
	"github.com/xefers/xefers-backend/internal/service"
)

type stubEventRepo struct {
	counts    map[string]int
	countsErr error
	events    []model.ReferralEvent
}

func (r *stubEventRepo) Create(e *model.ReferralEvent) error { return nil }

func (r *stubEventRepo) ListByContract(contractAddress string) ([]model.ReferralEvent, error) {
	out := []model.ReferralEvent{}
	for _, e := range r.events {
		if e.ContractAddress == contractAddress {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubEventRepo) DailyCountsForOwner(owner string) (map[string]int, error) {
	if r.countsErr != nil {
		return nil, r.countsErr
	}
	return r.counts, nil
}

type stubMirror struct {
	times []time.Time
	err   error
	calls int
}

func (m *stubMirror) AccountTransactions(ctx context.Context, baseURL, address string) ([]time.Time, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.times, nil
}

func TestDailyActivityMergesMirrorCounts(t *testing.T) {
	repo := &stubEventRepo{counts: map[string]int{"2024-09-01": 2}}
	mirror := &stubMirror{times: []time.Time{
		time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 9, 2, 11, 0, 0, 0, time.UTC),
	}}
	svc := &service.AnalyticsService{EventRepo: repo, Mirror: mirror}

	info, _ := chain.Lookup(297) // Hedera, the chain with a mirror node
	counts, err := svc.DailyActivity(context.Background(), "0xOWNER", info)
	if err != nil {
		t.Fatalf("DailyActivity failed: %v", err)
	}

	if counts["2024-09-01"] != 3 {
		t.Errorf("2024-09-01 = %d, want store count plus mirror hit", counts["2024-09-01"])
	}
	if counts["2024-09-02"] != 1 {
		t.Errorf("2024-09-02 = %d, want 1", counts["2024-09-02"])
	}
}

func TestDailyActivitySkipsMirrorWithoutMirrorURL(t *testing.T) {
	repo := &stubEventRepo{counts: map[string]int{"2024-09-01": 2}}
	mirror := &stubMirror{}
	svc := &service.AnalyticsService{EventRepo: repo, Mirror: mirror}

	info, _ := chain.Lookup(1029) // BTT Donau has no mirror node
	if _, err := svc.DailyActivity(context.Background(), "0xOWNER", info); err != nil {
		t.Fatalf("DailyActivity failed: %v", err)
	}
	if mirror.calls != 0 {
		t.Errorf("mirror calls = %d, want 0 for a chain without a mirror node", mirror.calls)
	}
}

func TestDailyActivityDegradesOnMirrorFailure(t *testing.T) {
	repo := &stubEventRepo{counts: map[string]int{"2024-09-01": 2}}
	mirror := &stubMirror{err: errors.New("rate limited")}
	svc := &service.AnalyticsService{EventRepo: repo, Mirror: mirror}

	info, _ := chain.Lookup(297)
	counts, err := svc.DailyActivity(context.Background(), "0xOWNER", info)
	if err != nil {
		t.Fatalf("a mirror failure must not fail the request: %v", err)
	}
	if counts["2024-09-01"] != 2 {
		t.Errorf("2024-09-01 = %d, want the store-only count", counts["2024-09-01"])
	}
}

func TestContractReferralsFiltersByContract(t *testing.T) {
	repo := &stubEventRepo{events: []model.ReferralEvent{
		{ID: "1", ContractAddress: "0xaaa", Referrer: "0x111"},
		{ID: "2", ContractAddress: "0xbbb", Referrer: "0x222"},
		{ID: "3", ContractAddress: "0xaaa", Referrer: "0x333"},
	}}
	svc := &service.AnalyticsService{EventRepo: repo, Mirror: &stubMirror{}}

	events, err := svc.ContractReferrals("0xaaa")
	if err != nil {
		t.Fatalf("ContractReferrals failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Referrer != "0x111" || events[1].Referrer != "0x333" {
		t.Errorf("events = %+v", events)
	}

	// an unseen contract gets an empty slice, not nil
	events, err = svc.ContractReferrals("0xccc")
	if err != nil {
		t.Fatalf("ContractReferrals failed: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("events = %v, want empty slice", events)
	}
}

func TestDailyActivityPropagatesStoreFailure(t *testing.T) {
	repo := &stubEventRepo{countsErr: errors.New("connection refused")}
	svc := &service.AnalyticsService{EventRepo: repo, Mirror: &stubMirror{}}

	info, _ := chain.Lookup(297)
	if _, err := svc.DailyActivity(context.Background(), "0xOWNER", info); err == nil {
		t.Fatal("expected the store failure to propagate")
	}
}
