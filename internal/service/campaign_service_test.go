package service_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xefers/xefers-backend/internal/chain"
	appErrors "github.com/xefers/xefers-backend/internal/errors"
	"github.com/xefers/xefers-backend/internal/model"
	"github.com/xefers/xefers-backend/internal/service"
)

type stubCampaignRepo struct {
	created   []*model.Campaign
	createErr error
	campaigns []model.Campaign
}

func (r *stubCampaignRepo) Create(c *model.Campaign) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, c)
	return nil
}

func (r *stubCampaignRepo) GetByID(id string) (*model.Campaign, error) {
	for i := range r.campaigns {
		if r.campaigns[i].ID == id {
			return &r.campaigns[i], nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (r *stubCampaignRepo) ListByOwner(owner string) ([]model.Campaign, error) {
	out := []model.Campaign{}
	for _, c := range r.campaigns {
		if c.Owner == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubSession struct {
	accounts    []string
	connectErr  error
	ensureErr   error
	ensureCalls int
	ensured     []chain.Info
}

func (s *stubSession) Connect() (string, error) {
	if s.connectErr != nil {
		return "", s.connectErr
	}
	if len(s.accounts) == 0 {
		return "", appErrors.NewNoWalletProvider()
	}
	return s.accounts[0], nil
}

func (s *stubSession) CurrentAccounts() []string {
	return s.accounts
}

func (s *stubSession) EnsureNetwork(ctx context.Context, target chain.Info) error {
	s.ensureCalls++
	s.ensured = append(s.ensured, target)
	return s.ensureErr
}

type stubGateway struct {
	deployAddr   string
	deployErr    error
	deployCalls  int
	deployTitle  string
	deployReward *big.Int
	deployURL    string

	fundCalls  int
	fundAmount *big.Int

	title    string
	titleErr error
}

func (g *stubGateway) Deploy(ctx context.Context, title string, reward *big.Int, redirectURL string) (string, string, error) {
	g.deployCalls++
	g.deployTitle = title
	g.deployReward = reward
	g.deployURL = redirectURL
	if g.deployErr != nil {
		return "", "", g.deployErr
	}
	return g.deployAddr, "0xdeployhash", nil
}

func (g *stubGateway) GetMetadata(ctx context.Context, contractAddress string) (*model.LinkMetadata, error) {
	return nil, appErrors.NewContractRead("not wired")
}

func (g *stubGateway) GetTitle(ctx context.Context, contractAddress string) (string, error) {
	if g.titleErr != nil {
		return "", g.titleErr
	}
	return g.title, nil
}

func (g *stubGateway) Refer(ctx context.Context, contractAddress string) (string, error) {
	return "", appErrors.NewContractWrite("not wired")
}

func (g *stubGateway) Fund(ctx context.Context, contractAddress string, amount *big.Int) (string, error) {
	g.fundCalls++
	g.fundAmount = amount
	return "0xfundhash", nil
}

const ownerAccount = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func newTestService() (*service.CampaignService, *stubCampaignRepo, *stubGateway, *stubSession) {
	repo := &stubCampaignRepo{}
	gw := &stubGateway{deployAddr: "0x94099942864EA81cCF197E9D71ac53310b1468D8"}
	sess := &stubSession{accounts: []string{ownerAccount}}
	svc := &service.CampaignService{CampaignRepo: repo, Gateway: gw, Session: sess}
	return svc, repo, gw, sess
}

func TestCreateCampaignHappyPath(t *testing.T) {
	svc, repo, gw, _ := newTestService()

	req := service.CreateCampaignRequest{
		Title:       "Launch Promo",
		RedirectURL: "sunpump.meme",
		ChainID:     1029,
	}
	result, err := svc.Create(context.Background(), req, "https://xefers.app")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if gw.deployURL != "http://sunpump.meme" {
		t.Errorf("deployed redirect = %q, want normalized http://sunpump.meme", gw.deployURL)
	}
	if result.Campaign.ID != gw.deployAddr {
		t.Errorf("campaign ID = %q, want deployed address %q", result.Campaign.ID, gw.deployAddr)
	}
	if result.Campaign.Owner != ownerAccount {
		t.Errorf("owner = %q, want %q", result.Campaign.Owner, ownerAccount)
	}
	if !result.Persisted {
		t.Error("expected the record to be persisted")
	}
	if len(repo.created) != 1 {
		t.Fatalf("persisted %d records, want 1", len(repo.created))
	}

	wantShare := "https://xefers.app/link/" + gw.deployAddr
	if result.ShareURL != wantShare {
		t.Errorf("share URL = %q, want %q", result.ShareURL, wantShare)
	}
	if !strings.Contains(result.ContractURL, gw.deployAddr) {
		t.Errorf("contract URL %q does not point at the deployed address", result.ContractURL)
	}
	if result.TxHash != "0xdeployhash" {
		t.Errorf("txHash = %q", result.TxHash)
	}
}

func TestCreateCampaignWrongNetworkBlocksDeploy(t *testing.T) {
	svc, _, gw, sess := newTestService()
	sess.ensureErr = appErrors.NewWrongNetwork(
		"Hedera Previewnet (0x129)",
		"BitTorrent Chain Donau (0x405)",
	)

	req := service.CreateCampaignRequest{
		Title:       "Launch Promo",
		RedirectURL: "https://sunpump.meme/",
		ChainID:     1029,
	}
	_, err := svc.Create(context.Background(), req, "https://xefers.app")
	if err == nil {
		t.Fatal("expected a wrong-network failure")
	}

	var wrong *appErrors.ErrWrongNetwork
	if !errors.As(err, &wrong) {
		t.Fatalf("error = %v, want ErrWrongNetwork", err)
	}
	if !strings.Contains(err.Error(), "BitTorrent Chain Donau") {
		t.Errorf("message %q does not name the required network", err.Error())
	}
	if gw.deployCalls != 0 {
		t.Errorf("deploy calls = %d, want 0 when the network check fails", gw.deployCalls)
	}
}

func TestCreateCampaignRewardDisabledStoresZero(t *testing.T) {
	svc, repo, gw, _ := newTestService()

	// Stale text left in the reward input must not leak through when the
	// reward toggle is off.
	req := service.CreateCampaignRequest{
		Title:         "Launch Promo",
		RedirectURL:   "https://sunpump.meme/",
		Reward:        decimal.NewFromFloat(5.5),
		RewardChecked: false,
		ChainID:       1029,
	}
	result, err := svc.Create(context.Background(), req, "https://xefers.app")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !result.Campaign.Reward.IsZero() {
		t.Errorf("stored reward = %s, want 0", result.Campaign.Reward)
	}
	if gw.deployReward.Sign() != 0 {
		t.Errorf("deployed reward = %s wei, want 0", gw.deployReward)
	}
	if len(repo.created) != 1 || !repo.created[0].Reward.IsZero() {
		t.Error("expected a zero-reward record in the store")
	}
}

func TestCreateCampaignRewardCheckedConvertsToWei(t *testing.T) {
	svc, _, gw, _ := newTestService()

	req := service.CreateCampaignRequest{
		Title:         "Launch Promo",
		RedirectURL:   "https://sunpump.meme/",
		Reward:        decimal.NewFromFloat(0.5),
		RewardChecked: true,
		ChainID:       1029,
	}
	if _, err := svc.Create(context.Background(), req, "https://xefers.app"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := new(big.Int)
	want.SetString("500000000000000000", 10)
	if gw.deployReward.Cmp(want) != 0 {
		t.Errorf("deployed reward = %s wei, want %s", gw.deployReward, want)
	}
}

func TestCreateCampaignValidationStaysLocal(t *testing.T) {
	svc, _, gw, sess := newTestService()

	tests := []struct {
		name string
		req  service.CreateCampaignRequest
	}{
		{"empty title", service.CreateCampaignRequest{RedirectURL: "https://sunpump.meme/", ChainID: 1029}},
		{"invalid url", service.CreateCampaignRequest{Title: "Promo", RedirectURL: "   ", ChainID: 1029}},
		{"unknown chain", service.CreateCampaignRequest{Title: "Promo", RedirectURL: "https://sunpump.meme/", ChainID: 5}},
		{"negative reward", service.CreateCampaignRequest{
			Title: "Promo", RedirectURL: "https://sunpump.meme/",
			Reward: decimal.NewFromInt(-1), RewardChecked: true, ChainID: 1029,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req, "https://xefers.app")
			var invalid *appErrors.ErrValidation
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
		})
	}

	if sess.ensureCalls != 0 || gw.deployCalls != 0 {
		t.Errorf("validation failures reached the network (ensure=%d deploy=%d)", sess.ensureCalls, gw.deployCalls)
	}
}

func TestCreateCampaignSurvivesPersistenceFailure(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.createErr = appErrors.NewPersistence("campaign create", errors.New("connection refused"))

	req := service.CreateCampaignRequest{
		Title:       "Launch Promo",
		RedirectURL: "https://sunpump.meme/",
		ChainID:     1029,
	}
	result, err := svc.Create(context.Background(), req, "https://xefers.app")
	if err != nil {
		t.Fatalf("Create must not fail when only persistence fails: %v", err)
	}
	if result.Persisted {
		t.Error("expected Persisted to be false")
	}
	if result.Campaign.ID == "" || result.ShareURL == "" {
		t.Error("expected the deployed campaign to be reported despite the store failure")
	}
}

func TestGetCampaignMergesOnChainTitle(t *testing.T) {
	svc, repo, gw, _ := newTestService()
	repo.campaigns = []model.Campaign{
		{ID: gw.deployAddr, Title: "Stored Title", Owner: ownerAccount, ChainID: 1029},
	}
	gw.title = "Renamed On Chain"

	detail, err := svc.Get(context.Background(), gw.deployAddr)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if detail.Campaign.Title != "Stored Title" {
		t.Errorf("stored title = %q", detail.Campaign.Title)
	}
	if detail.OnChainTitle != "Renamed On Chain" {
		t.Errorf("on-chain title = %q", detail.OnChainTitle)
	}
}

func TestGetCampaignDegradesOnTitleReadFailure(t *testing.T) {
	svc, repo, gw, _ := newTestService()
	repo.campaigns = []model.Campaign{
		{ID: gw.deployAddr, Title: "Stored Title", Owner: ownerAccount, ChainID: 1029},
	}
	gw.titleErr = appErrors.NewContractRead("call revert exception")

	detail, err := svc.Get(context.Background(), gw.deployAddr)
	if err != nil {
		t.Fatalf("a failed title read must not fail the lookup: %v", err)
	}
	if detail.OnChainTitle != "" {
		t.Errorf("on-chain title = %q, want empty on read failure", detail.OnChainTitle)
	}
	if detail.Campaign.Title != "Stored Title" {
		t.Errorf("stored title = %q", detail.Campaign.Title)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Get(context.Background(), "0xMISSING")
	var notFound *appErrors.ErrCampaignNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want ErrCampaignNotFound", err)
	}
}

func TestFundValidatesBeforeNetwork(t *testing.T) {
	svc, _, gw, sess := newTestService()

	if _, err := svc.Fund(context.Background(), "0xabc", decimal.Zero, 1029); err == nil {
		t.Error("expected a validation failure for a zero amount")
	}
	if _, err := svc.Fund(context.Background(), "0xabc", decimal.NewFromInt(1), 5); err == nil {
		t.Error("expected a validation failure for an unknown chain")
	}
	if sess.ensureCalls != 0 || gw.fundCalls != 0 {
		t.Errorf("validation failures reached the network (ensure=%d fund=%d)", sess.ensureCalls, gw.fundCalls)
	}

	txHash, err := svc.Fund(context.Background(), "0xabc", decimal.NewFromInt(2), 1029)
	if err != nil {
		t.Fatalf("Fund failed: %v", err)
	}
	if txHash != "0xfundhash" {
		t.Errorf("txHash = %q", txHash)
	}

	want := new(big.Int)
	want.SetString("2000000000000000000", 10)
	if gw.fundAmount.Cmp(want) != 0 {
		t.Errorf("funded amount = %s wei, want %s", gw.fundAmount, want)
	}
}
