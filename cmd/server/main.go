// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/xefers/xefers-backend/internal/analytics"
	"github.com/xefers/xefers-backend/internal/contract"
	"github.com/xefers/xefers-backend/internal/controller"
	"github.com/xefers/xefers-backend/internal/db"
	"github.com/xefers/xefers-backend/internal/handler"
	"github.com/xefers/xefers-backend/internal/queue"
	"github.com/xefers/xefers-backend/internal/repository"
	"github.com/xefers/xefers-backend/internal/service"
	"github.com/xefers/xefers-backend/internal/wallet"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()
	q := queue.NewInMemoryQueue()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	eventRepo := &repository.ReferralEventRepository{DB: db.DB}
	queue.StartReferralEventSubscriber(q, eventRepo)

	session := wallet.NewSession()
	if _, err := session.Connect(); err != nil {
		// The server still runs without a wallet; redemption pages render
		// the unauthenticated state until a key is configured.
		log.Println("⚠️ wallet not connected:", err)
	}

	gateway := contract.NewGateway(session)

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		Gateway:      gateway,
		Session:      session,
	}
	analyticsService := &service.AnalyticsService{
		EventRepo: eventRepo,
		Mirror:    analytics.NewMirrorClient(),
	}

	campaignController := &controller.CampaignController{
		CampaignService:  campaignService,
		AnalyticsService: analyticsService,
	}
	linkHandler := &handler.LinkHandler{
		Redemptions: service.NewRedemptionManager(gateway),
		Session:     session,
		Queue:       q,
	}

	r := chi.NewRouter()

	r.Get("/", campaignController.Home)

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{address}", campaignController.GetCampaign)
	r.Post("/campaigns/{address}/fund", campaignController.FundCampaign)
	r.Get("/history/{address}", campaignController.History)

	// Redemption routes
	r.Get("/link/{contractAddress}", linkHandler.GetLink)
	r.Post("/link/{contractAddress}/refer", linkHandler.Refer)

	log.Println("🚀 Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
