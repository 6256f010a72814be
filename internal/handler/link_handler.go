// internal/handler/link_handler.go
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/streadway/amqp"

	"github.com/xefers/xefers-backend/internal/chain"
	"github.com/xefers/xefers-backend/internal/model"
	"github.com/xefers/xefers-backend/internal/queue"
	"github.com/xefers/xefers-backend/internal/service"
	"github.com/xefers/xefers-backend/internal/wallet"
)

// LinkHandler serves the /link/{contractAddress} redemption surface.
type LinkHandler struct {
	Redemptions *service.RedemptionManager
	Session     wallet.SessionInterface
	Queue       queue.Queue
}

// GetLink binds the viewer account and runs the load transition. The
// response always carries the machine's snapshot; an absent wallet renders
// as the unauthenticated state, not an error.
func (h *LinkHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	contractAddress := chi.URLParam(r, "contractAddress")
	account := h.activeAccount()

	red := h.Redemptions.Get(contractAddress, account)
	red.Load(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(red.Snapshot())
}

// Refer is the user's explicit continue action: it fires the on-chain
// refer call and, on success, publishes a referral event. The caller is
// never auto-navigated; the full redirect URL is returned for them to
// follow voluntarily.
func (h *LinkHandler) Refer(w http.ResponseWriter, r *http.Request) {
	contractAddress := chi.URLParam(r, "contractAddress")
	account := h.activeAccount()

	w.Header().Set("Content-Type", "application/json")

	red := h.Redemptions.Get(contractAddress, account)
	if account == "" {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(red.Snapshot())
		return
	}

	// A direct POST without a prior GET still has to pass through Loading.
	if view := red.Snapshot(); view.State == service.StateUnauthenticated || view.State == service.StateLoading {
		red.Load(r.Context())
	}

	redirectURL, err := red.Continue(r.Context())
	view := red.Snapshot()

	if err != nil {
		switch {
		case view.AlreadyReferred:
			w.WriteHeader(http.StatusConflict)
		case view.WalletRequired:
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
		json.NewEncoder(w).Encode(view)
		return
	}

	event := &model.ReferralEvent{
		ContractAddress: contractAddress,
		Referrer:        account,
		TxHash:          view.TxHash,
		ChainID:         chain.Default().ID,
		CreatedAt:       time.Now(),
	}
	if err := h.Queue.Publish(queue.TopicReferralEvents, event); err != nil {
		log.Println("⚠️ failed to enqueue referral event:", err)
	}
	publishReferralEventAMQP(event)

	view.RedirectURL = redirectURL
	json.NewEncoder(w).Encode(view)
}

func (h *LinkHandler) activeAccount() string {
	if accounts := h.Session.CurrentAccounts(); len(accounts) > 0 {
		return accounts[0]
	}
	return ""
}

// publishReferralEventAMQP mirrors the event onto RabbitMQ for the
// out-of-process worker. Best-effort: a broker outage is logged and never
// fails the redemption.
func publishReferralEventAMQP(event *model.ReferralEvent) {
	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		return
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Println("⚠️ failed to connect to queue:", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Println("⚠️ failed to open queue channel:", err)
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.TopicReferralEvents,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("⚠️ failed to declare queue:", err)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Println("⚠️ failed to marshal referral event:", err)
		return
	}

	err = ch.Publish(
		"",
		q.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Println("⚠️ failed to publish referral event:", err)
	}
}
