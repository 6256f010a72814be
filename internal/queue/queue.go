package queue

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xefers/xefers-backend/internal/model"
	"github.com/xefers/xefers-backend/internal/repository"
)

// TopicReferralEvents carries one payload per successful redemption.
const TopicReferralEvents = "referral_events"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue is an in-process pub/sub queue with retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		log.Printf("Job failed (attempt %d/%d): %+v, error: %v\n", job.RetryCount, job.MaxRetries, job.Payload, err)

		if job.RetryCount > job.MaxRetries {
			log.Printf("Job permanently failed after %d attempts: %+v\n", job.MaxRetries, job.Payload)
			return // No requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// StartReferralEventSubscriber persists every published redemption event.
// Handler errors trigger the queue's retry; nothing here blocks the
// redemption flow that published the event.
func StartReferralEventSubscriber(q Queue, eventRepo repository.ReferralEventRepositoryInterface) {
	go func() {
		err := q.Subscribe(TopicReferralEvents, func(payload any) error {
			event, ok := payload.(*model.ReferralEvent)
			if !ok {
				log.Println("⚠️ Invalid payload type, expected *model.ReferralEvent")
				return nil // malformed payloads are dropped, not retried
			}

			if err := eventRepo.Create(event); err != nil {
				log.Println("⚠️ Failed to record referral event:", err)
				return err // triggers retry in queue
			}

			log.Println("✅ Referral event recorded for contract:", event.ContractAddress)
			return nil
		})

		if err != nil {
			log.Println("⚠️ Failed to start subscriber for referral_events:", err)
		}
	}()
}
