package service

import (
	"log"

	"github.com/xefers/xefers-backend/internal/model"
)

// ReferralEventRecorder defines the methods the worker needs
type ReferralEventRecorder interface {
	Create(e *model.ReferralEvent) error
}

// Worker drains referral events off a channel into the record store.
type Worker struct {
	Events     ReferralEventRecorder
	JobChan    <-chan *model.ReferralEvent
	NotifyFunc func(e *model.ReferralEvent) bool
}

// Constructor
func NewWorker(events ReferralEventRecorder, jobChan <-chan *model.ReferralEvent, notifyFunc func(e *model.ReferralEvent) bool) *Worker {
	return &Worker{
		Events:     events,
		JobChan:    jobChan,
		NotifyFunc: notifyFunc,
	}
}

// Start begins processing jobs
func (w *Worker) Start() {
	for event := range w.JobChan {
		if err := w.Events.Create(event); err != nil {
			log.Println("Failed to record referral event:", err)
			continue
		}

		if w.NotifyFunc != nil && !w.NotifyFunc(event) {
			log.Println("Notification failed for contract:", event.ContractAddress)
		}
	}
}
