package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gauravbhatt9854/Foody/models"
)

// PaymentJob is one deferred payment confirmation.
type PaymentJob struct {
	OrderID uint
	Outcome models.PaymentStatus
	Ref     string
}

// PaymentProcessor simulates an external payment gateway: Enqueue returns
// immediately and a worker applies the outcome after a processing delay,
// so no request handler ever blocks on the simulated gateway.
type PaymentProcessor struct {
	engine *OrderLifecycle

	// Delay between enqueue and the outcome being applied. Zero in tests.
	Delay time.Duration

	jobs chan PaymentJob
	quit chan struct{}
	wg   sync.WaitGroup
}

func NewPaymentProcessor(engine *OrderLifecycle) *PaymentProcessor {
	return &PaymentProcessor{
		engine: engine,
		Delay:  2 * time.Second,
		jobs:   make(chan PaymentJob, 64),
		quit:   make(chan struct{}),
	}
}

func (p *PaymentProcessor) Start() {
	p.wg.Add(1)
	go p.run()
}

func (p *PaymentProcessor) Stop() {
	close(p.quit)
	p.wg.Wait()
}

// Enqueue schedules a payment outcome and returns its reference id.
func (p *PaymentProcessor) Enqueue(orderID uint, outcome models.PaymentStatus) (string, error) {
	if outcome != models.PaymentStatusCompleted && outcome != models.PaymentStatusFailed {
		return "", Errorf(KindValidation, "payment outcome must be completed or failed")
	}

	job := PaymentJob{
		OrderID: orderID,
		Outcome: outcome,
		Ref:     uuid.NewString(),
	}

	select {
	case p.jobs <- job:
		return job.Ref, nil
	default:
		return "", Errorf(KindInternal, "payment queue is full")
	}
}

func (p *PaymentProcessor) run() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			p.process(job)
		case <-p.quit:
			return
		}
	}
}

func (p *PaymentProcessor) process(job PaymentJob) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-p.quit:
			return
		}
	}

	if _, err := p.engine.ApplyPayment(job.OrderID, job.Outcome, job.Ref); err != nil {
		log.Printf("payment processor: order %d ref %s: %v", job.OrderID, job.Ref, err)
	}
}
