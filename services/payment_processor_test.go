package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauravbhatt9854/Foody/models"
)

func TestEnqueueReturnsImmediately(t *testing.T) {
	db := setupTestDB(t, "payproc1")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "tara", models.RoleStudent)
	item := createMenuItem(t, db, "Sandwich", 5.00, 15, true)
	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	p := NewPaymentProcessor(e)
	p.Delay = time.Hour // worker must not block Enqueue
	p.Start()
	defer p.Stop()

	start := time.Now()
	ref, err := p.Enqueue(order.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
	assert.Less(t, time.Since(start), time.Second)

	// The outcome has not been applied yet.
	current, err := e.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, current.Status)
}

func TestEnqueueRejectsUnknownOutcome(t *testing.T) {
	db := setupTestDB(t, "payproc2")
	e := NewOrderLifecycle(db)

	p := NewPaymentProcessor(e)
	_, err := p.Enqueue(1, models.PaymentStatusRefunded)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDeferredOutcomeConfirmsOrder(t *testing.T) {
	db := setupTestDB(t, "payproc3")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "uma", models.RoleStudent)
	item := createMenuItem(t, db, "Wrap", 6.00, 15, true)
	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	p := NewPaymentProcessor(e)
	p.Delay = 10 * time.Millisecond
	p.Start()
	defer p.Stop()

	ref, err := p.Enqueue(order.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		current, err := e.GetOrder(order.ID)
		if err != nil {
			return false
		}
		return current.Status == models.OrderStatusConfirmed &&
			current.PaymentStatus == models.PaymentStatusCompleted &&
			current.PaymentRef == ref
	}, 2*time.Second, 20*time.Millisecond)
}
