package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/models"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Counter{},
	))
	require.NoError(t, SeedSequences(db))

	// sqlite cannot take concurrent writers; one connection serializes
	// them so concurrency tests exercise the counter, not the driver.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	user := models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createMenuItem(t *testing.T, db *gorm.DB, name string, price float64, prepMinutes int, available bool) *models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:            name,
		Description:     "test item " + name,
		Price:           price,
		Category:        models.CategoryLunch,
		IsAvailable:     available,
		PreparationTime: prepMinutes,
		CreatedByID:     1,
	}
	require.NoError(t, db.Create(&item).Error)
	return &item
}

func placePickupOrder(t *testing.T, e *OrderLifecycle, customer *models.User, items []LineItemRequest) *models.Order {
	t.Helper()
	order, err := e.PlaceOrder(PlaceOrderRequest{
		CustomerID:    customer.ID,
		Items:         items,
		OrderType:     models.OrderTypePickup,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	return order
}

func forceStatus(t *testing.T, db *gorm.DB, orderID uint, status models.OrderStatus) {
	t.Helper()
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error)
}

func TestPlaceOrderSnapshotsPrices(t *testing.T) {
	db := setupTestDB(t, "snapshot")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "alice", models.RoleStudent)
	itemA := createMenuItem(t, db, "Masala Dosa", 8.99, 15, true)
	itemB := createMenuItem(t, db, "Chai", 3.50, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{
		{MenuItemID: itemA.ID, Quantity: 2},
		{MenuItemID: itemB.ID, Quantity: 1},
	})

	assert.Equal(t, "ORD000001", order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.InDelta(t, 21.48, order.TotalAmount, 0.001)
	assert.Nil(t, order.EstimatedDeliveryTime)
	assert.Nil(t, order.ActualDeliveryTime)

	// A later menu price edit must not touch the frozen total.
	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", itemA.ID).Update("price", 12.50).Error)

	reloaded, err := e.GetOrder(order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 21.48, reloaded.TotalAmount, 0.001)
	for _, li := range reloaded.Items {
		if li.MenuItemID == itemA.ID {
			assert.InDelta(t, 8.99, li.Price, 0.001)
		}
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	db := setupTestDB(t, "validation")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "bob", models.RoleStudent)
	available := createMenuItem(t, db, "Idli", 4.00, 15, true)
	unavailable := createMenuItem(t, db, "Off Menu", 5.00, 15, false)

	cases := []struct {
		name string
		req  PlaceOrderRequest
	}{
		{"no items", PlaceOrderRequest{
			CustomerID:    customer.ID,
			OrderType:     models.OrderTypePickup,
			PaymentMethod: models.PaymentMethodCash,
		}},
		{"zero quantity", PlaceOrderRequest{
			CustomerID:    customer.ID,
			Items:         []LineItemRequest{{MenuItemID: available.ID, Quantity: 0}},
			OrderType:     models.OrderTypePickup,
			PaymentMethod: models.PaymentMethodCash,
		}},
		{"delivery without address", PlaceOrderRequest{
			CustomerID:    customer.ID,
			Items:         []LineItemRequest{{MenuItemID: available.ID, Quantity: 1}},
			OrderType:     models.OrderTypeDelivery,
			PaymentMethod: models.PaymentMethodCash,
		}},
		{"unavailable item", PlaceOrderRequest{
			CustomerID: customer.ID,
			Items: []LineItemRequest{
				{MenuItemID: available.ID, Quantity: 1},
				{MenuItemID: unavailable.ID, Quantity: 1},
			},
			OrderType:     models.OrderTypePickup,
			PaymentMethod: models.PaymentMethodCash,
		}},
		{"nonexistent item", PlaceOrderRequest{
			CustomerID:    customer.ID,
			Items:         []LineItemRequest{{MenuItemID: 9999, Quantity: 1}},
			OrderType:     models.OrderTypePickup,
			PaymentMethod: models.PaymentMethodCash,
		}},
		{"bad payment method", PlaceOrderRequest{
			CustomerID:    customer.ID,
			Items:         []LineItemRequest{{MenuItemID: available.ID, Quantity: 1}},
			OrderType:     models.OrderTypePickup,
			PaymentMethod: "bitcoin",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.PlaceOrder(tc.req)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}

	// Rejection is atomic: nothing was persisted.
	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestOrderNumbersAreSequential(t *testing.T) {
	db := setupTestDB(t, "sequential")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "carol", models.RoleStudent)
	item := createMenuItem(t, db, "Samosa", 2.00, 15, true)

	for i := 1; i <= 3; i++ {
		order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})
		assert.Equal(t, fmt.Sprintf("ORD%06d", i), order.OrderNumber)
	}
}

func TestConcurrentPlacementNeverDuplicatesOrderNumbers(t *testing.T) {
	db := setupTestDB(t, "concurrent")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "dave", models.RoleStudent)
	item := createMenuItem(t, db, "Vada", 3.00, 15, true)

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := e.PlaceOrder(PlaceOrderRequest{
				CustomerID:    customer.ID,
				Items:         []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}},
				OrderType:     models.OrderTypePickup,
				PaymentMethod: models.PaymentMethodCash,
			})
			if err == nil {
				numbers <- order.OrderNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	count := 0
	for num := range numbers {
		assert.False(t, seen[num], "duplicate order number %s", num)
		seen[num] = true
		count++
	}
	assert.Equal(t, n, count, "all placements should succeed")
}

func TestTransitionTableEnumeration(t *testing.T) {
	legal := map[models.OrderStatus][]models.OrderStatus{
		models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
		models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
		models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
		models.OrderStatusReady:     {models.OrderStatusDelivered},
		models.OrderStatusDelivered: {},
		models.OrderStatusCancelled: {},
	}
	all := []models.OrderStatus{
		models.OrderStatusPending, models.OrderStatusConfirmed,
		models.OrderStatusPreparing, models.OrderStatusReady,
		models.OrderStatusDelivered, models.OrderStatusCancelled,
	}

	for from, targets := range legal {
		allowed := make(map[models.OrderStatus]bool)
		for _, to := range targets {
			allowed[to] = true
		}
		for _, to := range all {
			assert.Equal(t, allowed[to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestRequestTransitionRejectsIllegalEdges(t *testing.T) {
	db := setupTestDB(t, "illegal")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "erin", models.RoleStudent)
	staff := createUser(t, db, "frank", models.RoleStaff)
	item := createMenuItem(t, db, "Poha", 3.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})
	forceStatus(t, db, order.ID, models.OrderStatusConfirmed)

	// confirmed -> ready skips preparing and must be rejected unchanged.
	_, err := e.RequestTransition(order.ID, models.OrderStatusReady, staff, "", nil)
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, KindOf(err))

	reloaded, err := e.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, reloaded.Status)
}

func TestRequestTransitionForbiddenForStudents(t *testing.T) {
	db := setupTestDB(t, "forbidden")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "gina", models.RoleStudent)
	item := createMenuItem(t, db, "Upma", 3.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	_, err := e.RequestTransition(order.ID, models.OrderStatusConfirmed, customer, "", nil)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestFirstTouchAssignmentIsNeverReassigned(t *testing.T) {
	db := setupTestDB(t, "assignment")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "hank", models.RoleStudent)
	staff1 := createUser(t, db, "staff1", models.RoleStaff)
	staff2 := createUser(t, db, "staff2", models.RoleStaff)
	item := createMenuItem(t, db, "Paratha", 4.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	order, err := e.RequestTransition(order.ID, models.OrderStatusConfirmed, staff1, "", nil)
	require.NoError(t, err)
	require.NotNil(t, order.AssignedToID)
	assert.Equal(t, staff1.ID, *order.AssignedToID)

	order, err = e.RequestTransition(order.ID, models.OrderStatusPreparing, staff2, "", nil)
	require.NoError(t, err)
	require.NotNil(t, order.AssignedToID)
	assert.Equal(t, staff1.ID, *order.AssignedToID)
}

func TestDeliveredStampsActualDeliveryTimeOnce(t *testing.T) {
	db := setupTestDB(t, "delivered")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "iris", models.RoleStudent)
	staff := createUser(t, db, "jack", models.RoleStaff)
	item := createMenuItem(t, db, "Thali", 9.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	path := []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
	}
	for _, status := range path {
		var err error
		order, err = e.RequestTransition(order.ID, status, staff, "", nil)
		require.NoError(t, err)
		assert.Nil(t, order.ActualDeliveryTime, "unset before delivered (at %s)", status)
	}

	order, err := e.RequestTransition(order.ID, models.OrderStatusDelivered, staff, "", nil)
	require.NoError(t, err)
	require.NotNil(t, order.ActualDeliveryTime)
	assert.WithinDuration(t, time.Now(), *order.ActualDeliveryTime, time.Minute)

	// Terminal: no outbound edges.
	for _, status := range []models.OrderStatus{
		models.OrderStatusPending, models.OrderStatusConfirmed,
		models.OrderStatusPreparing, models.OrderStatusReady,
		models.OrderStatusCancelled,
	} {
		_, err := e.RequestTransition(order.ID, status, staff, "", nil)
		require.Error(t, err)
		assert.Equal(t, KindInvalidTransition, KindOf(err))
	}
}

func TestRequestTransitionDetectsConcurrentChange(t *testing.T) {
	db := setupTestDB(t, "conflict")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "kate", models.RoleStudent)
	staff := createUser(t, db, "liam", models.RoleStaff)
	item := createMenuItem(t, db, "Biryani", 11.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	// Another actor moved the order after this caller read it as pending.
	forceStatus(t, db, order.ID, models.OrderStatusConfirmed)

	stale := models.OrderStatusPending
	_, err := e.RequestTransition(order.ID, models.OrderStatusCancelled, staff, "", &stale)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestApplyPaymentAutoConfirmsPendingOrders(t *testing.T) {
	db := setupTestDB(t, "autoconfirm")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "mona", models.RoleStudent)
	item := createMenuItem(t, db, "Pulao", 7.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	order, err := e.ApplyPayment(order.ID, models.PaymentStatusCompleted, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	require.NotNil(t, order.EstimatedDeliveryTime)

	// Pickup with 15 minute prep: now + 15 + 5.
	assert.WithinDuration(t, time.Now().Add(20*time.Minute), *order.EstimatedDeliveryTime, time.Minute)

	// Re-applying must not re-advance the status or recompute the estimate.
	firstEstimate := *order.EstimatedDeliveryTime
	again, err := e.ApplyPayment(order.ID, models.PaymentStatusCompleted, "ref-2")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, again.Status)
	require.NotNil(t, again.EstimatedDeliveryTime)
	assert.True(t, firstEstimate.Equal(*again.EstimatedDeliveryTime))
}

func TestApplyPaymentFailureLeavesOrderPending(t *testing.T) {
	db := setupTestDB(t, "payfail")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "nick", models.RoleStudent)
	item := createMenuItem(t, db, "Lassi", 2.50, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	order, err := e.ApplyPayment(order.ID, models.PaymentStatusFailed, "ref-3")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)
	assert.Nil(t, order.EstimatedDeliveryTime)
}

func TestEstimatedDeliveryHonorsSlowestItem(t *testing.T) {
	db := setupTestDB(t, "slowprep")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "olga", models.RoleStudent)
	fast := createMenuItem(t, db, "Juice", 2.00, 5, true)
	slow := createMenuItem(t, db, "Dum Biryani", 14.00, 25, true)

	order, err := e.PlaceOrder(PlaceOrderRequest{
		CustomerID: customer.ID,
		Items: []LineItemRequest{
			{MenuItemID: fast.ID, Quantity: 1},
			{MenuItemID: slow.ID, Quantity: 1},
		},
		OrderType:       models.OrderTypeDelivery,
		DeliveryAddress: "Hostel Block C, Room 214",
		PaymentMethod:   models.PaymentMethodUPI,
	})
	require.NoError(t, err)

	order, err = e.ApplyPayment(order.ID, models.PaymentStatusCompleted, "ref-4")
	require.NoError(t, err)
	require.NotNil(t, order.EstimatedDeliveryTime)

	// Delivery with a 25 minute slowest item: now + 25 + 20.
	assert.WithinDuration(t, time.Now().Add(45*time.Minute), *order.EstimatedDeliveryTime, time.Minute)
}

func TestSubmitReviewRules(t *testing.T) {
	db := setupTestDB(t, "review")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "pam", models.RoleStudent)
	other := createUser(t, db, "quinn", models.RoleStudent)
	item := createMenuItem(t, db, "Halwa", 3.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	_, err := e.SubmitReview(order.ID, customer, 4, "good")
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err), "review before delivery")

	forceStatus(t, db, order.ID, models.OrderStatusDelivered)

	_, err = e.SubmitReview(order.ID, other, 4, "not mine")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err), "review by non-owner")

	_, err = e.SubmitReview(order.ID, customer, 6, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err), "rating out of range")

	order, err = e.SubmitReview(order.ID, customer, 4, "tasty")
	require.NoError(t, err)
	require.NotNil(t, order.Rating)
	assert.Equal(t, 4, *order.Rating)
	assert.Equal(t, "tasty", order.Review)

	// The item's running counters moved with the review.
	var reviewed models.MenuItem
	require.NoError(t, db.First(&reviewed, item.ID).Error)
	assert.InDelta(t, 4.0, reviewed.Rating, 0.001)
	assert.Equal(t, 1, reviewed.ReviewCount)
	assert.InDelta(t, 4.0, reviewed.AverageRating(), 0.001)

	// Second submission fails and leaves the first review intact.
	_, err = e.SubmitReview(order.ID, customer, 1, "changed my mind")
	require.Error(t, err)
	assert.Equal(t, KindAlreadyReviewed, KindOf(err))

	reloaded, err := e.GetOrder(order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Rating)
	assert.Equal(t, 4, *reloaded.Rating)
	assert.Equal(t, "tasty", reloaded.Review)
}

func TestStaffNotesAccumulate(t *testing.T) {
	db := setupTestDB(t, "notes")
	e := NewOrderLifecycle(db)
	customer := createUser(t, db, "rita", models.RoleStudent)
	staff := createUser(t, db, "sam", models.RoleStaff)
	item := createMenuItem(t, db, "Kheer", 3.00, 15, true)

	order := placePickupOrder(t, e, customer, []LineItemRequest{{MenuItemID: item.ID, Quantity: 1}})

	order, err := e.RequestTransition(order.ID, models.OrderStatusConfirmed, staff, "no onions", nil)
	require.NoError(t, err)
	assert.Equal(t, "no onions", order.StaffNotes)

	order, err = e.RequestTransition(order.ID, models.OrderStatusPreparing, staff, "extra napkins", nil)
	require.NoError(t, err)
	assert.Equal(t, "no onions\nextra napkins", order.StaffNotes)
}
