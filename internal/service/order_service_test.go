package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ashnest/internal/domain"
	"ashnest/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// checkoutState is the in-memory database behind the checkout mocks.
type checkoutState struct {
	cartIDs    map[uuid.UUID]uuid.UUID
	cartLines  map[uuid.UUID][]domain.CartLine
	addresses  map[uuid.UUID]uuid.UUID
	discounts  []*domain.Discount
	coupons    map[uuid.UUID]*domain.Coupon
	stock      map[uuid.UUID]int
	orders     map[uuid.UUID]*domain.Order
	orderItems map[uuid.UUID][]domain.OrderItem
}

func (s *checkoutState) clone() *checkoutState {
	c := &checkoutState{
		cartIDs:    make(map[uuid.UUID]uuid.UUID, len(s.cartIDs)),
		cartLines:  make(map[uuid.UUID][]domain.CartLine, len(s.cartLines)),
		addresses:  make(map[uuid.UUID]uuid.UUID, len(s.addresses)),
		discounts:  append([]*domain.Discount{}, s.discounts...),
		coupons:    make(map[uuid.UUID]*domain.Coupon, len(s.coupons)),
		stock:      make(map[uuid.UUID]int, len(s.stock)),
		orders:     make(map[uuid.UUID]*domain.Order, len(s.orders)),
		orderItems: make(map[uuid.UUID][]domain.OrderItem, len(s.orderItems)),
	}
	for k, v := range s.cartIDs {
		c.cartIDs[k] = v
	}
	for k, v := range s.cartLines {
		c.cartLines[k] = append([]domain.CartLine{}, v...)
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.coupons {
		coupon := *v
		c.coupons[k] = &coupon
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.orders {
		order := *v
		c.orders[k] = &order
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]domain.OrderItem{}, v...)
	}
	return c
}

// mockCheckoutRepository applies each unit of work to a copy of the state
// and publishes the copy only on success, mirroring transaction semantics.
type mockCheckoutRepository struct {
	state *checkoutState

	forceCouponExhausted bool
	failClearCart        bool
}

func (m *mockCheckoutRepository) WithinTx(ctx context.Context, fn func(tx repository.CheckoutTx) error) error {
	work := m.state.clone()
	if err := fn(&mockCheckoutTx{state: work, repo: m}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type mockCheckoutTx struct {
	state *checkoutState
	repo  *mockCheckoutRepository
}

func (t *mockCheckoutTx) CartForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, []domain.CartLine, error) {
	cartID, ok := t.state.cartIDs[userID]
	if !ok {
		return uuid.Nil, nil, nil
	}
	return cartID, t.state.cartLines[cartID], nil
}

func (t *mockCheckoutTx) DiscountsFor(ctx context.Context, productIDs, categoryIDs []uuid.UUID) ([]*domain.Discount, error) {
	matches := []*domain.Discount{}
	for _, d := range t.state.discounts {
		if d.ProductID != nil && containsID(productIDs, *d.ProductID) {
			matches = append(matches, d)
		}
		if d.CategoryID != nil && containsID(categoryIDs, *d.CategoryID) {
			matches = append(matches, d)
		}
	}
	return matches, nil
}

func (t *mockCheckoutTx) AddressBelongsTo(ctx context.Context, addressID, userID uuid.UUID) (bool, error) {
	owner, ok := t.state.addresses[addressID]
	return ok && owner == userID, nil
}

func (t *mockCheckoutTx) CouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	for _, c := range t.state.coupons {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return nil, repository.ErrCouponNotFound
}

func (t *mockCheckoutTx) CreateOrder(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	stored := *order
	t.state.orders[order.ID] = &stored
	t.state.orderItems[order.ID] = append([]domain.OrderItem{}, items...)
	return nil
}

func (t *mockCheckoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if t.state.stock[productID] < quantity {
		return repository.ErrInsufficientStock
	}
	t.state.stock[productID] -= quantity
	return nil
}

func (t *mockCheckoutTx) RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	t.state.stock[productID] += quantity
	return nil
}

func (t *mockCheckoutTx) IncrementCouponUsage(ctx context.Context, couponID uuid.UUID) error {
	if t.repo.forceCouponExhausted {
		return repository.ErrCouponExhausted
	}
	coupon, ok := t.state.coupons[couponID]
	if !ok {
		return repository.ErrCouponNotFound
	}
	if coupon.Exhausted() {
		return repository.ErrCouponExhausted
	}
	coupon.UsedCount++
	return nil
}

func (t *mockCheckoutTx) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if t.repo.failClearCart {
		return errors.New("simulated cart clear failure")
	}
	t.state.cartLines[cartID] = nil
	return nil
}

func (t *mockCheckoutTx) OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, ok := t.state.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (t *mockCheckoutTx) OrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	return t.state.orderItems[orderID], nil
}

func (t *mockCheckoutTx) SetOrderStatus(ctx context.Context, order *domain.Order) error {
	stored, ok := t.state.orders[order.ID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.ShippedDate = order.ShippedDate
	stored.DeliveredDate = order.DeliveredDate
	return nil
}

// mockOrderRepository serves the read side off the same state.
type mockOrderRepository struct {
	repo         *mockCheckoutRepository
	productNames map[uuid.UUID]string
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := m.repo.state.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderRepository) FindDetail(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.OrderDetail, error) {
	order, ok := m.repo.state.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if userID != nil && order.UserID != *userID {
		return nil, repository.ErrOrderNotFound
	}

	detail := &domain.OrderDetail{Order: *order, UserName: "Avery Shopper"}
	for _, item := range m.repo.state.orderItems[orderID] {
		detail.Items = append(detail.Items, domain.OrderItemDetail{
			OrderItem:   item,
			ProductName: m.productNames[item.ProductID],
		})
	}
	return detail, nil
}

func (m *mockOrderRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	for _, o := range m.repo.state.orders {
		if o.UserID == userID {
			copied := *o
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) ListAll(ctx context.Context, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	orders := []*domain.Order{}
	for _, o := range m.repo.state.orders {
		if status == nil || o.Status == *status {
			copied := *o
			orders = append(orders, &copied)
		}
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	stored, ok := m.repo.state.orders[order.ID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.ShippedDate = order.ShippedDate
	stored.DeliveredDate = order.DeliveredDate
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// checkoutFixture wires a user whose cart holds 2 units of a 100.00
// product carrying a 20% discount, plus a 10% coupon with a 150.00
// minimum.
type checkoutFixture struct {
	userID    uuid.UUID
	addressID uuid.UUID
	cartID    uuid.UUID
	productID uuid.UUID
	couponID  uuid.UUID

	checkoutRepo *mockCheckoutRepository
	orderRepo    *mockOrderRepository
	service      OrderService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		userID:    uuid.New(),
		addressID: uuid.New(),
		cartID:    uuid.New(),
		productID: uuid.New(),
		couponID:  uuid.New(),
	}

	categoryID := uuid.New()
	product := &domain.Product{
		ID:         f.productID,
		Name:       "Walnut Desk",
		Price:      decimal.RequireFromString("100.00"),
		CategoryID: categoryID,
		Status:     domain.ProductActive,
	}

	discountTarget := f.productID
	minimum := decimal.RequireFromString("150.00")

	state := &checkoutState{
		cartIDs: map[uuid.UUID]uuid.UUID{f.userID: f.cartID},
		cartLines: map[uuid.UUID][]domain.CartLine{
			f.cartID: {
				{
					Item:    domain.CartItem{ID: uuid.New(), CartID: f.cartID, ProductID: f.productID, Quantity: 2},
					Product: product,
				},
			},
		},
		addresses: map[uuid.UUID]uuid.UUID{f.addressID: f.userID},
		discounts: []*domain.Discount{
			{
				ID:         uuid.New(),
				Name:       "Desk Sale",
				Percentage: decimal.NewFromInt(20),
				StartDate:  time.Now().Add(-time.Hour),
				EndDate:    time.Now().Add(time.Hour),
				IsActive:   true,
				ProductID:  &discountTarget,
			},
		},
		coupons: map[uuid.UUID]*domain.Coupon{
			f.couponID: {
				ID:                 f.couponID,
				Code:               "SAVE10",
				DiscountPercentage: decimal.NewFromInt(10),
				ExpiryDate:         time.Now().Add(24 * time.Hour),
				IsActive:           true,
				MinimumOrderAmount: &minimum,
			},
		},
		stock:      map[uuid.UUID]int{f.productID: 10},
		orders:     make(map[uuid.UUID]*domain.Order),
		orderItems: make(map[uuid.UUID][]domain.OrderItem),
	}

	f.checkoutRepo = &mockCheckoutRepository{state: state}
	f.orderRepo = &mockOrderRepository{
		repo:         f.checkoutRepo,
		productNames: map[uuid.UUID]string{f.productID: "Walnut Desk"},
	}
	f.service = NewOrderService(f.checkoutRepo, f.orderRepo, zap.NewNop())
	return f
}

func (f *checkoutFixture) checkoutInput() CheckoutInput {
	return CheckoutInput{
		AddressID:     f.addressID,
		PaymentMethod: "CashOnDelivery",
		CouponCode:    "SAVE10",
	}
}

func TestCheckout_PricesDiscountsAndCoupon(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	detail, err := f.service.Checkout(ctx, f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	order := detail.Order
	if !order.OrderTotal.Equal(decimal.RequireFromString("160.00")) {
		t.Errorf("order total: want 160.00, got %s", order.OrderTotal)
	}
	if !order.ProductDiscountAmount.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("product discount: want 40.00, got %s", order.ProductDiscountAmount)
	}
	if order.CouponDiscountAmount == nil || !order.CouponDiscountAmount.Equal(decimal.RequireFromString("16.00")) {
		t.Errorf("coupon discount: want 16.00, got %v", order.CouponDiscountAmount)
	}
	if !order.FinalAmount.Equal(decimal.RequireFromString("144.00")) {
		t.Errorf("final amount: want 144.00, got %s", order.FinalAmount)
	}
	if order.Status != domain.OrderPending {
		t.Errorf("new order should be pending, got %s", order.Status)
	}

	if len(detail.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(detail.Items))
	}
	item := detail.Items[0]
	if !item.UnitPrice.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("unit price: want 100.00, got %s", item.UnitPrice)
	}
	if item.DiscountedUnitPrice == nil || !item.DiscountedUnitPrice.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("discounted unit price: want 80.00, got %v", item.DiscountedUnitPrice)
	}

	state := f.checkoutRepo.state
	if state.stock[f.productID] != 8 {
		t.Errorf("stock should drop 10 to 8, got %d", state.stock[f.productID])
	}
	if len(state.cartLines[f.cartID]) != 0 {
		t.Error("cart should be cleared after checkout")
	}
	if state.coupons[f.couponID].UsedCount != 1 {
		t.Errorf("coupon usage should be recorded once, got %d", state.coupons[f.couponID].UsedCount)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	f.checkoutRepo.state.cartLines[f.cartID] = nil

	_, err := f.service.Checkout(context.Background(), f.userID, f.checkoutInput())
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func TestCheckout_AddressNotOwned(t *testing.T) {
	f := newCheckoutFixture()
	f.checkoutRepo.state.addresses[f.addressID] = uuid.New()

	_, err := f.service.Checkout(context.Background(), f.userID, f.checkoutInput())
	if !errors.Is(err, ErrCheckoutAddress) {
		t.Fatalf("expected ErrCheckoutAddress, got %v", err)
	}
}

func TestCheckout_InvalidPaymentMethod(t *testing.T) {
	f := newCheckoutFixture()
	input := f.checkoutInput()
	input.PaymentMethod = "Barter"

	_, err := f.service.Checkout(context.Background(), f.userID, input)
	if !errors.Is(err, ErrPaymentMethod) {
		t.Fatalf("expected ErrPaymentMethod, got %v", err)
	}
}

func TestCheckout_CouponRejectionAbortsEverything(t *testing.T) {
	f := newCheckoutFixture()
	f.checkoutRepo.state.coupons[f.couponID].ExpiryDate = time.Now().Add(-time.Hour)

	_, err := f.service.Checkout(context.Background(), f.userID, f.checkoutInput())

	var rejection *CouponRejectedError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected CouponRejectedError, got %v", err)
	}
	if rejection.Message != "Coupon has expired" {
		t.Errorf("unexpected message %q", rejection.Message)
	}

	assertNothingPersisted(t, f)
}

func TestCheckout_InsufficientStockRollsBack(t *testing.T) {
	f := newCheckoutFixture()
	f.checkoutRepo.state.stock[f.productID] = 1

	_, err := f.service.Checkout(context.Background(), f.userID, f.checkoutInput())
	if !errors.Is(err, ErrStockShort) {
		t.Fatalf("expected ErrStockShort, got %v", err)
	}

	if f.checkoutRepo.state.stock[f.productID] != 1 {
		t.Errorf("stock must be untouched after rollback, got %d", f.checkoutRepo.state.stock[f.productID])
	}
	assertNothingPersisted(t, f)
}

func TestCheckout_CouponConsumedConcurrentlyRollsBack(t *testing.T) {
	f := newCheckoutFixture()
	// The coupon passes validation but another checkout takes the last
	// use before the increment.
	f.checkoutRepo.forceCouponExhausted = true

	_, err := f.service.Checkout(context.Background(), f.userID, f.checkoutInput())

	var rejection *CouponRejectedError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected CouponRejectedError, got %v", err)
	}
	if rejection.Message != "Coupon usage limit reached" {
		t.Errorf("unexpected message %q", rejection.Message)
	}

	if f.checkoutRepo.state.stock[f.productID] != 10 {
		t.Errorf("stock decrement must roll back, got %d", f.checkoutRepo.state.stock[f.productID])
	}
	assertNothingPersisted(t, f)
}

func TestCheckout_CartClearFailureRollsBack(t *testing.T) {
	f := newCheckoutFixture()
	f.checkoutRepo.failClearCart = true

	_, err := f.service.Checkout(context.Background(), f.userID, f.checkoutInput())
	if err == nil {
		t.Fatal("expected checkout to fail")
	}

	if f.checkoutRepo.state.stock[f.productID] != 10 {
		t.Errorf("stock must be untouched, got %d", f.checkoutRepo.state.stock[f.productID])
	}
	if f.checkoutRepo.state.coupons[f.couponID].UsedCount != 0 {
		t.Error("coupon usage must roll back with the rest")
	}
	assertNothingPersisted(t, f)
}

func assertNothingPersisted(t *testing.T, f *checkoutFixture) {
	t.Helper()
	if len(f.checkoutRepo.state.orders) != 0 {
		t.Error("no order may persist after a failed checkout")
	}
	if len(f.checkoutRepo.state.cartLines[f.cartID]) == 0 {
		t.Error("cart must keep its lines after a failed checkout")
	}
}

func TestCancel_RestoresStockExactlyOnce(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	detail, err := f.service.Checkout(ctx, f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if f.checkoutRepo.state.stock[f.productID] != 8 {
		t.Fatalf("precondition: stock should be 8, got %d", f.checkoutRepo.state.stock[f.productID])
	}

	if err := f.service.Cancel(ctx, f.userID, detail.Order.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if got := f.checkoutRepo.state.stock[f.productID]; got != 10 {
		t.Errorf("stock should be restored to 10, got %d", got)
	}
	if f.checkoutRepo.state.orders[detail.Order.ID].Status != domain.OrderCancelled {
		t.Error("order should be cancelled")
	}

	// A second cancel must not restore stock again.
	err = f.service.Cancel(ctx, f.userID, detail.Order.ID)
	if !errors.Is(err, ErrOnlyPendingCancellable) {
		t.Fatalf("expected ErrOnlyPendingCancellable on repeat cancel, got %v", err)
	}
	if got := f.checkoutRepo.state.stock[f.productID]; got != 10 {
		t.Errorf("repeat cancel must not change stock, got %d", got)
	}
}

func TestCancel_NonPendingRejected(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	detail, err := f.service.Checkout(ctx, f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	f.checkoutRepo.state.orders[detail.Order.ID].Status = domain.OrderShipped

	err = f.service.Cancel(ctx, f.userID, detail.Order.ID)
	if !errors.Is(err, ErrOnlyPendingCancellable) {
		t.Fatalf("expected ErrOnlyPendingCancellable, got %v", err)
	}
	if got := f.checkoutRepo.state.stock[f.productID]; got != 8 {
		t.Errorf("rejected cancel must not touch stock, got %d", got)
	}
}

func TestCancel_OtherUsersOrder(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	detail, err := f.service.Checkout(ctx, f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	err = f.service.Cancel(ctx, uuid.New(), detail.Order.ID)
	if !errors.Is(err, repository.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
}

func TestUpdateStatus_ShippedStampsDate(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	detail, err := f.service.Checkout(ctx, f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	order, err := f.service.UpdateStatus(ctx, detail.Order.ID, "Shipped")
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if order.Status != domain.OrderShipped {
		t.Errorf("expected shipped, got %s", order.Status)
	}
	if order.ShippedDate == nil {
		t.Error("shipped date must be stamped")
	}

	order, err = f.service.UpdateStatus(ctx, detail.Order.ID, "Delivered")
	if err != nil {
		t.Fatalf("UpdateStatus to delivered failed: %v", err)
	}
	if order.DeliveredDate == nil {
		t.Error("delivered date must be stamped")
	}

	// Delivered is terminal.
	if _, err := f.service.UpdateStatus(ctx, detail.Order.ID, "Processing"); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition from delivered, got %v", err)
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.UpdateStatus(context.Background(), uuid.New(), "Teleported")
	if !errors.Is(err, domain.ErrInvalidOrderStatus) {
		t.Fatalf("expected ErrInvalidOrderStatus, got %v", err)
	}
}

func TestGet_DeletedProductGetsPlaceholderName(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	detail, err := f.service.Checkout(ctx, f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	// Product disappears from the catalog after the sale.
	delete(f.orderRepo.productNames, f.productID)

	got, err := f.service.Get(ctx, detail.Order.ID, &f.userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Items[0].ProductName != PlaceholderProductName {
		t.Errorf("expected placeholder name, got %q", got.Items[0].ProductName)
	}
}
