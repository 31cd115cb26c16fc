package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tokri-app/tokri-backend/internal/orders"
	"github.com/tokri-app/tokri-backend/pkg/db/models"
	"github.com/tokri-app/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
	"github.com/tokri-app/tokri-backend/pkg/razorpay"
)

const testSecret = "test_secret"

type fakeRepository struct {
	payments map[uuid.UUID]*models.Payment
	saves    int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{payments: make(map[uuid.UUID]*models.Payment)}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, ok := f.payments[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payment
	return &clone, nil
}

func (f *fakeRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	for _, payment := range f.payments {
		if payment.OrderID == orderID {
			clone := *payment
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	for _, payment := range f.payments {
		if payment.GatewayOrderID != nil && *payment.GatewayOrderID == gatewayOrderID {
			clone := *payment
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Save(ctx context.Context, payment *models.Payment) error {
	f.saves++
	f.payments[payment.ID] = payment
	return nil
}

type fakeOrderStore struct {
	orders map[uuid.UUID]*models.Order
	saves  int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderStore) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderStore) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderStore) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			clone := *order
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderStore) Save(ctx context.Context, order *models.Order) error {
	f.saves++
	f.orders[order.ID] = order
	return nil
}

type fakeGateway struct {
	calls int
	fail  error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req razorpay.CreateOrderRequest) (*razorpay.GatewayOrder, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return &razorpay.GatewayOrder{
		ID:               "order_rzp001",
		AmountMinorUnits: req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:         req.Currency,
		Receipt:          req.Receipt,
	}, nil
}

func (f *fakeGateway) KeySecret() string { return testSecret }

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) Acquire(ctx context.Context, kind, id string) (func(), bool, error) {
	key := kind + ":" + id
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return nil, false, nil
	}
	f.held[key] = true
	return func() { delete(f.held, key) }, true, nil
}

func signPayment(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "%s|%s", gatewayOrderID, gatewayPaymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

func seedOrder(store *fakeOrderStore, finalAmount string) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "TK2024002",
		PaymentStatus: enums.PaymentStatusPending,
		FinalAmount:   decimal.RequireFromString(finalAmount),
	}
	store.orders[order.ID] = order
	return order
}

func seedPayment(repo *fakeRepository, store *fakeOrderStore, status enums.PaymentStatus, gatewayOrderID string) *models.Payment {
	order := seedOrder(store, "218")
	order.PaymentStatus = status
	payment := &models.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Method:  enums.PaymentMethodRazorpay,
		Status:  status,
		Amount:  decimal.RequireFromString("218"),
	}
	if gatewayOrderID != "" {
		payment.GatewayOrderID = &gatewayOrderID
	}
	repo.payments[payment.ID] = payment
	return payment
}

func newTestService(t *testing.T, repo Repository, store *fakeOrderStore, gateway *fakeGateway) Service {
	t.Helper()
	svc, err := NewService(repo, store, gateway, fakeTxRunner{}, &fakeLocker{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func orderPaymentStatus(t *testing.T, store *fakeOrderStore, orderID uuid.UUID) enums.PaymentStatus {
	t.Helper()
	order, ok := store.orders[orderID]
	if !ok {
		t.Fatalf("order %s missing from store", orderID)
	}
	return order.PaymentStatus
}

func TestInitiateAmountMismatchSkipsGateway(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	order := seedOrder(store, "218")
	gateway := &fakeGateway{}
	svc := newTestService(t, repo, store, gateway)

	_, err := svc.Initiate(context.Background(), InitiateInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodRazorpay,
		Amount:  decimal.RequireFromString("200"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	if gateway.calls != 0 {
		t.Fatal("mismatched amount must never reach the gateway")
	}
	if len(repo.payments) != 0 {
		t.Fatal("no payment may be persisted on mismatch")
	}
}

func TestInitiateRazorpayRegistersGatewayOrder(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	order := seedOrder(store, "218")
	gateway := &fakeGateway{}
	svc := newTestService(t, repo, store, gateway)

	payment, err := svc.Initiate(context.Background(), InitiateInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodRazorpay,
		Amount:  decimal.RequireFromString("218"),
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("status = %s, want pending", payment.Status)
	}
	if payment.GatewayOrderID == nil || *payment.GatewayOrderID != "order_rzp001" {
		t.Fatal("expected gateway order id to be stored")
	}
	if gateway.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gateway.calls)
	}
}

func TestInitiateCashOnDeliverySkipsGateway(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	order := seedOrder(store, "218")
	gateway := &fakeGateway{}
	svc := newTestService(t, repo, store, gateway)

	payment, err := svc.Initiate(context.Background(), InitiateInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodCashOnDelivery,
		Amount:  decimal.RequireFromString("218"),
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if payment.GatewayOrderID != nil {
		t.Fatal("cash on delivery must not register a gateway order")
	}
	if gateway.calls != 0 {
		t.Fatal("cash on delivery must not call the gateway")
	}
}

func TestInitiateResetsOrderPaymentStatus(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	order := seedOrder(store, "218")
	order.PaymentStatus = enums.PaymentStatusFailed
	svc := newTestService(t, repo, store, &fakeGateway{})

	// A second collection attempt after a failed one starts the order over.
	if _, err := svc.Initiate(context.Background(), InitiateInput{
		OrderID: order.ID,
		Method:  enums.PaymentMethodRazorpay,
		Amount:  decimal.RequireFromString("218"),
	}); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if got := orderPaymentStatus(t, store, order.ID); got != enums.PaymentStatusPending {
		t.Fatalf("order payment status = %s, want pending", got)
	}
}

func TestConfirmWithValidSignature(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	payment := seedPayment(repo, store, enums.PaymentStatusPending, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	confirmed, err := svc.Confirm(context.Background(), ConfirmInput{
		PaymentID:        payment.ID,
		GatewayPaymentID: "pay_abc123",
		Signature:        signPayment("order_rzp001", "pay_abc123"),
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.PaymentStatusCompleted {
		t.Fatalf("status = %s, want completed", confirmed.Status)
	}
	if confirmed.GatewayPaymentID == nil || *confirmed.GatewayPaymentID != "pay_abc123" {
		t.Fatal("expected gateway payment id to be stored")
	}
	if got := orderPaymentStatus(t, store, payment.OrderID); got != enums.PaymentStatusCompleted {
		t.Fatalf("order payment status = %s, want completed", got)
	}
}

func TestConfirmWithBadSignatureMarksFailed(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	payment := seedPayment(repo, store, enums.PaymentStatusPending, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	_, err := svc.Confirm(context.Background(), ConfirmInput{
		PaymentID:        payment.ID,
		GatewayPaymentID: "pay_abc123",
		Signature:        "forged",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	stored := repo.payments[payment.ID]
	if stored.Status != enums.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
	if stored.FailureReason == nil {
		t.Fatal("expected failure reason to be recorded")
	}
	if got := orderPaymentStatus(t, store, payment.OrderID); got != enums.PaymentStatusFailed {
		t.Fatalf("order payment status = %s, want failed", got)
	}
}

func TestConfirmAlreadyCompleted(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	payment := seedPayment(repo, store, enums.PaymentStatusCompleted, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	_, err := svc.Confirm(context.Background(), ConfirmInput{
		PaymentID:        payment.ID,
		GatewayPaymentID: "pay_abc123",
		Signature:        signPayment("order_rzp001", "pay_abc123"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApplyGatewayEventCaptured(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	payment := seedPayment(repo, store, enums.PaymentStatusPending, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	var event razorpay.WebhookEvent
	event.Event = razorpay.EventPaymentCaptured
	event.Payload.Payment.Entity.ID = "pay_abc123"
	event.Payload.Payment.Entity.OrderID = "order_rzp001"

	updated, err := svc.ApplyGatewayEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("apply event: %v", err)
	}
	if updated.Status != enums.PaymentStatusCompleted {
		t.Fatalf("status = %s, want completed", updated.Status)
	}
	if got := orderPaymentStatus(t, store, payment.OrderID); got != enums.PaymentStatusCompleted {
		t.Fatalf("order payment status = %s, want completed", got)
	}
}

func TestApplyGatewayEventIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	seedPayment(repo, store, enums.PaymentStatusCompleted, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	var event razorpay.WebhookEvent
	event.Event = razorpay.EventPaymentCaptured
	event.Payload.Payment.Entity.OrderID = "order_rzp001"

	if _, err := svc.ApplyGatewayEvent(context.Background(), event); err != nil {
		t.Fatalf("redelivered event must be a no-op, got %v", err)
	}
	if repo.saves != 0 || store.saves != 0 {
		t.Fatal("no-op redelivery must not persist")
	}
}

func TestApplyGatewayEventFailedRecordsReason(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	payment := seedPayment(repo, store, enums.PaymentStatusPending, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	var event razorpay.WebhookEvent
	event.Event = razorpay.EventPaymentFailed
	event.Payload.Payment.Entity.OrderID = "order_rzp001"
	event.Payload.Payment.Entity.ErrorDescription = "card declined"

	updated, err := svc.ApplyGatewayEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("apply event: %v", err)
	}
	if updated.Status != enums.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", updated.Status)
	}
	if updated.FailureReason == nil || *updated.FailureReason != "card declined" {
		t.Fatal("expected failure reason from the gateway payload")
	}
	if repo.payments[payment.ID].Status != enums.PaymentStatusFailed {
		t.Fatal("expected the stored payment to be updated")
	}
	if got := orderPaymentStatus(t, store, payment.OrderID); got != enums.PaymentStatusFailed {
		t.Fatalf("order payment status = %s, want failed", got)
	}
}

func TestRefundCompletedPayment(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	payment := seedPayment(repo, store, enums.PaymentStatusCompleted, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	refunded, err := svc.Refund(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.Status != enums.PaymentStatusRefunded {
		t.Fatalf("status = %s, want refunded", refunded.Status)
	}
	if got := orderPaymentStatus(t, store, payment.OrderID); got != enums.PaymentStatusRefunded {
		t.Fatalf("order payment status = %s, want refunded", got)
	}
}

func TestRefundPendingPaymentRejected(t *testing.T) {
	repo := newFakeRepository()
	store := newFakeOrderStore()
	payment := seedPayment(repo, store, enums.PaymentStatusPending, "order_rzp001")
	svc := newTestService(t, repo, store, &fakeGateway{})

	_, err := svc.Refund(context.Background(), payment.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if got := orderPaymentStatus(t, store, payment.OrderID); got != enums.PaymentStatusPending {
		t.Fatal("rejected refund must not touch the order")
	}
}
