package orders

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rahulmenon/bazario-backend/internal/products"
	"github.com/rahulmenon/bazario-backend/internal/vendors"
	"github.com/rahulmenon/bazario-backend/pkg/db/models"
	"github.com/rahulmenon/bazario-backend/pkg/enums"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
	"github.com/rahulmenon/bazario-backend/pkg/logger"
	"github.com/rahulmenon/bazario-backend/pkg/razorpay"
)

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) error {
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.GatewayOrderID != nil && *order.GatewayOrderID == gatewayOrderID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) SetGatewayOrder(_ context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	if order, ok := s.orders[orderID]; ok {
		ref := gatewayOrderID
		order.GatewayOrderID = &ref
	}
	return nil
}

func (s *stubOrderRepo) MarkPaid(_ context.Context, orderID uuid.UUID, gatewayPaymentID string) (int64, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status != enums.OrderStatusPending {
		return 0, nil
	}
	order.Status = enums.OrderStatusPaid
	pid := gatewayPaymentID
	order.GatewayPaymentID = &pid
	return 1, nil
}

func (s *stubOrderRepo) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) ListByVendor(_ context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.VendorID == vendorID {
			out = append(out, *order)
		}
	}
	return out, nil
}

type stubProductRepo struct {
	products   map[uuid.UUID]*models.Product
	exhausted  map[uuid.UUID]bool
	decrements map[uuid.UUID]int
}

func newStubProductRepo(items ...*models.Product) *stubProductRepo {
	s := &stubProductRepo{
		products:   map[uuid.UUID]*models.Product{},
		exhausted:  map[uuid.UUID]bool{},
		decrements: map[uuid.UUID]int{},
	}
	for _, item := range items {
		s.products[item.ID] = item
	}
	return s
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) products.Repository {
	return s
}

func (s *stubProductRepo) Create(context.Context, *models.Product) error {
	return nil
}

func (s *stubProductRepo) Update(context.Context, *models.Product) error {
	return nil
}

func (s *stubProductRepo) Delete(context.Context, uuid.UUID) error {
	return nil
}

func (s *stubProductRepo) List(context.Context) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductRepo) ListByVendor(context.Context, uuid.UUID) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (s *stubProductRepo) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) (int64, error) {
	if s.exhausted[productID] {
		return 0, nil
	}
	s.decrements[productID] += quantity
	return 1, nil
}

type stubVendorRepo struct {
	vendors map[uuid.UUID]*models.Vendor
	byOwner map[uuid.UUID]uuid.UUID
	credits map[uuid.UUID]int
}

func newStubVendorRepo(records ...*models.Vendor) *stubVendorRepo {
	s := &stubVendorRepo{
		vendors: map[uuid.UUID]*models.Vendor{},
		byOwner: map[uuid.UUID]uuid.UUID{},
		credits: map[uuid.UUID]int{},
	}
	for _, record := range records {
		s.vendors[record.ID] = record
		s.byOwner[record.OwnerID] = record.ID
	}
	return s
}

func (s *stubVendorRepo) WithTx(tx *gorm.DB) vendors.Repository {
	return s
}

func (s *stubVendorRepo) Create(context.Context, *models.Vendor) error {
	return nil
}

func (s *stubVendorRepo) List(context.Context) ([]models.Vendor, error) {
	return nil, nil
}

func (s *stubVendorRepo) FindBySlug(context.Context, string) (*models.Vendor, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubVendorRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, ok := s.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return vendor, nil
}

func (s *stubVendorRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID) (*models.Vendor, error) {
	id, ok := s.byOwner[ownerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vendors[id], nil
}

func (s *stubVendorRepo) IncrementPayout(_ context.Context, vendorID uuid.UUID, amount int) (int64, error) {
	if _, ok := s.vendors[vendorID]; !ok {
		return 0, nil
	}
	s.credits[vendorID] += amount
	return 1, nil
}

type stubGateway struct {
	keyID       string
	nextOrderID string
	err         error
	validSig    string
	calls       int
}

func (s *stubGateway) KeyID() string { return s.keyID }

func (s *stubGateway) CreateOrder(_ context.Context, receipt string, amount int, currency enums.Currency) (*razorpay.Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &razorpay.Order{
		ID:       s.nextOrderID,
		Amount:   amount,
		Currency: currency.String(),
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (s *stubGateway) VerifySignature(_, _, signature string) bool {
	return signature == s.validSig
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc         Service
	orderRepo   *stubOrderRepo
	productRepo *stubProductRepo
	vendorRepo  *stubVendorRepo
	gateway     *stubGateway
	vendor      *models.Vendor
	product     *models.Product
	customerID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	vendor := &models.Vendor{ID: uuid.New(), OwnerID: uuid.New(), Name: "Terra Pots", Slug: "terra-pots"}
	product := &models.Product{
		ID:       uuid.New(),
		VendorID: vendor.ID,
		Name:     "Clay Planter",
		Price:    1200,
		Stock:    10,
	}

	orderRepo := newStubOrderRepo()
	productRepo := newStubProductRepo(product)
	vendorRepo := newStubVendorRepo(vendor)
	gateway := &stubGateway{keyID: "rzp_test_key", nextOrderID: "order_rzp_1", validSig: "good-signature"}

	svc, err := NewService(ServiceConfig{
		Repo:        orderRepo,
		ProductRepo: productRepo,
		VendorRepo:  vendorRepo,
		Gateway:     gateway,
		Tx:          stubTxRunner{},
		FeePercent:  20,
		Currency:    enums.CurrencyINR,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &fixture{
		svc:         svc,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		vendorRepo:  vendorRepo,
		gateway:     gateway,
		vendor:      vendor,
		product:     product,
		customerID:  uuid.New(),
	}
}

func (f *fixture) createOrder(t *testing.T, quantity int) *CheckoutSession {
	t.Helper()
	session, err := f.svc.CreateOrder(context.Background(), f.customerID, CreateOrderInput{
		VendorID: f.vendor.ID,
		Items:    []OrderLineInput{{ProductID: f.product.ID, Quantity: quantity}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return session
}

func TestCreateOrderComputesSplitAndSnapshots(t *testing.T) {
	f := newFixture(t)

	session := f.createOrder(t, 3)

	order := session.Order
	if order.TotalAmount != 3600 {
		t.Fatalf("expected total 3600, got %d", order.TotalAmount)
	}
	if order.PlatformFee != 720 || order.VendorAmount != 2880 {
		t.Fatalf("unexpected split fee=%d vendor=%d", order.PlatformFee, order.VendorAmount)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Name != "Clay Planter" || order.Items[0].UnitPrice != 1200 {
		t.Fatalf("snapshot not taken: %+v", order.Items)
	}

	if session.GatewayOrderID != "order_rzp_1" {
		t.Fatalf("expected gateway order id, got %q", session.GatewayOrderID)
	}
	if session.GatewayKeyID != "rzp_test_key" {
		t.Fatalf("expected public key id in session, got %q", session.GatewayKeyID)
	}
	if session.Amount != 3600 {
		t.Fatalf("session amount mismatch: %d", session.Amount)
	}

	stored, err := f.orderRepo.FindByGatewayOrderID(context.Background(), "order_rzp_1")
	if err != nil {
		t.Fatalf("order not linked to gateway reference: %v", err)
	}
	if stored.ID != order.ID {
		t.Fatalf("gateway reference points at wrong order")
	}
}

func TestCreateOrderRejectsForeignProduct(t *testing.T) {
	f := newFixture(t)

	otherVendor := &models.Vendor{ID: uuid.New(), OwnerID: uuid.New(), Name: "Other", Slug: "other"}
	f.vendorRepo.vendors[otherVendor.ID] = otherVendor

	_, err := f.svc.CreateOrder(context.Background(), f.customerID, CreateOrderInput{
		VendorID: otherVendor.ID,
		Items:    []OrderLineInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeVendorMismatch) {
		t.Fatalf("expected vendor mismatch, got %v", err)
	}
	if len(f.orderRepo.orders) != 0 {
		t.Fatalf("no order should persist on rejection")
	}
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), f.customerID, CreateOrderInput{
		VendorID: f.vendor.ID,
		Items:    []OrderLineInput{{ProductID: f.product.ID, Quantity: 11}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(f.orderRepo.orders) != 0 {
		t.Fatalf("no order should persist on rejection")
	}
}

func TestCreateOrderGatewayFailureLeavesOrderPending(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeGatewayDown, "gateway returned 503")

	_, err := f.svc.CreateOrder(context.Background(), f.customerID, CreateOrderInput{
		VendorID: f.vendor.ID,
		Items:    []OrderLineInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeGatewayDown) {
		t.Fatalf("expected gateway down error, got %v", err)
	}

	if len(f.orderRepo.orders) != 1 {
		t.Fatalf("order should persist before the gateway call")
	}
	for _, order := range f.orderRepo.orders {
		if order.Status != enums.OrderStatusPending {
			t.Fatalf("expected PENDING after gateway failure, got %s", order.Status)
		}
		if order.GatewayOrderID != nil {
			t.Fatalf("gateway reference should stay empty on failure")
		}
	}
}

func TestRetryGatewayOrderRegistersMissingReference(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeGatewayDown, "gateway returned 503")

	_, err := f.svc.CreateOrder(context.Background(), f.customerID, CreateOrderInput{
		VendorID: f.vendor.ID,
		Items:    []OrderLineInput{{ProductID: f.product.ID, Quantity: 1}},
	})
	if err == nil {
		t.Fatal("expected gateway failure")
	}

	var orderID uuid.UUID
	for id := range f.orderRepo.orders {
		orderID = id
	}

	f.gateway.err = nil
	session, err := f.svc.RetryGatewayOrder(context.Background(), f.customerID, orderID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if session.GatewayOrderID != "order_rzp_1" {
		t.Fatalf("expected fresh gateway reference, got %q", session.GatewayOrderID)
	}
}

func TestRetryGatewayOrderReplaysExistingSession(t *testing.T) {
	f := newFixture(t)

	session := f.createOrder(t, 1)
	callsAfterCreate := f.gateway.calls

	replayed, err := f.svc.RetryGatewayOrder(context.Background(), f.customerID, session.Order.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if replayed.GatewayOrderID != session.GatewayOrderID {
		t.Fatalf("expected same gateway reference, got %q", replayed.GatewayOrderID)
	}
	if f.gateway.calls != callsAfterCreate {
		t.Fatalf("retry must not re-register an order that already has a reference")
	}
}

func TestRetryGatewayOrderEnforcesOwnership(t *testing.T) {
	f := newFixture(t)

	session := f.createOrder(t, 1)

	_, err := f.svc.RetryGatewayOrder(context.Background(), uuid.New(), session.Order.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestConfirmPaymentInvalidSignatureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	session := f.createOrder(t, 2)

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "tampered",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	order := f.orderRepo.orders[session.Order.ID]
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("order must stay PENDING on bad signature, got %s", order.Status)
	}
	if f.vendorRepo.credits[f.vendor.ID] != 0 {
		t.Fatalf("no payout on bad signature")
	}
	if f.productRepo.decrements[f.product.ID] != 0 {
		t.Fatalf("no stock decrement on bad signature")
	}
}

func TestConfirmPaymentInvalidSignatureLogsWarning(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})

	vendor := &models.Vendor{ID: uuid.New(), OwnerID: uuid.New(), Name: "Terra Pots", Slug: "terra-pots"}
	product := &models.Product{ID: uuid.New(), VendorID: vendor.ID, Name: "Clay Planter", Price: 1200, Stock: 10}
	gateway := &stubGateway{keyID: "rzp_test_key", nextOrderID: "order_rzp_1", validSig: "good-signature"}

	svc, err := NewService(ServiceConfig{
		Repo:        newStubOrderRepo(),
		ProductRepo: newStubProductRepo(product),
		VendorRepo:  newStubVendorRepo(vendor),
		Gateway:     gateway,
		Tx:          stubTxRunner{},
		FeePercent:  20,
		Currency:    enums.CurrencyINR,
		Logger:      logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	session, err := svc.CreateOrder(context.Background(), uuid.New(), CreateOrderInput{
		VendorID: vendor.ID,
		Items:    []OrderLineInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err = svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "tampered",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	out := logs.String()
	if !strings.Contains(out, `"warn"`) || !strings.Contains(out, "payment signature verification failed") {
		t.Fatalf("expected warn log for rejected signature, got %q", out)
	}
	if !strings.Contains(out, session.GatewayOrderID) {
		t.Fatalf("warn log missing gateway order context: %q", out)
	}
}

func TestConfirmPaymentSettles(t *testing.T) {
	f := newFixture(t)
	session := f.createOrder(t, 2)

	order, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "good-signature",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("expected PAID, got %s", order.Status)
	}
	if order.GatewayPaymentID == nil || *order.GatewayPaymentID != "pay_1" {
		t.Fatalf("payment reference not recorded: %+v", order.GatewayPaymentID)
	}
	if got := f.vendorRepo.credits[f.vendor.ID]; got != order.VendorAmount {
		t.Fatalf("expected payout credit %d, got %d", order.VendorAmount, got)
	}
	if got := f.productRepo.decrements[f.product.ID]; got != 2 {
		t.Fatalf("expected stock decrement 2, got %d", got)
	}
}

func TestConfirmPaymentTwiceReturnsAlreadyPaid(t *testing.T) {
	f := newFixture(t)
	session := f.createOrder(t, 1)

	input := ConfirmPaymentInput{
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "good-signature",
	}

	if _, err := f.svc.ConfirmPayment(context.Background(), input); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	_, err := f.svc.ConfirmPayment(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeAlreadyPaid) {
		t.Fatalf("expected already paid, got %v", err)
	}

	// Side effects from the first confirmation only.
	if got := f.vendorRepo.credits[f.vendor.ID]; got != session.Order.VendorAmount {
		t.Fatalf("payout credited more than once: %d", got)
	}
	if got := f.productRepo.decrements[f.product.ID]; got != 1 {
		t.Fatalf("stock decremented more than once: %d", got)
	}
}

func TestConfirmPaymentStockExhaustedFails(t *testing.T) {
	f := newFixture(t)
	session := f.createOrder(t, 2)
	f.productRepo.exhausted[f.product.ID] = true

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        "good-signature",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock during settlement, got %v", err)
	}
}

func TestConfirmPaymentUnknownGatewayOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmPayment(context.Background(), ConfirmPaymentInput{
		GatewayOrderID:   "order_unknown",
		GatewayPaymentID: "pay_1",
		Signature:        "good-signature",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
