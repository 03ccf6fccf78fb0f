package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rahulmenon/bazario-backend/internal/inventory"
	"github.com/rahulmenon/bazario-backend/internal/ledger"
	"github.com/rahulmenon/bazario-backend/internal/products"
	"github.com/rahulmenon/bazario-backend/internal/vendors"
	"github.com/rahulmenon/bazario-backend/pkg/db/models"
	"github.com/rahulmenon/bazario-backend/pkg/enums"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
	"github.com/rahulmenon/bazario-backend/pkg/logger"
	"github.com/rahulmenon/bazario-backend/pkg/metrics"
	"github.com/rahulmenon/bazario-backend/pkg/razorpay"
)

// GatewayClient is the slice of the payment gateway the orchestrator needs.
type GatewayClient interface {
	KeyID() string
	CreateOrder(ctx context.Context, receipt string, amountMinorUnits int, currency enums.Currency) (*razorpay.Order, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates checkout and settlement.
type Service interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, input CreateOrderInput) (*CheckoutSession, error)
	RetryGatewayOrder(ctx context.Context, customerID uuid.UUID, orderID uuid.UUID) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	ListForVendorOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error)
}

// ServiceConfig bundles the orchestrator's collaborators.
type ServiceConfig struct {
	Repo        Repository
	ProductRepo products.Repository
	VendorRepo  vendors.Repository
	Gateway     GatewayClient
	Tx          TxRunner
	FeePercent  int
	Currency    enums.Currency
	Metrics     *metrics.OrderMetrics
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	productRepo products.Repository
	vendorRepo  vendors.Repository
	gateway     GatewayClient
	tx          TxRunner
	feePercent  int
	currency    enums.Currency
	metrics     *metrics.OrderMetrics
	logger      *logger.Logger
}

// NewService validates collaborators and returns the order orchestrator.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if cfg.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if cfg.VendorRepo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("gateway client required")
	}
	if cfg.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cfg.FeePercent < 0 || cfg.FeePercent > 100 {
		return nil, fmt.Errorf("fee percent must be within [0,100], got %d", cfg.FeePercent)
	}
	currency := cfg.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("unsupported currency %q", currency)
	}
	return &service{
		repo:        cfg.Repo,
		productRepo: cfg.ProductRepo,
		vendorRepo:  cfg.VendorRepo,
		gateway:     cfg.Gateway,
		tx:          cfg.Tx,
		feePercent:  cfg.FeePercent,
		currency:    currency,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}, nil
}

// CreateOrder validates the cart, computes the money split, persists the
// PENDING order with item snapshots, then registers a gateway order. A gateway
// failure after persistence leaves the order PENDING without a gateway
// reference; the retry endpoint reconciles those.
func (s *service) CreateOrder(ctx context.Context, customerID uuid.UUID, input CreateOrderInput) (*CheckoutSession, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	currency := s.currency
	if input.Currency != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		currency = parsed
	}

	if _, err := s.vendorRepo.FindByID(ctx, input.VendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	requested := make([]inventory.RequestedItem, 0, len(input.Items))
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, line := range input.Items {
		requested = append(requested, inventory.RequestedItem{ProductID: line.ProductID, Quantity: line.Quantity})
		ids = append(ids, line.ProductID)
	}

	catalog, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	snapshots, err := inventory.ValidateAvailability(input.VendorID, requested, catalog)
	if err != nil {
		return nil, err
	}

	lines := make([]ledger.LineItem, 0, len(snapshots))
	for _, snap := range snapshots {
		lines = append(lines, ledger.LineItem{UnitPrice: snap.UnitPrice, Quantity: snap.Quantity})
	}
	split, err := ledger.ComputeSplit(lines, s.feePercent)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:           uuid.New(),
		CustomerID:   customerID,
		VendorID:     input.VendorID,
		Currency:     currency,
		TotalAmount:  split.TotalAmount,
		PlatformFee:  split.PlatformFee,
		VendorAmount: split.VendorAmount,
		Status:       enums.OrderStatusPending,
	}
	for _, snap := range snapshots {
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: snap.ProductID,
			Name:      snap.Name,
			UnitPrice: snap.UnitPrice,
			Quantity:  snap.Quantity,
		})
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	s.metrics.IncOrderCreated()
	s.logInfo(ctx, order, "order created")

	return s.attachGatewayOrder(ctx, order)
}

// RetryGatewayOrder re-attempts gateway registration for a PENDING order that
// has no gateway reference yet. Orders that already carry one just get their
// checkout session replayed.
func (s *service) RetryGatewayOrder(ctx context.Context, customerID uuid.UUID, orderID uuid.UUID) (*CheckoutSession, error) {
	order, err := s.loadOwnedByCustomer(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can retry gateway registration").WithDetails(map[string]any{
			"status": order.Status,
		})
	}
	if order.GatewayOrderID != nil {
		return s.session(order, *order.GatewayOrderID), nil
	}
	return s.attachGatewayOrder(ctx, order)
}

// ConfirmPayment settles a gateway callback. The signature is verified before
// any state is read or written; the PAID transition, payout increment, and
// stock decrements then commit atomically or not at all.
func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*models.Order, error) {
	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.metrics.IncGatewayFailure("signature")
		if s.logger != nil {
			lctx := s.logger.WithFields(ctx, map[string]any{
				"gateway_order_id":   input.GatewayOrderID,
				"gateway_payment_id": input.GatewayPaymentID,
			})
			s.logger.Warn(lctx, "payment signature verification failed")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSignature, "payment signature verification failed")
	}

	order, err := s.repo.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for gateway reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by gateway reference")
	}

	if order.Status == enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyPaid, "order already settled").WithDetails(map[string]any{
			"order_id": order.ID,
		})
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable").WithDetails(map[string]any{
			"status": order.Status,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		vendorRepo := s.vendorRepo.WithTx(tx)

		rows, err := orderRepo.MarkPaid(ctx, order.ID, input.GatewayPaymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if rows == 0 {
			// Lost the race with a concurrent confirmation of the same order.
			return pkgerrors.New(pkgerrors.CodeAlreadyPaid, "order already settled").WithDetails(map[string]any{
				"order_id": order.ID,
			})
		}

		rows, err = vendorRepo.IncrementPayout(ctx, order.VendorID, order.VendorAmount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit vendor payout")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeDependency, "vendor row missing during settlement")
		}

		for _, item := range order.Items {
			rows, err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("stock exhausted for %s", item.Name)).WithDetails(map[string]any{
					"product_id": item.ProductID,
					"requested":  item.Quantity,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentConfirmed()
	s.logInfo(ctx, order, "payment confirmed")

	settled, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload settled order")
	}
	return settled, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	list, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return list, nil
}

func (s *service) ListForVendorOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Order, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner identity missing")
	}
	vendor, err := s.vendorRepo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user has no vendor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor for owner")
	}
	list, err := s.repo.ListByVendor(ctx, vendor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return list, nil
}

func (s *service) attachGatewayOrder(ctx context.Context, order *models.Order) (*CheckoutSession, error) {
	gatewayOrder, err := s.gateway.CreateOrder(ctx, order.ID.String(), order.TotalAmount, order.Currency)
	if err != nil {
		kind := "rejected"
		if pkgerrors.HasCode(err, pkgerrors.CodeGatewayDown) {
			kind = "unavailable"
		}
		s.metrics.IncGatewayFailure(kind)
		s.logError(ctx, order, "gateway order creation failed", err)
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed.WithDetails(map[string]any{"order_id": order.ID})
		}
		return nil, err
	}

	if err := s.repo.SetGatewayOrder(ctx, order.ID, gatewayOrder.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway reference")
	}
	ref := gatewayOrder.ID
	order.GatewayOrderID = &ref
	return s.session(order, ref), nil
}

func (s *service) session(order *models.Order, gatewayOrderID string) *CheckoutSession {
	return &CheckoutSession{
		Order:          order,
		GatewayOrderID: gatewayOrderID,
		GatewayKeyID:   s.gateway.KeyID(),
		Amount:         order.TotalAmount,
		Currency:       order.Currency.String(),
	}
}

func (s *service) loadOwnedByCustomer(ctx context.Context, customerID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return order, nil
}

func (s *service) logInfo(ctx context.Context, order *models.Order, msg string) {
	if s.logger == nil {
		return
	}
	ctx = s.logger.WithOrderID(ctx, order.ID.String())
	ctx = s.logger.WithVendorID(ctx, order.VendorID.String())
	s.logger.Info(ctx, msg)
}

func (s *service) logError(ctx context.Context, order *models.Order, msg string, err error) {
	if s.logger == nil {
		return
	}
	ctx = s.logger.WithOrderID(ctx, order.ID.String())
	s.logger.Error(ctx, msg, err)
}
