package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rahulmenon/bazario-backend/api/responses"
	"github.com/rahulmenon/bazario-backend/api/validators"
	"github.com/rahulmenon/bazario-backend/internal/orders"
	"github.com/rahulmenon/bazario-backend/pkg/db/models"
	pkgerrors "github.com/rahulmenon/bazario-backend/pkg/errors"
	"github.com/rahulmenon/bazario-backend/pkg/logger"
)

type createOrderRequest struct {
	VendorID uuid.UUID              `json:"vendor_id" validate:"required,uuid4"`
	Items    []orderLineItemRequest `json:"items" validate:"required,min=1,dive"`
	Currency string                 `json:"currency,omitempty" validate:"omitempty,oneof=INR USD"`
}

type orderLineItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required,uuid4"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type checkoutSessionResponse struct {
	Order          orderResponse `json:"order"`
	GatewayOrderID string        `json:"gateway_order_id"`
	GatewayKeyID   string        `json:"gateway_key_id"`
	Amount         int           `json:"amount"`
	Currency       string        `json:"currency"`
}

type orderResponse struct {
	ID               uuid.UUID           `json:"id"`
	VendorID         uuid.UUID           `json:"vendor_id"`
	Currency         string              `json:"currency"`
	TotalAmount      int                 `json:"total_amount"`
	PlatformFee      int                 `json:"platform_fee"`
	VendorAmount     int                 `json:"vendor_amount"`
	Status           string              `json:"status"`
	GatewayOrderID   *string             `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string             `json:"gateway_payment_id,omitempty"`
	Items            []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int       `json:"unit_price"`
	Quantity  int       `json:"quantity"`
}

// OrderCreate validates the cart and opens a checkout session.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			VendorID: payload.VendorID,
			Currency: payload.Currency,
		}
		for _, line := range payload.Items {
			input.Items = append(input.Items, orders.OrderLineInput{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}

		session, err := svc.CreateOrder(r.Context(), customerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutSessionResponse(session))
	}
}

// OrderRetryGateway re-attempts gateway registration for a pending order.
func OrderRetryGateway(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.RetryGatewayOrder(r.Context(), customerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCheckoutSessionResponse(session))
	}
}

// OrderGet returns a single order, visible only to the customer that placed it.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// Foreign orders look absent rather than forbidden.
		if order.CustomerID != customerID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrdersForCustomer lists the caller's purchase history.
func OrdersForCustomer(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		customerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// OrdersForVendor lists incoming orders for the caller's storefront.
func OrdersForVendor(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		ownerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForVendorOwner(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

func newCheckoutSessionResponse(session *orders.CheckoutSession) checkoutSessionResponse {
	if session == nil {
		return checkoutSessionResponse{}
	}
	return checkoutSessionResponse{
		Order:          newOrderResponse(session.Order),
		GatewayOrderID: session.GatewayOrderID,
		GatewayKeyID:   session.GatewayKeyID,
		Amount:         session.Amount,
		Currency:       session.Currency,
	}
}

func newOrderListResponse(list []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for i := range list {
		out = append(out, newOrderResponse(&list[i]))
	}
	return out
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return orderResponse{
		ID:               order.ID,
		VendorID:         order.VendorID,
		Currency:         order.Currency.String(),
		TotalAmount:      order.TotalAmount,
		PlatformFee:      order.PlatformFee,
		VendorAmount:     order.VendorAmount,
		Status:           order.Status.String(),
		GatewayOrderID:   order.GatewayOrderID,
		GatewayPaymentID: order.GatewayPaymentID,
		Items:            items,
	}
}
