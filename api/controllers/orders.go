package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/api/responses"
	"github.com/velora-dev/storefront-backend/api/validators"
	ordersvc "github.com/velora-dev/storefront-backend/internal/orders"
	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
	"github.com/velora-dev/storefront-backend/pkg/logger"
)

type createOrderRequest struct {
	PaymentMethod   string  `json:"payment_method" validate:"required,oneof=cod bank_transfer"`
	ShippingName    string  `json:"shipping_name" validate:"required"`
	ShippingPhone   string  `json:"shipping_phone" validate:"required"`
	ShippingAddress string  `json:"shipping_address" validate:"required"`
	Notes           *string `json:"notes"`
	PromotionCode   string  `json:"promotion_code"`
}

type cancelOrderRequest struct {
	Reason *string `json:"reason"`
}

type orderLineResponse struct {
	ProductName string `json:"product_name"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderCode       string              `json:"order_code"`
	Status          string              `json:"status"`
	TotalAmount     int64               `json:"total_amount"`
	DiscountAmount  int64               `json:"discount_amount"`
	ShippingFee     int64               `json:"shipping_fee"`
	FinalAmount     int64               `json:"final_amount"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	ShippingName    string              `json:"shipping_name"`
	ShippingPhone   string              `json:"shipping_phone"`
	ShippingAddress string              `json:"shipping_address"`
	Notes           *string             `json:"notes,omitempty"`
	CancelReason    *string             `json:"cancel_reason,omitempty"`
	Lines           []orderLineResponse `json:"lines"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	ReturnedAt      *time.Time          `json:"returned_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type orderPageResponse struct {
	Items  []orderResponse `json:"items"`
	Cursor string          `json:"cursor,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ProductName: line.ProductName,
			Size:        line.Size,
			Color:       line.Color,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Subtotal:    line.Subtotal,
		})
	}
	return orderResponse{
		ID:              order.ID,
		OrderCode:       order.OrderCode,
		Status:          string(order.Status),
		TotalAmount:     order.TotalAmount,
		DiscountAmount:  order.DiscountAmount,
		ShippingFee:     order.ShippingFee,
		FinalAmount:     order.FinalAmount,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		ShippingName:    order.ShippingName,
		ShippingPhone:   order.ShippingPhone,
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		CancelReason:    order.CancelReason,
		Lines:           lines,
		ConfirmedAt:     order.ConfirmedAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		ReturnedAt:      order.ReturnedAt,
		CreatedAt:       order.CreatedAt,
	}
}

// OrderCreate turns the authenticated user's cart into an order.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.Create(r.Context(), ordersvc.CreateInput{
			UserID:          userID,
			PaymentMethod:   method,
			ShippingName:    payload.ShippingName,
			ShippingPhone:   payload.ShippingPhone,
			ShippingAddress: payload.ShippingAddress,
			Notes:           payload.Notes,
			PromotionCode:   payload.PromotionCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// OrderList returns one cursor page of the user's order history.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(page.Items))
		for i := range page.Items {
			items = append(items, newOrderResponse(&page.Items[i]))
		}
		responses.WriteSuccess(w, orderPageResponse{Items: items, Cursor: page.Cursor})
	}
}

// OrderDetail returns one of the user's own orders.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderCancel lets the owner withdraw a pending or confirmed order.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), ordersvc.CancelInput{
			OrderID: orderID,
			UserID:  userID,
			Reason:  payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
