package controllers

import (
	"net/http"

	"github.com/velora-dev/storefront-backend/api/responses"
	"github.com/velora-dev/storefront-backend/api/validators"
	ordersvc "github.com/velora-dev/storefront-backend/internal/orders"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
	"github.com/velora-dev/storefront-backend/pkg/logger"
)

type orderStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"`
}

// AdminOrderDetail returns any order regardless of owner.
func AdminOrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetAny(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminOrderStatus moves an order along the lifecycle on behalf of staff.
func AdminOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			OrderID:      orderID,
			ActorID:      actorID,
			To:           status,
			CancelReason: payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
