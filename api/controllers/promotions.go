package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/api/responses"
	"github.com/velora-dev/storefront-backend/api/validators"
	promosvc "github.com/velora-dev/storefront-backend/internal/promotions"
	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
	"github.com/velora-dev/storefront-backend/pkg/logger"
)

type validatePromotionRequest struct {
	Code     string `json:"code" validate:"required"`
	Subtotal int64  `json:"subtotal" validate:"required,min=1"`
}

type validatePromotionResponse struct {
	Applicable     bool   `json:"applicable"`
	Reason         string `json:"reason,omitempty"`
	DiscountAmount int64  `json:"discount_amount"`
	FreeShipping   bool   `json:"free_shipping"`
}

type createPromotionRequest struct {
	Code              string    `json:"code" validate:"required"`
	Description       *string   `json:"description"`
	DiscountType      string    `json:"discount_type" validate:"required,oneof=percentage fixed_amount free_shipping"`
	DiscountValue     int64     `json:"discount_value" validate:"min=0"`
	MinOrderAmount    int64     `json:"min_order_amount" validate:"min=0"`
	MaxDiscountAmount *int64    `json:"max_discount_amount"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required"`
	UsageLimit        *int      `json:"usage_limit"`
}

type updatePromotionRequest struct {
	Description       *string    `json:"description"`
	DiscountValue     *int64     `json:"discount_value"`
	MinOrderAmount    *int64     `json:"min_order_amount"`
	MaxDiscountAmount *int64     `json:"max_discount_amount"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	UsageLimit        *int       `json:"usage_limit"`
	Status            *string    `json:"status"`
}

type promotionResponse struct {
	ID                uuid.UUID `json:"id"`
	Code              string    `json:"code"`
	Description       *string   `json:"description,omitempty"`
	DiscountType      string    `json:"discount_type"`
	DiscountValue     int64     `json:"discount_value"`
	MinOrderAmount    int64     `json:"min_order_amount"`
	MaxDiscountAmount *int64    `json:"max_discount_amount,omitempty"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	UsageLimit        *int      `json:"usage_limit,omitempty"`
	UsedCount         int       `json:"used_count"`
	Status            string    `json:"status"`
}

func newPromotionResponse(promo *models.Promotion) promotionResponse {
	return promotionResponse{
		ID:                promo.ID,
		Code:              promo.Code,
		Description:       promo.Description,
		DiscountType:      string(promo.DiscountType),
		DiscountValue:     promo.DiscountValue,
		MinOrderAmount:    promo.MinOrderAmount,
		MaxDiscountAmount: promo.MaxDiscountAmount,
		StartDate:         promo.StartDate,
		EndDate:           promo.EndDate,
		UsageLimit:        promo.UsageLimit,
		UsedCount:         promo.UsedCount,
		Status:            string(promo.Status),
	}
}

// PromotionValidate previews what a code would do to a given subtotal. It
// never mutates the usage counter.
func PromotionValidate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validatePromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eval, err := svc.Evaluate(r.Context(), payload.Code, payload.Subtotal, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validatePromotionResponse{
			Applicable:     eval.Applicable,
			Reason:         eval.Reason,
			DiscountAmount: eval.DiscountAmount,
			FreeShipping:   eval.FreeShipping,
		})
	}
}

// PromotionCreate registers a new promotion.
func PromotionCreate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(payload.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		promo, err := svc.Create(r.Context(), promosvc.CreateInput{
			Code:              payload.Code,
			Description:       payload.Description,
			DiscountType:      discountType,
			DiscountValue:     payload.DiscountValue,
			MinOrderAmount:    payload.MinOrderAmount,
			MaxDiscountAmount: payload.MaxDiscountAmount,
			StartDate:         payload.StartDate,
			EndDate:           payload.EndDate,
			UsageLimit:        payload.UsageLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newPromotionResponse(promo))
	}
}

// PromotionUpdate edits the mutable promotion fields.
func PromotionUpdate(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := promosvc.UpdateInput{
			Description:       payload.Description,
			DiscountValue:     payload.DiscountValue,
			MinOrderAmount:    payload.MinOrderAmount,
			MaxDiscountAmount: payload.MaxDiscountAmount,
			StartDate:         payload.StartDate,
			EndDate:           payload.EndDate,
			UsageLimit:        payload.UsageLimit,
		}
		if payload.Status != nil {
			status, err := enums.ParsePromotionStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promotion status"))
				return
			}
			input.Status = &status
		}

		promo, err := svc.Update(r.Context(), promoID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionResponse(promo))
	}
}

// PromotionDelete removes a promotion.
func PromotionDelete(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), promoID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// PromotionList returns every promotion for the admin console.
func PromotionList(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]promotionResponse, 0, len(promos))
		for i := range promos {
			items = append(items, newPromotionResponse(&promos[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// PromotionDetail returns one promotion.
func PromotionDetail(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		promoID, err := pathUUID(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Get(r.Context(), promoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPromotionResponse(promo))
	}
}
