package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/api/responses"
	"github.com/velora-dev/storefront-backend/api/validators"
	catalogsvc "github.com/velora-dev/storefront-backend/internal/catalog"
	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/logger"
)

type productVariantResponse struct {
	ID            uuid.UUID `json:"id"`
	SKU           string    `json:"sku"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
	UnitPrice     int64     `json:"unit_price"`
	StockQuantity int       `json:"stock_quantity"`
	Status        string    `json:"status"`
}

type productResponse struct {
	ID          uuid.UUID                `json:"id"`
	Name        string                   `json:"name"`
	Slug        string                   `json:"slug"`
	Description *string                  `json:"description,omitempty"`
	BasePrice   int64                    `json:"base_price"`
	Status      string                   `json:"status"`
	Variants    []productVariantResponse `json:"variants"`
}

type productListResponse struct {
	Items  []productResponse `json:"items"`
	Cursor string            `json:"cursor,omitempty"`
}

func newProductResponse(product models.Product) productResponse {
	variants := make([]productVariantResponse, 0, len(product.Variants))
	for _, v := range product.Variants {
		variants = append(variants, productVariantResponse{
			ID:            v.ID,
			SKU:           v.SKU,
			Size:          v.Size,
			Color:         v.Color,
			UnitPrice:     v.UnitPrice(product.BasePrice),
			StockQuantity: v.StockQuantity,
			Status:        string(v.Status),
		})
	}
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		BasePrice:   product.BasePrice,
		Status:      string(product.Status),
		Variants:    variants,
	}
}

// ProductList returns one cursor page of active products.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalogsvc.ListFilter{
			Category: r.URL.Query().Get("category"),
			Brand:    r.URL.Query().Get("brand"),
		}
		page, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(page.Items))
		for _, p := range page.Items {
			items = append(items, newProductResponse(p))
		}
		responses.WriteSuccess(w, productListResponse{Items: items, Cursor: page.Cursor})
	}
}

// ProductDetail resolves the path segment as a product id first and falls
// back to slug lookup.
func ProductDetail(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "productRef")

		var (
			product *models.Product
			err     error
		)
		if id, parseErr := uuid.Parse(ref); parseErr == nil {
			product, err = svc.Get(r.Context(), id)
		} else {
			product, err = svc.GetBySlug(r.Context(), ref)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(*product))
	}
}
