package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
	"github.com/velora-dev/storefront-backend/pkg/pagination"
)

// Page is one cursor page of a user's notifications.
type Page struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// Service records and serves in-app notifications. The order lifecycle calls
// the two Order hooks after its transaction commits.
type Service interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus) error
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires the notification dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) OrderCreated(ctx context.Context, order *models.Order) error {
	refID := order.ID
	return s.repo.Create(ctx, &models.Notification{
		UserID:      order.UserID,
		Type:        enums.NotificationTypeOrderCreated,
		Title:       "Order placed",
		Message:     fmt.Sprintf("Your order %s has been placed.", order.OrderCode),
		ReferenceID: &refID,
	})
}

func (s *service) OrderStatusChanged(ctx context.Context, order *models.Order, from enums.OrderStatus) error {
	refID := order.ID
	return s.repo.Create(ctx, &models.Notification{
		UserID:      order.UserID,
		Type:        enums.NotificationTypeOrderStatus,
		Title:       "Order updated",
		Message:     fmt.Sprintf("Your order %s moved from %s to %s.", order.OrderCode, from, order.Status),
		ReferenceID: &refID,
	})
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*Page, error) {
	items, cursor, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return &Page{Items: items, Cursor: cursor}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	affected, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}
