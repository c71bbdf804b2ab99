package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/velora-dev/storefront-backend/api/responses"
	"github.com/velora-dev/storefront-backend/api/validators"
	notifsvc "github.com/velora-dev/storefront-backend/internal/notifications"
	"github.com/velora-dev/storefront-backend/pkg/db/models"
	"github.com/velora-dev/storefront-backend/pkg/logger"
)

type notificationResponse struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type notificationPageResponse struct {
	Items       []notificationResponse `json:"items"`
	Cursor      string                 `json:"cursor,omitempty"`
	UnreadCount int64                  `json:"unread_count"`
}

func newNotificationResponse(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:          n.ID,
		Type:        string(n.Type),
		Title:       n.Title,
		Message:     n.Message,
		ReferenceID: n.ReferenceID,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

// NotificationList returns one cursor page of the user's notifications plus
// the unread counter.
func NotificationList(svc notifsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		page, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unread, err := svc.UnreadCount(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]notificationResponse, 0, len(page.Items))
		for _, n := range page.Items {
			items = append(items, newNotificationResponse(n))
		}
		responses.WriteSuccess(w, notificationPageResponse{
			Items:       items,
			Cursor:      page.Cursor,
			UnreadCount: unread,
		})
	}
}

// NotificationMarkRead marks one notification as read.
func NotificationMarkRead(svc notifsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID, err := pathUUID(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), notificationID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

// NotificationMarkAllRead marks every unread notification as read.
func NotificationMarkAllRead(svc notifsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkAllRead(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}
