package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/api/controllers/actorcontext"
	"github.com/equiptrade/fulfillment-backend/api/controllers/views"
	"github.com/equiptrade/fulfillment-backend/api/responses"
	"github.com/equiptrade/fulfillment-backend/api/validators"
	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

// inboxHandler resolves the caller before fn runs. Notifications are always
// scoped to the authenticated recipient.
func inboxHandler(svc notifications.Service, logg *logger.Logger, fn func(r *http.Request, recipientID uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		recipientID, err := actorcontext.ResolveUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body, err := fn(r, recipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, body)
	}
}

// ListNotifications pages through the caller's inbox, newest first.
// Query: limit, cursor, unreadOnly.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, recipientID uuid.UUID) (any, error) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unreadOnly")
		if err != nil {
			return nil, err
		}
		result, err := svc.List(r.Context(), notifications.ListParams{
			RecipientID: recipientID,
			Limit:       page.Limit,
			Cursor:      page.Cursor,
			UnreadOnly:  unreadOnly,
		})
		if err != nil {
			return nil, err
		}
		return views.NewNotificationPage(result), nil
	})
}

func UnreadNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, recipientID uuid.UUID) (any, error) {
		count, err := svc.UnreadCount(r.Context(), recipientID)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"unread": count}, nil
	})
}

// MarkNotificationRead answers 404 for a notification owned by someone else.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, recipientID uuid.UUID) (any, error) {
		notificationID, err := actorcontext.URLParamUUID(r, "notificationId")
		if err != nil {
			return nil, err
		}
		if err := svc.MarkRead(r.Context(), recipientID, notificationID); err != nil {
			return nil, err
		}
		return map[string]bool{"read": true}, nil
	})
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return inboxHandler(svc, logg, func(r *http.Request, recipientID uuid.UUID) (any, error) {
		updated, err := svc.MarkAllRead(r.Context(), recipientID)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"updated": updated}, nil
	})
}
