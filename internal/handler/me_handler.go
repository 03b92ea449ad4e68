package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/auth/jwt"
	"swapyard/internal/pkg/errs"
	"swapyard/internal/pkg/logx"
	"swapyard/internal/pkg/req"
	"swapyard/internal/pkg/resp"
)

// HandleGetProfile returns the authenticated user's own account record.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		user, err := deps.Store.GetUserByID(r.Context(), identity.UserID)
		if err != nil {
			logx.Warn("profile: user not found", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": userView(user),
		})
	}
}

type UpdateProfileInput struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

// HandleUpdateProfile updates the contact fields of the authenticated user's
// account. The username is fixed at signup.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Phone = strings.TrimSpace(input.Phone)
		if !phoneRegex.MatchString(input.Phone) || strings.TrimSpace(input.FullName) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		user, err := deps.Store.UpdateProfile(
			r.Context(),
			identity.UserID,
			strings.TrimSpace(input.FullName),
			input.Phone,
			strings.TrimSpace(input.Email),
			strings.TrimSpace(input.Address),
		)
		if err != nil {
			if errors.Is(err, market.ErrDuplicate) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}
			logx.Error(err, "failed to update profile", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": userView(user),
		})
	}
}

// HandleOrders returns the authenticated user's order history, split into
// listings they are selling and listings they are buying.
func HandleOrders(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		selling, buying, err := deps.Store.ListOrders(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "failed to list orders", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"selling": productViews(selling),
			"buying":  productViews(buying),
		})
	}
}

// HandleNotifications lists the authenticated user's notifications, newest
// first. Purchase requests that arrived while the user was offline are
// recovered from here.
func HandleNotifications(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		notifications, err := deps.Store.ListNotifications(r.Context(), identity.UserID)
		if err != nil {
			logx.Error(err, "failed to list notifications", "user_id", identity.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		views := make([]NotificationView, 0, len(notifications))
		for _, n := range notifications {
			views = append(views, notificationView(n))
		}

		resp.RespondSuccess(w, r, map[string]any{
			"notifications": views,
		})
	}
}

// HandleMarkNotificationRead marks one of the authenticated user's
// notifications as read.
func HandleMarkNotificationRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		notificationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || notificationID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Store.MarkNotificationRead(r.Context(), notificationID, identity.UserID); err != nil {
			if errors.Is(err, market.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotificationNotFound))
				return
			}
			logx.Error(err, "failed to mark notification read", "notification_id", notificationID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"read": true,
		})
	}
}
