package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/errs"
	"swapyard/internal/pkg/logx"
	"swapyard/internal/pkg/resp"
)

// HandleGetPublicProfile returns a seller's public profile by username,
// together with their available listings.
func HandleGetPublicProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		if username == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		user, err := deps.Store.GetUserByUsername(r.Context(), username)
		if err != nil {
			if errors.Is(err, market.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "failed to fetch public profile", "username", username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		products, err := deps.Store.ListProductsBySeller(r.Context(), user.ID)
		if err != nil {
			logx.Error(err, "failed to list seller products", "seller_id", user.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": map[string]any{
				"id":          user.ID,
				"username":    user.Username,
				"address":     user.Address,
				"memberSince": user.CreatedAt.Format(time.RFC3339),
			},
			"products": productViews(products),
		})
	}
}
