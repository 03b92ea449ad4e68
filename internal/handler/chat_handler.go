package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"swapyard/internal/app/market"
	"swapyard/internal/pkg/auth/jwt"
	"swapyard/internal/pkg/errs"
	"swapyard/internal/pkg/logx"
	"swapyard/internal/pkg/resp"
)

// HandleGetChat returns the history and product context of one chat. Only the
// two participants may read it. Clients call this after a chat_started event
// or on reconnect, before resuming real-time delivery.
func HandleGetChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		chatID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || chatID <= 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		isParticipant, err := deps.Store.IsChatParticipant(r.Context(), chatID, identity.UserID)
		if err != nil {
			logx.Error(err, "chat participant check failed", "chat_id", chatID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !isParticipant {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotChatParticipant))
			return
		}

		chat, err := deps.Store.GetChat(r.Context(), chatID)
		if err != nil {
			if errors.Is(err, market.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrChatNotFound))
				return
			}
			logx.Error(err, "failed to fetch chat", "chat_id", chatID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		messages, err := deps.Store.ListMessages(r.Context(), chatID)
		if err != nil {
			logx.Error(err, "failed to list chat messages", "chat_id", chatID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		participants, err := deps.Store.ChatParticipants(r.Context(), chatID)
		if err != nil {
			logx.Error(err, "failed to list chat participants", "chat_id", chatID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"chat": map[string]any{
				"id":             chat.ID,
				"product_id":     chat.ProductID,
				"product_name":   chat.ProductName,
				"product_status": chat.ProductStatus,
				"seller_id":      chat.SellerID,
				"participants":   participants,
			},
			"messages": messageViews(messages),
		})
	}
}
