/*
This file contains the HandleWebSocket function, which is responsible for rate
limiting, validating the connect-time token, upgrading the HTTP connection to
WebSocket, and starting the session lifecycle.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"swapyard/internal/app/market"
	"swapyard/internal/app/realtime"
	"swapyard/internal/pkg/auth/jwt"
	"swapyard/internal/pkg/errs"
	"swapyard/internal/pkg/limiter"
	"swapyard/internal/pkg/logx"
	"swapyard/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process real-time connection
// requests. The JWT travels as the `token` query parameter because browser
// WebSocket clients cannot set an Authorization header; a missing or invalid
// token refuses the connection before the upgrade.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			logx.Warn("WebSocket request rejected: Missing token query parameter")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		identity, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket request rejected: Invalid token", "error", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		logx.Info("Attempting to upgrade connection", "user_id", identity.UserID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logx.Error(err, "WebSocket upgrade failed", "user_id", identity.UserID)
			return
		}

		session := realtime.NewSession(deps.Hub, conn, market.UserRef{
			ID:       identity.UserID,
			Username: identity.Username,
		})

		go session.WritePump()
		deps.Hub.Register(session)
		go session.ReadPump()
	}
}
