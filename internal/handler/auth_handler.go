/*
Package handler provides the HTTP handlers and routing setup for the Swapyard server.

This file covers account signup and login. Tokens issued here are presented as
Bearer headers on REST calls and as the token query parameter on the real-time
endpoint.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"swapyard/internal/app/market"
	"swapyard/internal/app/store"
	"swapyard/internal/pkg/auth/jwt"
	"swapyard/internal/pkg/errs"
	"swapyard/internal/pkg/logx"
	"swapyard/internal/pkg/req"
	"swapyard/internal/pkg/resp"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

type SignupInput struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

// HandleSignup processes the request to create a new account and issues a JWT
// on success so the client can connect immediately.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SignupInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Username = strings.TrimSpace(input.Username)
		input.Phone = strings.TrimSpace(input.Phone)

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		if !phoneRegex.MatchString(input.Phone) || strings.TrimSpace(input.FullName) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		user, err := deps.Store.CreateUser(r.Context(), store.NewUser{
			Username:     input.Username,
			FullName:     strings.TrimSpace(input.FullName),
			Phone:        input.Phone,
			Email:        strings.TrimSpace(input.Email),
			PasswordHash: string(hashedPassword),
			Address:      strings.TrimSpace(input.Address),
		})
		if err != nil {
			if errors.Is(err, market.ErrDuplicate) {
				logx.Warn("signup conflict: account already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		payload := &jwt.Payload{
			UserID:   user.ID,
			Username: user.Username,
		}

		tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.IdentityExpiration)
		if err != nil {
			logx.Error(err, "failed to generate token after signup")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": tokenString,
			"user":  userView(user),
		})
	}
}

type LoginInput struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// HandleLogin verifies the phone and password pair and issues a JWT token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		user, err := deps.Store.GetUserByPhone(r.Context(), strings.TrimSpace(input.Phone))
		if err != nil {
			logx.Warn("login: user fetch failed", "phone", input.Phone)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "user_id", user.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		payload := &jwt.Payload{
			UserID:   user.ID,
			Username: user.Username,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.IdentityExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user":  userView(user),
		})
	}
}
