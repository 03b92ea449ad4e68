package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims issued at signup/login. The same token is
// presented as a Bearer header on REST calls and as the `token` query
// parameter when opening the real-time connection.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the account id of the token holder.
	UserID int64 `json:"uid"`

	// Username is the display handle of the token holder, carried so the
	// real-time layer can attribute messages without a lookup on every event.
	Username string `json:"username"`
}
