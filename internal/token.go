package internal

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the client reads from a session token.
// They are a hint only: the signature is never verified client side.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the expiry is at or before now, comparing the
// possibly fractional expiry against now in whole milliseconds.
func (c TokenClaims) Expired(now time.Time) bool {
	expMillis := float64(c.ExpiresAt.UnixNano()) / float64(time.Millisecond)
	return expMillis <= float64(now.UnixMilli())
}

var tokenParser = jwt.NewParser()

// rawClaims keeps exp and iat as JSON numbers so fractional seconds survive
type rawClaims struct {
	Subject   string   `json:"sub"`
	IssuedAt  *float64 `json:"iat"`
	ExpiresAt *float64 `json:"exp"`
}

// DecodeToken reads the claims segment of a JWT-compact token. The header
// and signature segments must be present but are not inspected.
// Every failure is a *TokenDecodeError wrapping ErrTokenMalformed or ErrTokenNoExpiry.
func DecodeToken(token string) (TokenClaims, error) {
	if token == "" {
		return TokenClaims{}, &TokenDecodeError{Reason: "empty token", Err: ErrTokenMalformed}
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return TokenClaims{}, &TokenDecodeError{Reason: "segments", Err: ErrTokenMalformed}
	}

	payload, err := tokenParser.DecodeSegment(parts[1])
	if err != nil {
		return TokenClaims{}, &TokenDecodeError{Reason: "base64", Err: errors.Join(ErrTokenMalformed, err)}
	}

	var claims rawClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return TokenClaims{}, &TokenDecodeError{Reason: "json", Err: errors.Join(ErrTokenMalformed, err)}
	}
	if claims.ExpiresAt == nil {
		return TokenClaims{}, &TokenDecodeError{Reason: "claims", Err: ErrTokenNoExpiry}
	}

	decoded := TokenClaims{
		Subject:   claims.Subject,
		ExpiresAt: secondsToTime(*claims.ExpiresAt),
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = secondsToTime(*claims.IssuedAt)
	}
	return decoded, nil
}

func secondsToTime(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9)))
}
