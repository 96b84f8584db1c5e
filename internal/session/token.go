package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

func (i TokenInfo) ExpiredAt(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// InspectToken reads the claims of a bearer token without verifying its
// signature. Verification is the backend's job; the client only needs to
// know whether re-login is due.
func InspectToken(token string) (TokenInfo, error) {
	claims := jwt.RegisteredClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return TokenInfo{}, err
	}

	info := TokenInfo{
		Subject: claims.Subject,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}

	return info, nil
}
