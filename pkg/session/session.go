// Package session owns the signed per-job session tokens, the HMAC access
// key admitted as a job's first-entry credential, and login code generation.
//
// Tokens are bound to exactly one job: the signing key is the job's own
// secret, so a token minted for one job can never verify against another.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/guidepost/launchpad/pkg/structs"
)

// Claims is the signed claim set carried by the customer's cookie.
type Claims struct {
	JobKey    string            `json:"job_key"`
	LoggedIn  bool              `json:"logged_in"`
	LoginType structs.LoginType `json:"login_type"`

	jwt.RegisteredClaims
}

// Mint signs a logged-in session token for the given job.
func Mint(secret, jobKey string, loginType structs.LoginType, expiry time.Duration, now time.Time) (string, error) {
	claims := &Claims{
		JobKey:    jobKey,
		LoggedIn:  true,
		LoginType: loginType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify checks a token against the owning job's secret & key.
//
// It fails open to "no valid session": a bad signature, a jobKey mismatch,
// an expired token or garbage input all return (nil, false) rather than an
// error, since every such case means the same thing - log in again.
func Verify(token, secret, jobKey string, now time.Time) (*Claims, bool) {
	if token == "" {
		return nil, false
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	if claims.JobKey != jobKey {
		return nil, false
	}
	return claims, true
}
