package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// AccessKey derives the first-entry credential for a job:
// hex(HMAC-SHA256(secret, jobKey)). It is handed to the customer inside
// their access URL and recomputed server side on entry.
func AccessKey(secret, jobKey string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(jobKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAccessKey checks a presented access key in constant time.
func VerifyAccessKey(secret, jobKey, presented string) bool {
	return hmac.Equal([]byte(AccessKey(secret, jobKey)), []byte(presented))
}

// NewLoginCode returns a random 4-digit PIN / OTP code.
func NewLoginCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// crypto/rand only fails if the platform's entropy source is
		// broken; there is no sane recovery here.
		panic(err)
	}
	code := n.Int64() + 1000
	return big.NewInt(code).String()
}
