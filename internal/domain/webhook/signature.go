package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
)

// DefaultToleranceSeconds is the replay-protection window applied when the
// caller does not configure one.
const DefaultToleranceSeconds = 300

// SignatureHeader is the HTTP header carrying the delivery signature
const SignatureHeader = "X-Inkwell-Signature"

// DeriveSigningKey derives a subscription's signing key from the server-side
// secret. The derivation is one-way and deterministic, so the same
// subscription always yields the same key without the key ever being stored.
func DeriveSigningKey(serverSecret string, subscriptionID uuid.UUID) (string, error) {
	if serverSecret == "" {
		return "", shared.NewValidationError("MISSING_SECRET", "Server secret cannot be empty")
	}
	if subscriptionID == uuid.Nil {
		return "", shared.NewValidationError("INVALID_SUBSCRIPTION", "Subscription ID cannot be empty")
	}

	mac := hmac.New(sha256.New, []byte(serverSecret))
	mac.Write([]byte(subscriptionID.String()))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Sign produces a delivery signature of the form "t=<unix-seconds>,v1=<hex>"
// over "<timestamp>.<payload>" with the subscription's signing key.
func Sign(payload []byte, key string, timestamp time.Time) (string, error) {
	if key == "" {
		return "", shared.NewValidationError("MISSING_KEY", "Signing key cannot be empty")
	}

	ts := timestamp.Unix()
	mac := hmac.New(sha256.New, []byte(key))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)

	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))), nil
}

// Verify checks a delivery signature against the payload and key. The check
// returns a boolean rather than an error: a failed signature is an expected,
// frequent outcome of a security check, not an exceptional condition.
//
// A signature whose timestamp lies outside the tolerance window (in either
// direction) is rejected regardless of cryptographic validity. A tolerance
// of zero or below falls back to the default window.
func Verify(payload []byte, signature, key string, toleranceSeconds int64, now time.Time) bool {
	if key == "" {
		return false
	}
	if toleranceSeconds <= 0 {
		toleranceSeconds = DefaultToleranceSeconds
	}

	ts, candidates, ok := parseSignature(signature)
	if !ok {
		return false
	}

	age := now.Unix() - ts
	if age > toleranceSeconds || age < -toleranceSeconds {
		return false
	}

	mac := hmac.New(sha256.New, []byte(key))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return true
		}
	}

	return false
}

// parseSignature splits a "t=<ts>,v1=<hex>" header into its timestamp and
// candidate signatures. Unknown elements are ignored so the scheme can grow
// a v2 without breaking old verifiers.
func parseSignature(signature string) (int64, []string, bool) {
	var timestamp int64
	var haveTimestamp bool
	var candidates []string

	for _, part := range strings.Split(signature, ",") {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, false
			}
			timestamp = ts
			haveTimestamp = true
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if !haveTimestamp || len(candidates) == 0 {
		return 0, nil, false
	}
	return timestamp, candidates, true
}
