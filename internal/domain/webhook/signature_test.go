package webhook

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSigningKey(t *testing.T) {
	subscriptionID := uuid.New()

	key1, err := DeriveSigningKey("server-secret", subscriptionID)
	require.NoError(t, err)
	key2, err := DeriveSigningKey("server-secret", subscriptionID)
	require.NoError(t, err)

	// Deterministic, so the key never needs storing.
	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 64)

	otherSub, err := DeriveSigningKey("server-secret", uuid.New())
	require.NoError(t, err)
	assert.NotEqual(t, key1, otherSub)

	otherSecret, err := DeriveSigningKey("rotated-secret", subscriptionID)
	require.NoError(t, err)
	assert.NotEqual(t, key1, otherSecret)
}

func TestDeriveSigningKey_Rejections(t *testing.T) {
	_, err := DeriveSigningKey("", uuid.New())
	assert.True(t, shared.IsValidationError(err))

	_, err = DeriveSigningKey("secret", uuid.Nil)
	assert.True(t, shared.IsValidationError(err))
}

func TestSign_Format(t *testing.T) {
	now := time.Unix(1756100000, 0)
	signature, err := Sign([]byte(`{"event":"x"}`), "key", now)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(signature, "t=1756100000,v1="), "got %s", signature)
	assert.Len(t, signature, len("t=1756100000,v1=")+64)

	_, err = Sign([]byte("x"), "", now)
	assert.True(t, shared.IsValidationError(err))
}

func TestVerify_RoundTrip(t *testing.T) {
	key, err := DeriveSigningKey("server-secret", uuid.New())
	require.NoError(t, err)
	payload := []byte(`{"statement_number":"STMT-2026-H1-000042"}`)
	now := time.Now()

	signature, err := Sign(payload, key, now)
	require.NoError(t, err)

	assert.True(t, Verify(payload, signature, key, 300, now))

	// Any alteration of payload or key breaks the check.
	assert.False(t, Verify([]byte(`{"statement_number":"STMT-2026-H1-000043"}`), signature, key, 300, now))
	assert.False(t, Verify(payload, signature, key+"x", 300, now))
	assert.False(t, Verify(payload, signature, "", 300, now))
}

func TestVerify_ToleranceWindow(t *testing.T) {
	key := "test-key"
	payload := []byte("payload")
	signedAt := time.Unix(1756100000, 0)

	signature, err := Sign(payload, key, signedAt)
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"at signing time", signedAt, true},
		{"just inside", signedAt.Add(299 * time.Second), true},
		{"at the edge", signedAt.Add(300 * time.Second), true},
		{"expired", signedAt.Add(301 * time.Second), false},
		{"future timestamp beyond tolerance", signedAt.Add(-301 * time.Second), false},
		{"slight clock skew", signedAt.Add(-30 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(payload, signature, key, 300, tt.now))
		})
	}
}

func TestVerify_DefaultTolerance(t *testing.T) {
	key := "test-key"
	payload := []byte("payload")
	signedAt := time.Now()

	signature, err := Sign(payload, key, signedAt)
	require.NoError(t, err)

	assert.True(t, Verify(payload, signature, key, 0, signedAt.Add(DefaultToleranceSeconds*time.Second)))
	assert.False(t, Verify(payload, signature, key, 0, signedAt.Add((DefaultToleranceSeconds+2)*time.Second)))
}

func TestVerify_MalformedSignatures(t *testing.T) {
	key := "test-key"
	payload := []byte("payload")
	now := time.Now()

	malformed := []string{
		"",
		"v1=abc",
		fmt.Sprintf("t=%d", now.Unix()),
		"t=notanumber,v1=abc",
		"garbage",
	}

	for _, signature := range malformed {
		assert.False(t, Verify(payload, signature, key, 300, now), "signature %q", signature)
	}
}

func TestVerify_MultipleCandidates(t *testing.T) {
	key := "test-key"
	payload := []byte("payload")
	now := time.Now()

	signature, err := Sign(payload, key, now)
	require.NoError(t, err)

	// A stale candidate alongside the valid one still verifies: key
	// rotation sends both signatures during the overlap window.
	withStale := strings.Replace(signature, "v1=", "v1=deadbeef,v1=", 1)
	assert.True(t, Verify(payload, withStale, key, 300, now))
}
