package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubDocumentStorage_UploadAndExists(t *testing.T) {
	store := NewStubDocumentStorage()
	ctx := context.Background()

	key := "statements/tenant-a/STMT-202601-CTR-001.json"
	require.NoError(t, store.Upload(ctx, key, []byte(`{"net_payable":"125.50"}`), "application/json"))

	exists, err := store.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, ok := store.Get(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"net_payable":"125.50"}`, string(data))

	exists, err = store.ObjectExists(ctx, "statements/tenant-a/missing.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStubDocumentStorage_Delete(t *testing.T) {
	store := NewStubDocumentStorage()
	ctx := context.Background()

	key := "statements/tenant-a/STMT-202601-CTR-002.json"
	require.NoError(t, store.Upload(ctx, key, []byte(`{}`), "application/json"))
	require.NoError(t, store.DeleteObject(ctx, key))

	exists, err := store.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStubDocumentStorage_DownloadURL(t *testing.T) {
	store := NewStubDocumentStorage()

	url, expiresAt, err := store.GenerateDownloadURL(context.Background(), "statements/x.json", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/download/statements/x.json")
	assert.True(t, expiresAt.After(time.Now()))
}

func TestStubDocumentStorage_EmptyKeyRejected(t *testing.T) {
	store := NewStubDocumentStorage()
	ctx := context.Background()

	assert.Error(t, store.Upload(ctx, "", nil, ""))
	_, _, err := store.GenerateDownloadURL(ctx, "", time.Minute)
	assert.Error(t, err)
	_, err = store.ObjectExists(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.DeleteObject(ctx, ""))
}
