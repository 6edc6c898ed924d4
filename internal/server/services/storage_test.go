package services

import (
	"context"
	"io"
	"testing"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newStorageFixture(t *testing.T) (*StorageService, *fakeBlobStore, *metrics.Metrics) {
	t.Helper()
	store := newFakeBlobStore()
	met := metrics.New()
	return NewStorageService(store, met, logging.NewNopLogger()), store, met
}

func TestUpload_UpsertOverwrites(t *testing.T) {
	svc, store, met := newStorageFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Upload(ctx, "u1", "u1/avatar", pngHeader, "image/png", true))
	require.NoError(t, svc.Upload(ctx, "u1", "/u1/avatar", append(pngHeader, 1), "image/png", true))

	assert.Equal(t, 2, store.puts)
	assert.Len(t, store.objects["u1/avatar"].data, len(pngHeader)+1)
	assert.Equal(t, 2.0, testutil.ToFloat64(met.AvatarUploads.WithLabelValues("ok")))
}

func TestUpload_WithoutUpsertConflicts(t *testing.T) {
	svc, store, _ := newStorageFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Upload(ctx, "u1", "u1/avatar", pngHeader, "image/png", false))

	err := svc.Upload(ctx, "u1", "u1/avatar", pngHeader, "image/png", false)
	require.ErrorIs(t, err, common.ErrorConflict)
	assert.Equal(t, 1, store.puts)
}

func TestUpload_DetectsContentType(t *testing.T) {
	svc, store, _ := newStorageFixture(t)
	require.NoError(t, svc.Upload(context.Background(), "u1", "u1/avatar", pngHeader, "", true))
	assert.Equal(t, "image/png", store.objects["u1/avatar"].contentType)
}

func TestUpload_Rejections(t *testing.T) {
	big := make([]byte, MaxAvatarSize+1)
	copy(big, pngHeader)

	tests := []struct {
		name string
		key  string
		data []byte
		ct   string
		want error
	}{
		{name: "other user", key: "u2/avatar", data: pngHeader, ct: "image/png", want: common.ErrorUnauthorized},
		{name: "traversal", key: "u1/../u2/avatar", data: pngHeader, ct: "image/png", want: common.ErrorValidation},
		{name: "empty key", key: "", data: pngHeader, ct: "image/png", want: common.ErrorValidation},
		{name: "empty body", key: "u1/avatar", data: nil, ct: "image/png", want: common.ErrorValidation},
		{name: "too large", key: "u1/avatar", data: big, ct: "image/png", want: common.ErrorValidation},
		{name: "not an image", key: "u1/avatar", data: []byte("hello"), ct: "text/plain", want: common.ErrorValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, met := newStorageFixture(t)
			err := svc.Upload(context.Background(), "u1", tt.key, tt.data, tt.ct, true)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, store.puts)
			assert.Equal(t, 1.0, testutil.ToFloat64(met.AvatarUploads.WithLabelValues("error")))
		})
	}
}

func TestUpload_StoreFailure(t *testing.T) {
	svc, store, _ := newStorageFixture(t)
	store.putErr = errBoom{}
	err := svc.Upload(context.Background(), "u1", "u1/avatar", pngHeader, "image/png", true)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestOpen(t *testing.T) {
	svc, store, _ := newStorageFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Upload(ctx, "u1", "u1/avatar", pngHeader, "image/png", true))

	obj, err := svc.Open(ctx, "u1/avatar")
	require.NoError(t, err)
	defer obj.Body.Close()
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, b)
	assert.Equal(t, "image/png", obj.ContentType)

	_, err = svc.Open(ctx, "u1/missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	store.getErr = errBoom{}
	_, err = svc.Open(ctx, "u1/avatar")
	assert.ErrorIs(t, err, common.ErrorInternal)
}
