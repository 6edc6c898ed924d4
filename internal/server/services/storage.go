package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/blob"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
)

// MaxAvatarSize caps a single upload.
const MaxAvatarSize = 5 << 20

// BlobStore is the object storage the service writes to.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (*blob.Object, error)
}

// StorageService stores avatars under per-user prefixes.
type StorageService struct {
	store   BlobStore
	metrics *metrics.Metrics
	log     logging.Logger
}

func NewStorageService(store BlobStore, met *metrics.Metrics, log logging.Logger) *StorageService {
	return &StorageService{store: store, metrics: met, log: log.With("module", "storage")}
}

// Upload writes data to key on behalf of userID. The key must live under
// "<userID>/". Without upsert an existing object is a conflict.
func (s *StorageService) Upload(ctx context.Context, userID, key string, data []byte, contentType string, upsert bool) (err error) {
	defer func() { s.metrics.AvatarUploads.WithLabelValues(metrics.Result(err)).Inc() }()

	key, err = cleanKey(key)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(key, userID+"/") {
		return common.WithMessage(common.ErrorUnauthorized, "new row violates row-level security policy")
	}
	if len(data) == 0 {
		return common.WithMessage(common.ErrorValidation, "file is empty")
	}
	if len(data) > MaxAvatarSize {
		return common.WithMessage(common.ErrorValidation, "The object exceeded the maximum allowed size")
	}

	ct := contentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return common.WithMessage(common.ErrorValidation, fmt.Sprintf("mime type %s is not supported", ct))
	}

	if !upsert {
		obj, err := s.store.Get(ctx, key)
		switch {
		case err == nil:
			_ = obj.Body.Close()
			return common.WithMessage(common.ErrorConflict, "The resource already exists")
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
	}

	if err := s.store.Put(ctx, key, data, ct); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	s.log.Info(ctx, "object stored", "key", key, "size", len(data), "content_type", ct)
	return nil
}

// Open returns the object stored at key. The caller closes its Body.
func (s *StorageService) Open(ctx context.Context, key string) (*blob.Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.WithMessage(common.ErrorNotFound, "Object not found")
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return obj, nil
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") || path.Clean(key) != key {
		return "", common.WithMessage(common.ErrorValidation, "invalid object key")
	}
	return key, nil
}
