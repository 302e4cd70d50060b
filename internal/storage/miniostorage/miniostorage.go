// Package miniostorage keeps archived attempt files (results and thumbnails) in a MinIO bucket
package miniostorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"strings"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

const (
	defaultPort   = "9000"
	defaultBucket = "animations"
	// ключ содержит id попытки, содержимое по нему не меняется
	cacheControl = "private, max-age=31536000, immutable"
)

type ArchiveStorage struct {
	bucket string
	client *minio.Client
}

func NewArchiveStorage(ctx context.Context, addr, user, pass, bucket string) (*ArchiveStorage, error) {
	if bucket == "" {
		bucket = defaultBucket
		zlog.Logger.Warn().Str("bucket", bucket).Msg("Bucket name is empty, using default")
	}

	client, err := minio.New(endpoint(addr), &minio.Options{
		Creds:  credentials.NewStaticV4(user, pass, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	if err := ensureBucket(ctx, client, bucket); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", bucket, err)
	}

	return &ArchiveStorage{bucket: bucket, client: client}, nil
}

func (s *ArchiveStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, objectOptions(key, contentType)); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete не считает ошибкой отсутствие объекта
func (s *ArchiveStorage) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Get returns model.ErrResultNotArchived when the object is gone from the bucket
func (s *ArchiveStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}

	// GetObject ленивый, реальный запрос уходит на Stat
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, "", fmt.Errorf("%w: %s", model.ErrResultNotArchived, key)
		}
		return nil, "", err
	}

	cType := info.ContentType
	if cType == "" {
		cType = "application/octet-stream"
	}
	return obj, cType, nil
}

// objectOptions размечает объект по ключу вида "<kind>/<attempt-id><ext>"
func objectOptions(key, contentType string) minio.PutObjectOptions {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	}

	dir, file := path.Split(key)
	attemptID := strings.TrimSuffix(file, path.Ext(file))
	if dir == "" || attemptID == "" {
		return opts
	}
	kind := strings.TrimSuffix(dir, "/")

	opts.ContentDisposition = fmt.Sprintf("inline; filename=%q", kind+"-"+file)
	opts.UserMetadata = map[string]string{
		"attempt": attemptID,
		"kind":    kind,
	}
	return opts
}

// endpoint добавляет стандартный порт MinIO, если он не указан
func endpoint(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, defaultPort)
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return true
	}
	return false
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
