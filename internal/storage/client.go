package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	KindVideo     = "video"
	KindThumbnail = "thumbnail"
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

var allowedContentTypes = map[string][]string{
	KindVideo:     {"video/mp4", "video/quicktime", "video/webm"},
	KindThumbnail: {"image/jpeg", "image/png", "image/webp"},
}

type Config struct {
	Endpoint string
	Access   string
	Secret   string
	Bucket   string
	UseSSL   bool
}

type Client struct {
	minio  *minio.Client
	bucket string
}

// Upload is a presigned PUT target handed to the browser.
type Upload struct {
	ObjectKey string    `json:"objectKey"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Access, cfg.Secret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Client{
		minio:  mc,
		bucket: cfg.Bucket,
	}, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minio.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.minio.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := c.minio.BucketExists(ctx, c.bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}

	return nil
}

// PresignUpload reserves a fresh object key under the user's upload prefix
// and returns a presigned PUT URL for it.
func (c *Client) PresignUpload(ctx context.Context, userID, kind, contentType string, expiry time.Duration) (Upload, error) {
	if err := CheckContentType(kind, contentType); err != nil {
		return Upload{}, err
	}

	key := UploadKey(userID, kind, uuid.NewString())
	expiresAt := time.Now().UTC().Add(expiry)
	u, err := c.minio.PresignedPutObject(ctx, c.bucket, key, expiry)
	if err != nil {
		return Upload{}, fmt.Errorf("presign put object: %w", err)
	}
	return Upload{ObjectKey: key, UploadURL: u.String(), ExpiresAt: expiresAt}, nil
}

func (c *Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	_, err := c.minio.StatObject(ctx, c.bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s: %w", objectKey, err)
}

func (c *Client) ReadObject(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := c.minio.GetObject(ctx, c.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", objectKey, err)
	}
	return data, nil
}

func (c *Client) WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error {
	_, err := c.minio.PutObject(
		ctx,
		c.bucket,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return nil
}

func UploadKey(userID, kind, name string) string {
	return fmt.Sprintf("uploads/%s/%s/%s", userID, kind, name)
}

// OwnedUpload reports whether objectKey sits under userID's upload prefix for kind.
func OwnedUpload(userID, kind, objectKey string) bool {
	prefix := UploadKey(userID, kind, "")
	rest, ok := strings.CutPrefix(objectKey, prefix)
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// ThumbnailKey is where a rendition of a clip thumbnail is stored.
func ThumbnailKey(clipID, rendition string) string {
	return fmt.Sprintf("thumbnails/%s/%s.jpg", clipID, rendition)
}

func CheckContentType(kind, contentType string) error {
	allowed, ok := allowedContentTypes[kind]
	if !ok {
		return fmt.Errorf("%w: unknown upload kind %q", ErrUnsupportedContentType, kind)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, ct := range allowed {
		if ct == contentType {
			return nil
		}
	}
	return fmt.Errorf("%w: %s uploads accept %s", ErrUnsupportedContentType, kind, strings.Join(allowed, ", "))
}
