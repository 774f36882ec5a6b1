package publishing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"curator/internal/catalog"
)

// KindS3 uploads one JSON object per record to an S3 compatible bucket.
const KindS3 = "s3"

// ObjectStore is the subset of bucket operations the s3 destination needs.
type ObjectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// ObjectStoreFactory builds an ObjectStore from a target configuration.
type ObjectStoreFactory func(cfg S3Config) (ObjectStore, error)

// S3Config is the parsed configuration of an s3 target.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

// ParseS3Config reads the s3 settings of a target. The endpoint may be a bare
// host:port or a URL; an https scheme forces TLS.
func ParseS3Config(cfg map[string]string) (S3Config, error) {
	out := S3Config{
		Endpoint:  strings.TrimSpace(cfg["endpoint"]),
		Bucket:    strings.TrimSpace(cfg["bucket"]),
		Prefix:    strings.Trim(strings.TrimSpace(cfg["prefix"]), "/"),
		AccessKey: strings.TrimSpace(cfg["access_key"]),
		SecretKey: strings.TrimSpace(cfg["secret_key"]),
		Region:    strings.TrimSpace(cfg["region"]),
		Secure:    true,
	}
	if raw := strings.TrimSpace(cfg["secure"]); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return S3Config{}, fmt.Errorf("s3 secure setting %q is not a boolean", raw)
		}
		out.Secure = secure
	}
	if strings.Contains(out.Endpoint, "://") {
		u, err := url.Parse(out.Endpoint)
		if err != nil || u.Host == "" {
			return S3Config{}, fmt.Errorf("invalid s3 endpoint %q", out.Endpoint)
		}
		out.Endpoint = u.Host
		out.Secure = u.Scheme == "https"
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"endpoint", out.Endpoint},
		{"bucket", out.Bucket},
		{"access_key", out.AccessKey},
		{"secret_key", out.SecretKey},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return S3Config{}, fmt.Errorf("s3 target missing settings: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// S3Destination writes "<prefix>/<project>/<product>.json" objects.
type S3Destination struct {
	timeout time.Duration
	open    ObjectStoreFactory
}

// S3Option customizes an S3Destination.
type S3Option func(*S3Destination)

// WithObjectStoreFactory replaces the minio backed object store.
func WithObjectStoreFactory(factory ObjectStoreFactory) S3Option {
	return func(d *S3Destination) {
		if factory != nil {
			d.open = factory
		}
	}
}

// NewS3Destination constructs an s3 destination. Each Deliver call is bounded
// by timeout.
func NewS3Destination(timeout time.Duration, opts ...S3Option) *S3Destination {
	d := &S3Destination{timeout: timeout, open: newMinioStore}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *S3Destination) Kind() string { return KindS3 }

func (d *S3Destination) Validate(cfg map[string]string) error {
	_, err := ParseS3Config(cfg)
	return err
}

func (d *S3Destination) Deliver(ctx context.Context, target *catalog.PublishTarget, records []*catalog.GoldenRecord) (Delivery, error) {
	cfg, err := ParseS3Config(target.Config)
	if err != nil {
		return Delivery{}, err
	}
	store, err := d.open(cfg)
	if err != nil {
		return Delivery{}, fmt.Errorf("open object store: %w", err)
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := store.EnsureBucket(ctx, cfg.Bucket); err != nil {
		return Delivery{}, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}

	var delivery Delivery
	for _, rec := range records {
		data, err := json.Marshal(newRecord(rec))
		if err != nil {
			delivery.Errors = append(delivery.Errors, catalog.PublishError{ProductID: rec.ProductID, Message: err.Error()})
			continue
		}
		key := path.Join(cfg.Prefix, rec.ProjectID, rec.ProductID+".json")
		if err := store.PutObject(ctx, cfg.Bucket, key, data); err != nil {
			delivery.Errors = append(delivery.Errors, catalog.PublishError{ProductID: rec.ProductID, Message: err.Error()})
			continue
		}
		delivery.Delivered = append(delivery.Delivered, rec.ProductID)
	}
	return delivery, nil
}

type minioStore struct {
	client *minio.Client
	region string
}

func newMinioStore(cfg S3Config) (ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &minioStore{client: client, region: cfg.Region}, nil
}

func (s *minioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region})
}

func (s *minioStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}
