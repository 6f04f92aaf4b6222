package mirror

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hupe1980/scalareval/blobstore"
	"github.com/hupe1980/scalareval/blobstore/minio"
	"github.com/hupe1980/scalareval/blobstore/s3"
)

// OpenStore resolves a mirror URL to a store.
//
//	/srv/corpora, file:///srv/corpora        local directory
//	mem://                                   process memory
//	s3://bucket/prefix?region=..&endpoint=.. Amazon S3
//	minio://host:port/bucket/prefix?secure=1 MinIO
func OpenStore(ctx context.Context, rawURL string) (blobstore.Store, error) {
	if !strings.Contains(rawURL, "://") {
		return blobstore.NewLocalStore(rawURL), nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("mirror url %q: %w", rawURL, err)
	}
	q := u.Query()
	prefix := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil

	case "mem":
		return blobstore.NewMemoryStore(), nil

	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("mirror url %q: missing bucket", rawURL)
		}
		var opts []s3.Option
		if prefix != "" {
			opts = append(opts, s3.WithPrefix(prefix))
		}
		if r := q.Get("region"); r != "" {
			opts = append(opts, s3.WithRegion(r))
		}
		if e := q.Get("endpoint"); e != "" {
			opts = append(opts, s3.WithEndpoint(e))
		}
		return s3.New(ctx, u.Host, opts...)

	case "minio":
		bucket, rest, _ := strings.Cut(prefix, "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("mirror url %q: want minio://host/bucket[/prefix]", rawURL)
		}
		secure, _ := strconv.ParseBool(q.Get("secure"))
		cfg := minio.Config{
			Region: q.Get("region"),
			Secure: secure,
		}
		if u.User != nil {
			cfg.AccessKey = u.User.Username()
			cfg.SecretKey, _ = u.User.Password()
		}
		return minio.Dial(u.Host, bucket, rest, cfg)

	default:
		return nil, fmt.Errorf("mirror url %q: unsupported scheme %q", rawURL, u.Scheme)
	}
}

// Open resolves rawURL and creates a mirror on the resulting store.
func Open(ctx context.Context, rawURL string, optFns ...Option) (*Mirror, error) {
	store, err := OpenStore(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return New(store, optFns...), nil
}
