package locations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

func init() {
	Register("gs", newGCS)
	Register("gcs", newGCS)
}

// GCS - location для Google Cloud Storage.
// Публичная схема может быть gs:// или gcs:// (последнюю требуют
// stage-URI некоторых warehouse'ов); SDK понимает только gs://,
// поэтому перед каждой операцией путь нормализуется.
type GCS struct {
	path     string
	connID   string
	resolver connections.Resolver

	mu     sync.Mutex
	client *storage.Client // создается лениво при первой I/O операции
}

var _ Location = (*GCS)(nil)

func newGCS(p, connID string, resolver connections.Resolver) (Location, error) {
	return &GCS{path: p, connID: connID, resolver: resolver}, nil
}

// Kind возвращает тип backend'а
func (l *GCS) Kind() Kind {
	return KindGCS
}

// RewriteGCSScheme приводит gcs:// URI к gs:// форме, ожидаемой SDK.
// Идемпотентна: повторный вызов на уже переписанном URI - no-op.
func RewriteGCSScheme(p string) string {
	if strings.HasPrefix(p, "gcs://") {
		return "gs://" + strings.TrimPrefix(p, "gcs://")
	}
	return p
}

// getClient лениво создает GCS клиент
func (l *GCS) getClient(ctx context.Context) (*storage.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	var opts []option.ClientOption
	if l.connID != "" && l.resolver != nil {
		conn, err := l.resolver.Resolve(l.connID)
		if err != nil {
			return nil, err
		}
		if keyFile := conn.Extra["key_file"]; keyFile != "" {
			opts = append(opts, option.WithCredentialsFile(keyFile))
		}
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	l.client = client
	return client, nil
}

// parseGCSPath разбирает gs://bucket/key (нормализуя схему) на bucket и key
func parseGCSPath(p string) (bucket, key string, err error) {
	u, err := url.Parse(RewriteGCSScheme(p))
	if err != nil || u.Scheme != "gs" {
		return "", "", fmt.Errorf("invalid gcs path %q", p)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// Paths разворачивает prefix/glob в список gs:// путей
func (l *GCS) Paths(ctx context.Context) ([]string, error) {
	client, err := l.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket, key, err := parseGCSPath(l.path)
	if err != nil {
		return nil, err
	}
	prefix, isGlob := globPrefix(key)

	var paths []string
	it := client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, l.mapError(l.path, err)
		}
		if isGlob {
			ok, matchErr := path.Match(key, attrs.Name)
			if matchErr != nil || !ok {
				continue
			}
		}
		paths = append(paths, "gs://"+bucket+"/"+attrs.Name)
	}
	return paths, nil
}

// Exists проверяет существование хотя бы одного объекта
func (l *GCS) Exists(ctx context.Context) (bool, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

// Size возвращает суммарный размер объектов
func (l *GCS) Size(ctx context.Context) (int64, error) {
	client, err := l.getClient(ctx)
	if err != nil {
		return 0, err
	}

	paths, err := l.Paths(ctx)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, errs.NotFound(l.path)
	}

	var total int64
	for _, p := range paths {
		bucket, key, err := parseGCSPath(p)
		if err != nil {
			return 0, err
		}
		attrs, err := client.Bucket(bucket).Object(key).Attrs(ctx)
		if err != nil {
			return 0, l.mapError(p, err)
		}
		total += attrs.Size
	}
	return total, nil
}

// OpenStream открывает поток первого объекта
func (l *GCS) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errs.NotFound(l.path)
	}
	return l.OpenStreamAt(ctx, paths[0])
}

// OpenStreamAt открывает поток конкретного объекта
func (l *GCS) OpenStreamAt(ctx context.Context, p string) (io.ReadCloser, error) {
	client, err := l.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket, key, err := parseGCSPath(p)
	if err != nil {
		return nil, err
	}

	r, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, l.mapError(p, err)
	}
	return r, nil
}

// CreateStream открывает поток на запись
func (l *GCS) CreateStream(ctx context.Context) (io.WriteCloser, error) {
	client, err := l.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket, key, err := parseGCSPath(l.path)
	if err != nil {
		return nil, err
	}
	return client.Bucket(bucket).Object(key).NewWriter(ctx), nil
}

// mapError переводит ошибки GCS SDK в таксономию фреймворка
func (l *GCS) mapError(resource string, err error) error {
	var apiErr *googleapi.Error
	switch {
	case errors.Is(err, storage.ErrObjectNotExist), errors.Is(err, storage.ErrBucketNotExist):
		return errs.NotFound(resource)
	case errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden:
		return errs.PermissionDenied(l.connID, resource)
	default:
		return fmt.Errorf("gcs %s: %w", resource, err)
	}
}
