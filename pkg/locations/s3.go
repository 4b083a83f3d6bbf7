package locations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

func init() {
	Register("s3", newS3)
}

// S3 - location для Amazon S3 и S3-совместимых хранилищ
type S3 struct {
	path     string
	connID   string
	resolver connections.Resolver

	mu     sync.Mutex
	client *s3.Client // создается лениво при первой I/O операции
}

var _ Location = (*S3)(nil)

func newS3(p, connID string, resolver connections.Resolver) (Location, error) {
	return &S3{path: p, connID: connID, resolver: resolver}, nil
}

// Kind возвращает тип backend'а
func (l *S3) Kind() Kind {
	return KindS3
}

// getClient лениво создает S3 клиент из параметров подключения.
// Креденшелы не трогаются до первой I/O операции.
func (l *S3) getClient(ctx context.Context) (*s3.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if l.connID != "" && l.resolver != nil {
		conn, err := l.resolver.Resolve(l.connID)
		if err != nil {
			return nil, err
		}
		if conn.Region != "" {
			opts = append(opts, awsconfig.WithRegion(conn.Region))
		}
		if conn.Login != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(conn.Login, conn.Password, "")))
		}
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	l.client = s3.NewFromConfig(cfg)
	return l.client, nil
}

// parseS3Path разбирает s3://bucket/key на bucket и key
func parseS3Path(p string) (bucket, key string, err error) {
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("invalid s3 path %q", p)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// globPrefix возвращает часть ключа до первого glob-метасимвола
func globPrefix(key string) (prefix string, isGlob bool) {
	if i := strings.IndexAny(key, "*?["); i >= 0 {
		return key[:i], true
	}
	return key, false
}

// Paths разворачивает prefix/glob в список конкретных s3:// путей.
// Порядок - как вернул ListObjectsV2 (лексикографический по ключу).
func (l *S3) Paths(ctx context.Context) ([]string, error) {
	client, err := l.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket, key, err := parseS3Path(l.path)
	if err != nil {
		return nil, err
	}
	prefix, isGlob := globPrefix(key)

	var paths []string
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, l.mapError(l.path, err)
		}
		for _, obj := range page.Contents {
			objKey := aws.ToString(obj.Key)
			if isGlob {
				ok, matchErr := path.Match(key, objKey)
				if matchErr != nil || !ok {
					continue
				}
			}
			paths = append(paths, "s3://"+bucket+"/"+objKey)
		}
	}
	return paths, nil
}

// Exists проверяет существование хотя бы одного объекта
func (l *S3) Exists(ctx context.Context) (bool, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

// Size возвращает суммарный размер объектов
func (l *S3) Size(ctx context.Context) (int64, error) {
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
		bucket, key, err := parseS3Path(p)
		if err != nil {
			return 0, err
		}
		head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return 0, l.mapError(p, err)
		}
		total += aws.ToInt64(head.ContentLength)
	}
	return total, nil
}

// OpenStream открывает поток первого объекта
func (l *S3) OpenStream(ctx context.Context) (io.ReadCloser, error) {
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
func (l *S3) OpenStreamAt(ctx context.Context, p string) (io.ReadCloser, error) {
	client, err := l.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket, key, err := parseS3Path(p)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, l.mapError(p, err)
	}
	return out.Body, nil
}

// CreateStream открывает поток на запись через multipart uploader.
// Close завершает выгрузку.
func (l *S3) CreateStream(ctx context.Context) (io.WriteCloser, error) {
	client, err := l.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket, key, err := parseS3Path(l.path)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	uploader := manager.NewUploader(client)

	done := make(chan error, 1)
	go func() {
		_, uploadErr := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		if uploadErr != nil {
			pr.CloseWithError(uploadErr)
		}
		done <- uploadErr
	}()

	return &s3WriteStream{pw: pw, done: done}, nil
}

// s3WriteStream связывает pipe writer с фоновой выгрузкой
type s3WriteStream struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *s3WriteStream) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *s3WriteStream) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

// mapError переводит ошибки AWS SDK в таксономию фреймворка
func (l *S3) mapError(resource string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return errs.NotFound(resource)
		case "AccessDenied", "Forbidden":
			return errs.PermissionDenied(l.connID, resource)
		}
	}
	return fmt.Errorf("s3 %s: %w", resource, err)
}
