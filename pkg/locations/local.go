package locations

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

func init() {
	Register("", newLocal)
	Register("file", newLocal)
}

// Local - location для локальной файловой системы
type Local struct {
	path string
}

var _ Location = (*Local)(nil)

func newLocal(path, connID string, _ connections.Resolver) (Location, error) {
	path = strings.TrimPrefix(path, "file://")
	return &Local{path: path}, nil
}

// Kind возвращает тип backend'а
func (l *Local) Kind() Kind {
	return KindLocal
}

// Paths разворачивает glob-шаблон в список файлов.
// Порядок детерминирован (лексикографический).
func (l *Local) Paths(_ context.Context) ([]string, error) {
	matches, err := filepath.Glob(l.path)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", l.path, err)
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

// Exists проверяет существование хотя бы одного файла
func (l *Local) Exists(ctx context.Context) (bool, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

// Size возвращает суммарный размер всех файлов шаблона
func (l *Local) Size(ctx context.Context) (int64, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, errs.NotFound(l.path)
	}

	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return 0, l.mapError(p, err)
		}
		total += info.Size()
	}
	return total, nil
}

// OpenStream открывает первый файл шаблона
func (l *Local) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	paths, err := l.Paths(ctx)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errs.NotFound(l.path)
	}
	return l.OpenStreamAt(ctx, paths[0])
}

// OpenStreamAt открывает конкретный файл
func (l *Local) OpenStreamAt(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, l.mapError(path, err)
	}
	return f, nil
}

// CreateStream создает файл на запись, включая родительские каталоги
func (l *Local) CreateStream(_ context.Context) (io.WriteCloser, error) {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(l.path)
	if err != nil {
		return nil, l.mapError(l.path, err)
	}
	return f, nil
}

// mapError переводит ошибки ОС в таксономию фреймворка:
// not found / permission denied / транспортная - вызывающие
// различают их, потому что политика ретраев разная
func (l *Local) mapError(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return errs.NotFound(path)
	case os.IsPermission(err):
		return errs.PermissionDenied("", path)
	case err == fs.ErrInvalid:
		return fmt.Errorf("invalid path %q: %w", path, err)
	default:
		return fmt.Errorf("local file %s: %w", path, err)
	}
}
