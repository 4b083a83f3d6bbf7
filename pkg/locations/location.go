package locations

import (
	"context"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// Kind определяет тип storage backend'а
type Kind string

const (
	KindLocal Kind = "local"
	KindS3    Kind = "s3"
	KindGCS   Kind = "gcs"
	KindSFTP  Kind = "sftp"
)

// Location - единый контракт storage backend'а.
// Все операции с I/O принимают context; креденшелы разрешаются
// лениво при первой операции, а не при конструировании -
// чисто-метаданные операции не должны трогать секрет-стор.
type Location interface {
	// Kind возвращает тип backend'а
	Kind() Kind

	// Exists проверяет существование хотя бы одного объекта по пути
	Exists(ctx context.Context) (bool, error)

	// Paths разворачивает glob/prefix в список конкретных путей.
	// Ноль совпадений - пустой список, не ошибка.
	Paths(ctx context.Context) ([]string, error)

	// Size возвращает суммарный размер объектов по пути в байтах
	Size(ctx context.Context) (int64, error)

	// OpenStream открывает байтовый поток первого объекта пути.
	// Вызывающий обязан закрыть поток на всех путях выхода.
	OpenStream(ctx context.Context) (io.ReadCloser, error)

	// OpenStreamAt открывает поток конкретного объекта
	// (одного из возвращенных Paths)
	OpenStreamAt(ctx context.Context, path string) (io.ReadCloser, error)

	// CreateStream открывает поток на запись. Закрытие потока
	// завершает выгрузку объекта.
	CreateStream(ctx context.Context) (io.WriteCloser, error)
}

// Constructor - функция-конструктор location для фабрики
type Constructor func(path, connID string, resolver connections.Resolver) (Location, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register регистрирует конструктор location для URI-схемы.
// Вызывается из init() функций backend'ов.
func Register(scheme string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scheme] = constructor
}

// KindFromPath определяет тип backend'а по схеме пути.
// Путь без схемы (или file://) - локальный диск.
func KindFromPath(path string) Kind {
	switch schemeOf(path) {
	case "s3":
		return KindS3
	case "gs", "gcs":
		return KindGCS
	case "sftp":
		return KindSFTP
	default:
		return KindLocal
	}
}

// New создает location для пути, выбирая backend детерминированно
// по схеме URI. Ровно один backend привязывается к пути.
func New(path, connID string, resolver connections.Resolver) (Location, error) {
	scheme := schemeOf(path)

	registryMu.RLock()
	constructor, ok := registry[scheme]
	registryMu.RUnlock()

	if !ok {
		return nil, errs.Unsupported("location",
			"no backend registered for scheme "+schemeDisplay(scheme))
	}
	return constructor(path, connID, resolver)
}

// schemeOf извлекает схему URI; пустая строка = локальный путь
func schemeOf(path string) string {
	if !strings.Contains(path, "://") {
		return ""
	}
	u, err := url.Parse(path)
	if err != nil {
		return ""
	}
	return u.Scheme
}

func schemeDisplay(scheme string) string {
	if scheme == "" {
		return "(local)"
	}
	return scheme + "://"
}
