package errs

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки для классификации через errors.Is.
// Политика ретраев различается: not found не ретраится никогда,
// транспортные ошибки ретраит внешний workflow-движок.
var (
	// ErrNotFound - ресурс (файл, таблица, схема) не существует
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied - доступ запрещен (отличается от not found!)
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotImplemented - метод адаптера не реализован
	// Означает неполный адаптер (ошибка программирования),
	// а не "движок не поддерживает операцию" (ошибка конфигурации)
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupported - запрошенная возможность не поддерживается
	// данным адаптером/кодеком (native path, стратегия merge, тип файла)
	ErrUnsupported = errors.New("unsupported operation")

	// ErrSchemaMismatch - данные не соответствуют схемным гарантиям
	// (вложенность глубже одного уровня, отсутствующие колонки при merge)
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// NotFound оборачивает ErrNotFound с именем конкретного ресурса
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// PermissionDenied оборачивает ErrPermissionDenied с контекстом
// (conn id + ресурс), достаточным для диагностики без утечки секретов
func PermissionDenied(connID, resource string) error {
	if connID == "" {
		return fmt.Errorf("%s: %w", resource, ErrPermissionDenied)
	}
	return fmt.Errorf("conn %s: %s: %w", connID, resource, ErrPermissionDenied)
}

// NotImplemented сообщает о нереализованном методе адаптера
func NotImplemented(engine, method string) error {
	return fmt.Errorf("adapter %s: method %s: %w", engine, method, ErrNotImplemented)
}

// Unsupported сообщает о неподдерживаемой возможности
func Unsupported(subject, detail string) error {
	return fmt.Errorf("%s: %s: %w", subject, detail, ErrUnsupported)
}

// SchemaMismatch сообщает о нарушении схемных гарантий
func SchemaMismatch(detail string) error {
	return fmt.Errorf("%s: %w", detail, ErrSchemaMismatch)
}

// TransferJobError - внешняя асинхронная задача (native load,
// cross-service transfer) завершилась в неуспешном терминальном состоянии.
// Сохраняет исходный payload ошибки провайдера.
type TransferJobError struct {
	Provider string // "bigquery", "snowflake", ...
	JobID    string
	Payload  string // сырое сообщение провайдера
}

func (e *TransferJobError) Error() string {
	if e.JobID != "" {
		return fmt.Sprintf("%s job %s failed: %s", e.Provider, e.JobID, e.Payload)
	}
	return fmt.Sprintf("%s job failed: %s", e.Provider, e.Payload)
}
