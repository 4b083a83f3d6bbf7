package filetypes

import (
	"io"
	"sync"

	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// DecodeOptions - параметры декодирования, единые для всех кодеков
type DecodeOptions struct {
	// Separator - разделитель при разворачивании вложенных записей.
	// Пустое значение означает dataset.DefaultNestedSeparator.
	// Оркестратор подставляет сюда разделитель, легальный для
	// целевого движка
	Separator string

	// Capitalization - политика регистра колонок, применяется
	// пост-обработкой после любого кодека
	Capitalization dataset.Capitalization
}

// Codec - контракт кодека файлового формата
type Codec interface {
	// Name возвращает формат кодека
	Name() dataset.FileType

	// Decode читает байтовый поток в табличный payload
	Decode(r io.Reader, opts DecodeOptions) (*tabular.Payload, error)

	// Encode записывает payload в байтовый поток
	Encode(p *tabular.Payload, w io.Writer) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[dataset.FileType]func() Codec)
)

// Register регистрирует конструктор кодека для формата.
// Вызывается из init() функций кодеков.
func Register(ft dataset.FileType, constructor func() Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[ft] = constructor
}

// New возвращает кодек для формата. Ровно один кодек
// привязывается к File при разрешении - выбор детерминирован.
func New(ft dataset.FileType) (Codec, error) {
	registryMu.RLock()
	constructor, ok := registry[ft]
	registryMu.RUnlock()

	if !ok {
		return nil, errs.Unsupported("filetype", "no codec registered for "+string(ft))
	}
	return constructor(), nil
}
