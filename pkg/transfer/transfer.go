package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
	"github.com/ruslano69/udt-framework/pkg/filetypes"
	"github.com/ruslano69/udt-framework/pkg/locations"
)

var errNegativeChunkSize = errors.New("chunk size must not be negative")

// LoadPath указывает, каким путем прошла загрузка
type LoadPath string

const (
	PathNative  LoadPath = "native"
	PathGeneric LoadPath = "generic"
)

// Request описывает один перенос файл -> таблица
type Request struct {
	// Source - исходный файл (путь может содержать glob)
	Source dataset.File

	// Dest - целевая таблица. Пустое имя означает временную таблицу:
	// детерминированную при заданных RunID/TaskID, случайную иначе
	Dest dataset.Table

	// IfExists - политика при существующей целевой таблице
	IfExists adapters.IfExists

	// ChunkSize перекрывает значение конфигурации (0 = из конфигурации)
	ChunkSize int

	// DisableNative запрещает native-путь для этого переноса
	DisableNative bool

	// NativeOptions - параметры native-загрузки, поверх конфигурации
	NativeOptions map[string]string

	// RunID, TaskID - контекст запуска для детерминированных
	// имен временных таблиц
	RunID  string
	TaskID string
}

// Result - итог переноса
type Result struct {
	// RowsLoaded - число загруженных строк; -1 на native-пути,
	// где движок не сообщает количество
	RowsLoaded int64

	// Path - native или generic
	Path LoadPath

	// Files - развернутый список обработанных путей
	Files []string

	// Dest - целевая таблица (с подставленным именем для временных)
	Dest dataset.Table
}

// Runner - оркестратор переносов. Владеет резолвером подключений
// и конфигурацией; адаптер создается на каждый перенос.
type Runner struct {
	resolver connections.Resolver
	cfg      Config
}

// NewRunner создает оркестратор
func NewRunner(resolver connections.Resolver, cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	return &Runner{resolver: resolver, cfg: cfg}, nil
}

// Run выполняет перенос файл -> таблица.
// Native-путь используется только когда предикат адаптера истинен
// и native не отключен; ошибки native не откатываются в generic.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	dest := r.resolveDest(req)

	conn, err := r.resolver.Resolve(dest.Conn)
	if err != nil {
		return Result{}, err
	}
	adapter, err := adapters.New(ctx, adapters.ConfigFromConnection(dest.Conn, conn))
	if err != nil {
		return Result{}, err
	}
	defer adapter.Close(ctx)

	dest = fillMetadata(dest, adapter.DefaultMetadata())

	loc, err := locations.New(req.Source.Path, req.Source.Conn, r.resolver)
	if err != nil {
		return Result{}, err
	}
	paths, err := loc.Paths(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(paths) == 0 {
		return Result{}, errs.NotFound(req.Source.Path)
	}

	useNative := adapter.CheckNativePath(req.Source, dest) &&
		!req.DisableNative && !r.cfg.DisableNative

	if useNative {
		if err := r.runNative(ctx, adapter, req, dest, paths); err != nil {
			return Result{}, err
		}
		return Result{RowsLoaded: -1, Path: PathNative, Files: paths, Dest: dest}, nil
	}

	rows, err := r.runGeneric(ctx, adapter, req, dest, loc, paths)
	if err != nil {
		return Result{}, err
	}
	return Result{RowsLoaded: rows, Path: PathGeneric, Files: paths, Dest: dest}, nil
}

// resolveDest подставляет имя временной таблицы при пустом имени
func (r *Runner) resolveDest(req Request) dataset.Table {
	dest := req.Dest
	if dest.Name != "" {
		return dest
	}
	if req.RunID != "" || req.TaskID != "" {
		return dataset.NewDeterministicTempTable(dest.Conn, dest.Metadata,
			req.RunID, req.TaskID, req.Source.Path)
	}
	tmp := dataset.NewTempTable(dest.Conn, dest.Metadata)
	tmp.Columns = dest.Columns
	return tmp
}

// fillMetadata дополняет пустые поля метаданных значениями движка
func fillMetadata(t dataset.Table, defaults dataset.Metadata) dataset.Table {
	if t.Metadata.Schema == "" {
		t.Metadata.Schema = defaults.Schema
	}
	if t.Metadata.Database == "" {
		t.Metadata.Database = defaults.Database
	}
	if t.Metadata.Warehouse == "" {
		t.Metadata.Warehouse = defaults.Warehouse
	}
	if t.Metadata.Role == "" {
		t.Metadata.Role = defaults.Role
	}
	return t
}

// runNative загружает каждый найденный файл native-путем движка.
// IfExists действует только на первый файл, остальные дописываются.
func (r *Runner) runNative(ctx context.Context, adapter adapters.Adapter, req Request,
	dest dataset.Table, paths []string) error {

	options := mergeOptions(r.cfg.NativeOptions, req.NativeOptions)
	ifExists := req.IfExists
	for _, p := range paths {
		src := req.Source
		src.Path = p
		if err := adapter.LoadFileNatively(ctx, src, dest, ifExists, options); err != nil {
			return err
		}
		ifExists = adapters.IfExistsAppend
	}
	return nil
}

// runGeneric декодирует каждый файл кодеком и грузит чанками.
// IfExists действует только на первый файл, остальные дописываются.
func (r *Runner) runGeneric(ctx context.Context, adapter adapters.Adapter, req Request,
	dest dataset.Table, loc locations.Location, paths []string) (int64, error) {

	codec, err := filetypes.New(req.Source.Type)
	if err != nil {
		return 0, err
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = r.cfg.ChunkSize
	}

	opts := filetypes.DecodeOptions{
		Separator:      effectiveSeparator(req.Source.Normalize, adapter),
		Capitalization: req.Source.Normalize.Capitalization,
	}

	var total int64
	ifExists := req.IfExists
	for _, p := range paths {
		payload, err := decodeOne(ctx, loc, p, codec, opts)
		if err != nil {
			return total, fmt.Errorf("failed to decode %s: %w", p, err)
		}
		if err := adapter.LoadPayload(ctx, payload, dest, ifExists, chunkSize); err != nil {
			return total, err
		}
		total += int64(payload.NumRows())
		ifExists = adapters.IfExistsAppend
	}
	return total, nil
}

// decodeOne открывает поток одного файла, снимает сжатие и декодирует
func decodeOne(ctx context.Context, loc locations.Location, path string,
	codec filetypes.Codec, opts filetypes.DecodeOptions) (*tabular.Payload, error) {

	rc, err := loc.OpenStreamAt(ctx, path)
	if err != nil {
		return nil, err
	}
	// OpenDecompressed сам закрывает rc при ошибке
	stream, err := locations.OpenDecompressed(rc, dataset.CompressionFromPath(path))
	if err != nil {
		return nil, err
	}
	defer stream.Close()
	return codec.Decode(stream, opts)
}

// effectiveSeparator возвращает разделитель вложенности с учетом
// ограничений движка: если движок запрещает настроенный символ
// в именах колонок, используется разделитель по умолчанию
func effectiveSeparator(n dataset.NormalizeConfig, adapter adapters.Adapter) string {
	sep := n.EffectiveSeparator()
	for _, illegal := range adapter.IllegalColumnChars() {
		if sep == illegal {
			return dataset.DefaultNestedSeparator
		}
	}
	return sep
}

// mergeOptions накладывает перекрытия запроса на значения конфигурации
func mergeOptions(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
