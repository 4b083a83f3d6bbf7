package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/adapters/base"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
	"github.com/ruslano69/udt-framework/pkg/errs"
)

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(adapters.EngineBigQuery, func() adapters.Adapter {
		return &Adapter{}
	})
}

const (
	defaultPollInterval = 2 * time.Second
	defaultLoadTimeout  = 10 * time.Minute
)

// Adapter представляет адаптер для работы с BigQuery.
// Работает через cloud.google.com/go/bigquery, не через database/sql.
type Adapter struct {
	base.Unimplemented
	client  *bigquery.Client
	project string
	dataset string
	params  map[string]string

	// параметры опроса LOAD job
	pollInterval time.Duration
	loadTimeout  time.Duration
}

// Connect создает BigQuery клиент.
// Проект берется из Database, ключ сервисного аккаунта -
// из параметра key_file (без него - Application Default Credentials).
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	a.EngineName = adapters.EngineBigQuery

	project := cfg.Database
	if project == "" {
		project = cfg.Params["project_id"]
	}
	if project == "" {
		return fmt.Errorf("bigquery connection requires a project id")
	}

	var opts []option.ClientOption
	if keyFile := cfg.Params["key_file"]; keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}

	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return fmt.Errorf("failed to create bigquery client: %w", err)
	}

	a.client = client
	a.project = project
	a.dataset = cfg.Schema
	a.params = cfg.Params
	a.pollInterval = durationParam(cfg.Params, "load_poll_interval", defaultPollInterval)
	a.loadTimeout = durationParam(cfg.Params, "load_timeout", defaultLoadTimeout)
	return nil
}

func durationParam(params map[string]string, key string, fallback time.Duration) time.Duration {
	if v, ok := params[key]; ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Close закрывает клиент
func (a *Adapter) Close(context.Context) error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

// Ping проверяет доступность проекта запросом метаданных датасетов
func (a *Adapter) Ping(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("adapter not connected")
	}
	it := a.client.Datasets(ctx)
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("failed to ping bigquery: %w", err)
	}
	return nil
}

// Engine возвращает тип движка
func (a *Adapter) Engine() adapters.Engine {
	return adapters.EngineBigQuery
}

// DefaultMetadata: проект как database, датасет как schema
func (a *Adapter) DefaultMetadata() dataset.Metadata {
	return dataset.Metadata{Schema: a.dataset, Database: a.project}
}

// QualifiedName: `project.dataset.table`
func (a *Adapter) QualifiedName(t dataset.Table) string {
	project := t.Metadata.Database
	if project == "" {
		project = a.project
	}
	ds := t.Metadata.Schema
	if ds == "" {
		ds = a.dataset
	}
	return fmt.Sprintf("`%s.%s.%s`", project, ds, t.Name)
}

// IllegalColumnChars: точка недопустима в именах колонок BigQuery
func (a *Adapter) IllegalColumnChars() []string {
	return []string{"."}
}

// datasetOf возвращает датасет таблицы с учетом значения подключения
func (a *Adapter) datasetOf(t dataset.Table) string {
	if t.Metadata.Schema != "" {
		return t.Metadata.Schema
	}
	return a.dataset
}

// TableExists проверяет существование таблицы запросом метаданных
func (a *Adapter) TableExists(ctx context.Context, t dataset.Table) (bool, error) {
	_, err := a.client.Dataset(a.datasetOf(t)).Table(t.Name).Metadata(ctx)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check table existence: %w", err)
}

// SchemaExists проверяет существование датасета
func (a *Adapter) SchemaExists(ctx context.Context, schema string) (bool, error) {
	_, err := a.client.Dataset(schema).Metadata(ctx)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check dataset existence: %w", err)
}

// fieldTypeFor отображает обобщенный тип колонки на тип BigQuery
func fieldTypeFor(kind string) bigquery.FieldType {
	switch kind {
	case tabular.KindInteger:
		return bigquery.IntegerFieldType
	case tabular.KindFloat:
		return bigquery.FloatFieldType
	case tabular.KindBoolean:
		return bigquery.BooleanFieldType
	case tabular.KindTimestamp:
		return bigquery.TimestampFieldType
	default:
		return bigquery.StringFieldType
	}
}

// CreateTable создает таблицу по списку колонок
func (a *Adapter) CreateTable(ctx context.Context, t dataset.Table, cols []dataset.Column) error {
	if len(cols) == 0 {
		return errs.SchemaMismatch(fmt.Sprintf("cannot create table %s without columns", t.Name))
	}

	schema := make(bigquery.Schema, len(cols))
	for i, col := range cols {
		schema[i] = &bigquery.FieldSchema{Name: col.Name, Type: fieldTypeFor(col.Type)}
	}

	err := a.client.Dataset(a.datasetOf(t)).Table(t.Name).Create(ctx,
		&bigquery.TableMetadata{Schema: schema})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}
	return nil
}

// DropTable удаляет таблицу; отсутствие таблицы - не ошибка
func (a *Adapter) DropTable(ctx context.Context, t dataset.Table) error {
	err := a.client.Dataset(a.datasetOf(t)).Table(t.Name).Delete(ctx)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
	}
	return nil
}

// isNotFound распознает 404 от BigQuery API
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
