package snowflake

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/errs"
	"github.com/ruslano69/udt-framework/pkg/locations"
)

// nativeKey - пара (тип location, тип файла) native-таблицы
type nativeKey struct {
	location locations.Kind
	filetype dataset.FileType
}

// nativePaths: COPY INTO умеет читать s3 и gcs напрямую
var nativePaths = map[nativeKey]bool{
	{locations.KindS3, dataset.TypeCSV}:      true,
	{locations.KindS3, dataset.TypeNDJSON}:   true,
	{locations.KindS3, dataset.TypeParquet}:  true,
	{locations.KindGCS, dataset.TypeCSV}:     true,
	{locations.KindGCS, dataset.TypeNDJSON}:  true,
	{locations.KindGCS, dataset.TypeParquet}: true,
}

// CheckNativePath - чистый предикат по таблице native-путей
func (a *Adapter) CheckNativePath(src dataset.File, _ dataset.Table) bool {
	return nativePaths[nativeKey{locations.KindFromPath(src.Path), src.Type}]
}

// LoadFileNatively загружает файл через COPY INTO из object storage.
// Таблица должна существовать или иметь явные колонки:
// COPY INTO не выводит схему.
func (a *Adapter) LoadFileNatively(ctx context.Context, src dataset.File, target dataset.Table,
	ifExists adapters.IfExists, options map[string]string) error {

	if !a.CheckNativePath(src, target) {
		return errs.Unsupported("native load",
			fmt.Sprintf("snowflake cannot natively read %s", src.Path))
	}

	if err := a.prepareTarget(ctx, target, ifExists); err != nil {
		return err
	}

	auth, err := a.copyAuth(src, options)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("COPY INTO %s FROM '%s' %s FILE_FORMAT = (%s)%s",
		a.QualifiedName(target), escape(copyURL(src.Path)), auth,
		fileFormat(src.Type), matchByName(src.Type))
	if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to copy %s into %s: %w", src.Path, target.Name, err)
	}
	return nil
}

// prepareTarget приводит целевую таблицу к нужному состоянию
// согласно политике if_exists
func (a *Adapter) prepareTarget(ctx context.Context, target dataset.Table,
	ifExists adapters.IfExists) error {

	exists, err := a.TableExists(ctx, target)
	if err != nil {
		return err
	}

	switch ifExists {
	case adapters.IfExistsFail:
		if exists {
			return fmt.Errorf("table %s already exists", target.Name)
		}
	case adapters.IfExistsReplace:
		if exists {
			if err := a.DropTable(ctx, target); err != nil {
				return err
			}
			exists = false
		}
	case adapters.IfExistsAppend:
		// дописываем
	default:
		return errs.Unsupported("if_exists policy", string(ifExists))
	}

	if !exists {
		if len(target.Columns) == 0 {
			return errs.SchemaMismatch(fmt.Sprintf(
				"native load into %s requires explicit columns or an existing table", target.Name))
		}
		return a.CreateTable(ctx, target, target.Columns)
	}
	return nil
}

// copyAuth собирает клаузу авторизации COPY INTO:
// storage integration либо явные креды s3
func (a *Adapter) copyAuth(src dataset.File, options map[string]string) (string, error) {
	if integration := a.param(options, "storage_integration"); integration != "" {
		return "STORAGE_INTEGRATION = " + integration, nil
	}

	if locations.KindFromPath(src.Path) == locations.KindS3 {
		keyID := a.param(options, "access_key_id")
		secret := a.param(options, "secret_access_key")
		if keyID != "" && secret != "" {
			return fmt.Sprintf("CREDENTIALS = (AWS_KEY_ID = '%s' AWS_SECRET_KEY = '%s')",
				escape(keyID), escape(secret)), nil
		}
	}
	return "", errs.Unsupported("native load",
		"snowflake copy requires storage_integration or s3 credentials")
}

func (a *Adapter) param(options map[string]string, key string) string {
	if v, ok := options[key]; ok {
		return v
	}
	return a.params[key]
}

// copyURL приводит путь к виду, ожидаемому COPY INTO
// (Snowflake использует схему gcs:// для Google Cloud Storage)
func copyURL(path string) string {
	if strings.HasPrefix(path, "gs://") {
		return "gcs://" + strings.TrimPrefix(path, "gs://")
	}
	return path
}

// fileFormat возвращает клаузу FILE_FORMAT по типу файла
func fileFormat(ft dataset.FileType) string {
	switch ft {
	case dataset.TypeCSV:
		return `TYPE = CSV SKIP_HEADER = 1 FIELD_OPTIONALLY_ENCLOSED_BY = '"'`
	case dataset.TypeNDJSON:
		return "TYPE = JSON"
	default:
		return "TYPE = PARQUET"
	}
}

// matchByName: для JSON/Parquet колонки сопоставляются по имени
func matchByName(ft dataset.FileType) string {
	if ft == dataset.TypeCSV {
		return ""
	}
	return " MATCH_BY_COLUMN_NAME = CASE_INSENSITIVE"
}

// escape экранирует одинарные кавычки SQL-литерала
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
