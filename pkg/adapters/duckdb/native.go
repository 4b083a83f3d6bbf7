package duckdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/adapters"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/errs"
	"github.com/ruslano69/udt-framework/pkg/locations"
)

// nativeKey - пара (тип location, тип файла), по которой адаптер
// решает, умеет ли движок читать источник сам
type nativeKey struct {
	location locations.Kind
	filetype dataset.FileType
}

// nativePaths - закрытая таблица поддерживаемых native-путей.
// DuckDB читает локальные файлы напрямую, s3 - через httpfs.
var nativePaths = map[nativeKey]bool{
	{locations.KindLocal, dataset.TypeCSV}:     true,
	{locations.KindLocal, dataset.TypeParquet}: true,
	{locations.KindLocal, dataset.TypeNDJSON}:  true,
	{locations.KindS3, dataset.TypeCSV}:        true,
	{locations.KindS3, dataset.TypeParquet}:    true,
}

// CheckNativePath - чистый предикат по таблице native-путей
func (a *Adapter) CheckNativePath(src dataset.File, _ dataset.Table) bool {
	return nativePaths[nativeKey{locations.KindFromPath(src.Path), src.Type}]
}

// LoadFileNatively загружает файл встроенными читалками DuckDB
// (read_csv_auto / read_parquet / read_json_auto)
func (a *Adapter) LoadFileNatively(ctx context.Context, src dataset.File, target dataset.Table,
	ifExists adapters.IfExists, options map[string]string) error {

	if !a.CheckNativePath(src, target) {
		return errs.Unsupported("native load",
			fmt.Sprintf("duckdb cannot natively read %s", src.Path))
	}

	if locations.KindFromPath(src.Path) == locations.KindS3 {
		if err := a.setupHTTPFS(ctx, options); err != nil {
			return err
		}
	}

	reader, err := readerExpr(src)
	if err != nil {
		return err
	}

	exists, err := a.TableExists(ctx, target)
	if err != nil {
		return err
	}

	name := a.QualifiedName(target)
	var stmt string
	switch ifExists {
	case adapters.IfExistsReplace:
		stmt = fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", name, reader)
	case adapters.IfExistsAppend:
		if exists {
			stmt = fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", name, reader)
		} else {
			stmt = fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", name, reader)
		}
	case adapters.IfExistsFail:
		if exists {
			return fmt.Errorf("table %s already exists", target.Name)
		}
		stmt = fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", name, reader)
	default:
		return errs.Unsupported("if_exists policy", string(ifExists))
	}

	if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to natively load %s into %s: %w", src.Path, target.Name, err)
	}
	return nil
}

// setupHTTPFS включает расширение httpfs и передает креды s3.
// Параметры берутся из options загрузки, затем из подключения.
func (a *Adapter) setupHTTPFS(ctx context.Context, options map[string]string) error {
	for _, stmt := range []string{"INSTALL httpfs", "LOAD httpfs"} {
		if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set up httpfs: %w", err)
		}
	}

	settings := map[string]string{
		"s3_region":            a.param(options, "region"),
		"s3_access_key_id":     a.param(options, "access_key_id"),
		"s3_secret_access_key": a.param(options, "secret_access_key"),
	}
	for key, value := range settings {
		if value == "" {
			continue
		}
		stmt := fmt.Sprintf("SET %s = '%s'", key, escape(value))
		if _, err := a.sqlAdapter.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

func (a *Adapter) param(options map[string]string, key string) string {
	if v, ok := options[key]; ok {
		return v
	}
	return a.params[key]
}

// readerExpr возвращает табличную функцию чтения по типу файла
func readerExpr(src dataset.File) (string, error) {
	path := escape(src.Path)
	switch src.Type {
	case dataset.TypeCSV:
		return fmt.Sprintf("read_csv_auto('%s', header = true)", path), nil
	case dataset.TypeParquet:
		return fmt.Sprintf("read_parquet('%s')", path), nil
	case dataset.TypeNDJSON:
		return fmt.Sprintf("read_json_auto('%s', format = 'newline_delimited')", path), nil
	default:
		return "", errs.Unsupported("native file type", string(src.Type))
	}
}

// escape экранирует одинарные кавычки SQL-литерала
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
