package dataset

import (
	"fmt"
	"path"
	"strings"

	"github.com/ruslano69/udt-framework/pkg/errs"
)

// FileType определяет формат сериализации файла
type FileType string

const (
	TypeCSV     FileType = "csv"
	TypeJSON    FileType = "json"
	TypeNDJSON  FileType = "ndjson"
	TypeParquet FileType = "parquet"
	TypeXLSX    FileType = "xlsx"
)

// Capitalization - политика приведения регистра имен колонок после декодирования
type Capitalization string

const (
	CapOriginal Capitalization = "original"
	CapLower    Capitalization = "lower"
	CapUpper    Capitalization = "upper"
)

// DefaultNestedSeparator - разделитель по умолчанию при разворачивании
// вложенных записей в плоские колонки (parent_child)
const DefaultNestedSeparator = "_"

// NormalizeConfig управляет разворачиванием вложенных записей
// и приведением регистра колонок при декодировании
type NormalizeConfig struct {
	// Separator - разделитель между именем родителя и вложенного поля.
	// Пустое значение означает DefaultNestedSeparator
	Separator string `json:"separator,omitempty"`

	// Capitalization - политика регистра колонок (original/lower/upper)
	Capitalization Capitalization `json:"capitalization,omitempty"`
}

// File - идентичность исходного/целевого файла.
// Path может быть локальным путем, URI (s3://, gs://, gcs://, sftp://)
// и может содержать glob-шаблон.
type File struct {
	Path      string          `json:"path"`
	Conn      string          `json:"conn_id,omitempty"`
	Type      FileType        `json:"filetype,omitempty"`
	Normalize NormalizeConfig `json:"normalize_config,omitempty"`
}

// NewFile создает File, определяя тип из расширения если он не задан явно.
// Невозможность определить тип - жесткая ошибка, не тихий default.
func NewFile(p, conn string, explicit FileType) (File, error) {
	f := File{Path: p, Conn: conn, Type: explicit}
	if f.Type == "" {
		ft, err := TypeFromPath(p)
		if err != nil {
			return File{}, err
		}
		f.Type = ft
	}
	return f, nil
}

// compressionSuffixes - суффиксы сжатия, снимаемые перед определением формата
var compressionSuffixes = []string{".gz", ".zst"}

// TypeFromPath определяет формат файла по расширению пути.
// Суффиксы сжатия (.gz, .zst) отбрасываются перед определением.
func TypeFromPath(p string) (FileType, error) {
	name := p
	for _, suffix := range compressionSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return TypeCSV, nil
	case ".json":
		return TypeJSON, nil
	case ".ndjson", ".jsonl":
		return TypeNDJSON, nil
	case ".parquet":
		return TypeParquet, nil
	case ".xlsx":
		return TypeXLSX, nil
	}
	return "", errs.Unsupported("filetype",
		fmt.Sprintf("cannot infer file type from path %q", p))
}

// CompressionFromPath возвращает суффикс сжатия пути ("gz", "zst")
// или пустую строку если файл не сжат
func CompressionFromPath(p string) string {
	switch {
	case strings.HasSuffix(p, ".gz"):
		return "gz"
	case strings.HasSuffix(p, ".zst"):
		return "zst"
	}
	return ""
}

// EffectiveSeparator возвращает действующий разделитель вложенности
func (n NormalizeConfig) EffectiveSeparator() string {
	if n.Separator == "" {
		return DefaultNestedSeparator
	}
	return n.Separator
}

func (f File) String() string {
	return fmt.Sprintf("File(path=%s, type=%s, conn=%s)", f.Path, f.Type, f.Conn)
}
