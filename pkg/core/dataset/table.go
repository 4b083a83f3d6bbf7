package dataset

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// MaxTableNameLength - максимальная длина сгенерированного имени таблицы.
// Выбрана по самому строгому из поддерживаемых движков (PostgreSQL: 63).
const MaxTableNameLength = 63

// TempPrefix - префикс имен временных таблиц, создаваемых фреймворком
const TempPrefix = "_udt_"

// Metadata содержит адресацию таблицы внутри движка.
// Пустое поле означает "использовать default движка" - значение
// подставляет адаптер в момент выполнения, не сам объект.
type Metadata struct {
	Schema    string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Database  string `json:"database,omitempty" yaml:"database,omitempty"`
	Warehouse string `json:"warehouse,omitempty" yaml:"warehouse,omitempty"`
	Role      string `json:"role,omitempty" yaml:"role,omitempty"`
}

// IsEmpty проверяет, заданы ли хоть какие-то метаданные
func (m Metadata) IsEmpty() bool {
	return m == Metadata{}
}

// Column описывает одну колонку таблицы
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // обобщенный тип: string, integer, float, boolean, timestamp
	Key  bool   `json:"key,omitempty"`  // входит в первичный ключ
}

// Table - идентичность реляционной таблицы.
// Объект-значение: после конструирования имя не меняется.
type Table struct {
	Name     string   `json:"name"`
	Conn     string   `json:"conn_id,omitempty"`
	Metadata Metadata `json:"metadata"`
	Columns  []Column `json:"columns,omitempty"`

	// Temp помечает таблицу как эфемерную: она будет удалена
	// проходом очистки по завершении unit of work
	Temp bool `json:"temp"`
}

// NewTable создает таблицу с явным именем
func NewTable(name, conn string, meta Metadata) Table {
	return Table{Name: name, Conn: conn, Metadata: meta}
}

// NewTempTable создает таблицу со сгенерированным уникальным именем
// и флагом Temp. Имя фиксируется один раз и больше не меняется.
func NewTempTable(conn string, meta Metadata) Table {
	return Table{
		Name:     GenerateTableName(),
		Conn:     conn,
		Metadata: meta,
		Temp:     true,
	}
}

// GenerateTableName генерирует уникальное имя таблицы:
// префикс + случайные lowercase-алфавитно-цифровые символы,
// суммарно не длиннее MaxTableNameLength
func GenerateTableName() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	n := MaxTableNameLength - len(TempPrefix)

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// Fallback на timestamp
		return fmt.Sprintf("%s%d", TempPrefix, time.Now().UnixNano())
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return TempPrefix + string(b)
}

// DeterministicTempName строит воспроизводимое имя временной таблицы
// из контекста запуска (run id, task id и т.п.). Повтор того же
// запуска дает то же имя - повторная загрузка перезапишет свой же
// остаток вместо создания нового.
func DeterministicTempName(parts ...string) string {
	h := xxh3.HashString(strings.Join(parts, "/"))
	name := TempPrefix + strconv.FormatUint(h, 36)
	if len(name) > MaxTableNameLength {
		name = name[:MaxTableNameLength]
	}
	return name
}

// NewDeterministicTempTable создает Temp-таблицу с воспроизводимым именем
func NewDeterministicTempTable(conn string, meta Metadata, parts ...string) Table {
	return Table{
		Name:     DeterministicTempName(parts...),
		Conn:     conn,
		Metadata: meta,
		Temp:     true,
	}
}

// KeyColumns возвращает имена колонок, входящих в первичный ключ
func (t Table) KeyColumns() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.Key {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

func (t Table) String() string {
	return fmt.Sprintf("Table(name=%s, schema=%s, database=%s, conn=%s)",
		t.Name, t.Metadata.Schema, t.Metadata.Database, t.Conn)
}
