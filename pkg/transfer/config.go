package transfer

import "github.com/ruslano69/udt-framework/pkg/core/tabular"

// Config - явные параметры оркестратора. Передается при конструировании,
// никакого чтения окружения по ходу операции.
type Config struct {
	// ChunkSize - число строк в одном INSERT generic-пути
	ChunkSize int

	// DisableNative полностью выключает native-загрузки
	DisableNative bool

	// NativeOptions - параметры native-загрузок по умолчанию
	// (storage integration, креды object store, интервалы опроса)
	NativeOptions map[string]string
}

// DefaultConfig возвращает свежую копию конфигурации по умолчанию.
// Каждый вызов - новое значение: мутация полученного Config
// не влияет на последующие вызовы.
func DefaultConfig() Config {
	return Config{
		ChunkSize: tabular.DefaultChunkSize,
	}
}

// Validate проверяет согласованность конфигурации
func (c Config) Validate() error {
	if c.ChunkSize < 0 {
		return errNegativeChunkSize
	}
	return nil
}
