package adapters

import (
	"context"
	"fmt"
	"sync"
)

// Constructor - функция-конструктор адаптера.
// Возвращает новый экземпляр (еще не подключенный к движку).
type Constructor func() Adapter

// Factory - фабрика для создания адаптеров.
// Реестр закрыт по множеству Engine: диспетчеризация идет по
// enum-ключу, а не по вычисленным именам методов.
type Factory struct {
	registry map[Engine]Constructor
	mu       sync.RWMutex
}

// NewFactory создает новую фабрику адаптеров
func NewFactory() *Factory {
	return &Factory{
		registry: make(map[Engine]Constructor),
	}
}

// Register регистрирует конструктор адаптера для движка
//
// Пример:
//
//	factory.Register(adapters.EnginePostgres, func() adapters.Adapter {
//	    return &postgres.Adapter{}
//	})
func (f *Factory) Register(engine Engine, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry[engine] = constructor
}

// IsRegistered проверяет, зарегистрирован ли адаптер для движка
func (f *Factory) IsRegistered(engine Engine) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.registry[engine]
	return ok
}

// RegisteredEngines возвращает список всех зарегистрированных движков
func (f *Factory) RegisteredEngines() []Engine {
	f.mu.RLock()
	defer f.mu.RUnlock()

	engines := make([]Engine, 0, len(f.registry))
	for engine := range f.registry {
		engines = append(engines, engine)
	}
	return engines
}

// Create создает и подключает адаптер по конфигурации
func (f *Factory) Create(ctx context.Context, cfg Config) (Adapter, error) {
	f.mu.RLock()
	constructor, ok := f.registry[cfg.Engine]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown engine: %s (available: %v)",
			cfg.Engine, f.RegisteredEngines())
	}

	adapter := constructor()
	if err := adapter.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Engine, err)
	}
	return adapter, nil
}

// CreateWithoutConnect создает адаптер без подключения к движку.
// Полезно для чисто-метаданных операций (QualifiedName,
// CheckNativePath) и тестирования.
func (f *Factory) CreateWithoutConnect(engine Engine) (Adapter, error) {
	f.mu.RLock()
	constructor, ok := f.registry[engine]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown engine: %s (available: %v)",
			engine, f.RegisteredEngines())
	}
	return constructor(), nil
}

// ========== Global Factory ==========

var globalFactory = NewFactory()

// Register регистрирует адаптер в глобальной фабрике.
// Обычно вызывается в init() функциях адаптеров.
func Register(engine Engine, constructor Constructor) {
	globalFactory.Register(engine, constructor)
}

// IsRegistered проверяет регистрацию в глобальной фабрике
func IsRegistered(engine Engine) bool {
	return globalFactory.IsRegistered(engine)
}

// RegisteredEngines возвращает движки глобальной фабрики
func RegisteredEngines() []Engine {
	return globalFactory.RegisteredEngines()
}

// New создает адаптер через глобальную фабрику.
// Основной способ создания адаптеров в приложении.
func New(ctx context.Context, cfg Config) (Adapter, error) {
	return globalFactory.Create(ctx, cfg)
}

// NewWithoutConnect создает неподключенный адаптер через глобальную фабрику
func NewWithoutConnect(engine Engine) (Adapter, error) {
	return globalFactory.CreateWithoutConnect(engine)
}
