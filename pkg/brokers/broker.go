package brokers

import (
	"context"
	"fmt"
)

// MessageBroker - интерфейс публикации выгруженных данных во внешнюю
// очередь сообщений. Потребление остается на стороне внешних систем,
// фреймворк только отправляет. Поддерживает RabbitMQ и Apache Kafka.
type MessageBroker interface {
	// Connect устанавливает соединение с брокером
	Connect(ctx context.Context) error

	// Close закрывает соединение с брокером
	Close() error

	// Send отправляет сообщение в очередь
	// (тело - NDJSON-батч строк выгрузки)
	Send(ctx context.Context, message []byte) error

	// Ping проверяет доступность брокера
	Ping(ctx context.Context) error

	// GetBrokerType возвращает тип брокера (rabbitmq, kafka)
	GetBrokerType() string
}

// Config содержит параметры подключения к message broker
type Config struct {
	Type     string // rabbitmq, kafka
	Host     string // Хост (для RabbitMQ)
	Port     int    // Порт (для RabbitMQ)
	User     string // Пользователь (для RabbitMQ)
	Password string // Пароль (для RabbitMQ)
	Queue    string // Имя очереди (для RabbitMQ)
	VHost    string // Virtual host (для RabbitMQ, по умолчанию "/")
	UseTLS   bool   // Использовать TLS/SSL (amqps://) для RabbitMQ

	// RabbitMQ параметры очереди (должны совпадать с существующей очередью!)
	Durable    bool // Очередь переживает перезапуск RabbitMQ
	AutoDelete bool // Очередь удаляется когда нет consumer'ов
	Exclusive  bool // Очередь доступна только одному соединению
	Exchange   string
	RoutingKey string // Если пустой, используется имя очереди

	// Kafka специфичные параметры
	Brokers []string // Список Kafka brokers
	Topic   string   // Имя Kafka topic
}

// New создает новый MessageBroker на основе конфигурации
func New(cfg Config) (MessageBroker, error) {
	switch cfg.Type {
	case "rabbitmq":
		return NewRabbitMQ(cfg)
	case "kafka":
		return NewKafka(cfg)
	default:
		return nil, fmt.Errorf("unsupported broker type: %s (supported: rabbitmq, kafka)", cfg.Type)
	}
}
