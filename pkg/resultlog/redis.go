package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ruslano69/udt-framework/pkg/transfer"
)

// Config - параметры публикации результата переноса в Redis
type Config struct {
	// Name - имя переноса, входит в Redis-ключи
	Name string `yaml:"name"`

	// Address - адрес Redis (host:port)
	Address string `yaml:"address"`

	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`

	// TTL состояния в секундах (0 = без истечения)
	TTL int `yaml:"ttl,omitempty"`
}

// TransferState представляет терминальное состояние переноса,
// публикуемое в Redis.
//
// Redis-ключи:
//
//	SET  udt:transfer:<name>:state  <JSON>  EX <ttl>  — для GET-запросов оркестратора
//	PUB  udt:transfer:<name>                          — для event-driven маршрутизации
type TransferState struct {
	TransferName string    `json:"transfer_name"`
	Status       string    `json:"status"` // "success" | "failed"
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	DurationMs   int64     `json:"duration_ms"`
	RowsLoaded   int64     `json:"rows_loaded"`
	LoadPath     string    `json:"load_path,omitempty"` // native | generic
	Files        []string  `json:"files,omitempty"`
	Error        *string   `json:"error,omitempty"`
}

// RedisPublisher публикует результат переноса в Redis
type RedisPublisher struct {
	client *redis.Client
	config Config
}

// NewRedisPublisher создает новый Redis publisher на основе конфигурации
func NewRedisPublisher(config Config) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisPublisher{client: client, config: config}
}

// Publish публикует терминальное состояние переноса:
//   - SET udt:transfer:<name>:state <JSON> EX <ttl>  → для опроса (polling)
//   - PUBLISH udt:transfer:<name> <JSON>             → для подписки (pub/sub)
//
// Вызывается независимо от результата выполнения.
// execErr == nil означает успешное выполнение.
func (p *RedisPublisher) Publish(ctx context.Context, result transfer.Result,
	startedAt, finishedAt time.Time, execErr error) error {

	state := TransferState{
		TransferName: p.config.Name,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		DurationMs:   finishedAt.Sub(startedAt).Milliseconds(),
		RowsLoaded:   result.RowsLoaded,
		LoadPath:     string(result.Path),
		Files:        result.Files,
	}

	if execErr != nil {
		state.Status = "failed"
		errStr := execErr.Error()
		state.Error = &errStr
	} else {
		state.Status = "success"
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer state: %w", err)
	}

	stateKey := fmt.Sprintf("udt:transfer:%s:state", p.config.Name)
	eventChannel := fmt.Sprintf("udt:transfer:%s", p.config.Name)
	ttl := time.Duration(p.config.TTL) * time.Second

	if err := p.client.Set(ctx, stateKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	if err := p.client.Publish(ctx, eventChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}

	return nil
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
