package adapters

import (
	"context"
	"strings"
	"testing"

	"github.com/ruslano69/udt-framework/pkg/connections"
	"github.com/ruslano69/udt-framework/pkg/core/dataset"
	"github.com/ruslano69/udt-framework/pkg/core/tabular"
)

// stubAdapter - минимальный адаптер для тестов фабрики
type stubAdapter struct {
	connected bool
}

func (s *stubAdapter) Connect(_ context.Context, _ Config) error { s.connected = true; return nil }
func (s *stubAdapter) Close(_ context.Context) error             { return nil }
func (s *stubAdapter) Ping(_ context.Context) error              { return nil }
func (s *stubAdapter) Engine() Engine                            { return Engine("stub") }
func (s *stubAdapter) DefaultMetadata() dataset.Metadata         { return dataset.Metadata{} }
func (s *stubAdapter) QualifiedName(t dataset.Table) string      { return t.Name }
func (s *stubAdapter) IllegalColumnChars() []string              { return nil }
func (s *stubAdapter) TableExists(_ context.Context, _ dataset.Table) (bool, error) {
	return false, nil
}
func (s *stubAdapter) SchemaExists(_ context.Context, _ string) (bool, error) { return false, nil }
func (s *stubAdapter) CreateTable(_ context.Context, _ dataset.Table, _ []dataset.Column) error {
	return nil
}
func (s *stubAdapter) DropTable(_ context.Context, _ dataset.Table) error { return nil }
func (s *stubAdapter) LoadPayload(_ context.Context, _ *tabular.Payload, _ dataset.Table, _ IfExists, _ int) error {
	return nil
}
func (s *stubAdapter) CheckNativePath(_ dataset.File, _ dataset.Table) bool { return false }
func (s *stubAdapter) LoadFileNatively(_ context.Context, _ dataset.File, _ dataset.Table, _ IfExists, _ map[string]string) error {
	return nil
}
func (s *stubAdapter) MergeTables(_ context.Context, _ MergeRequest) error { return nil }
func (s *stubAdapter) ExportToPayload(_ context.Context, _ dataset.Table) (*tabular.Payload, error) {
	return nil, nil
}

var _ Adapter = (*stubAdapter)(nil)

func TestFactoryRegisterAndCreate(t *testing.T) {
	factory := NewFactory()
	factory.Register(Engine("stub"), func() Adapter { return &stubAdapter{} })

	if !factory.IsRegistered(Engine("stub")) {
		t.Error("Expected stub engine to be registered")
	}

	adapter, err := factory.Create(context.Background(), Config{Engine: Engine("stub")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !adapter.(*stubAdapter).connected {
		t.Error("Expected Create to connect the adapter")
	}
}

func TestFactoryCreateWithoutConnect(t *testing.T) {
	factory := NewFactory()
	factory.Register(Engine("stub"), func() Adapter { return &stubAdapter{} })

	adapter, err := factory.CreateWithoutConnect(Engine("stub"))
	if err != nil {
		t.Fatalf("CreateWithoutConnect failed: %v", err)
	}
	if adapter.(*stubAdapter).connected {
		t.Error("Expected adapter to stay disconnected")
	}
}

func TestFactoryUnknownEngine(t *testing.T) {
	factory := NewFactory()

	_, err := factory.Create(context.Background(), Config{Engine: Engine("oracle")})
	if err == nil {
		t.Fatal("Expected error for unknown engine")
	}
	if !strings.Contains(err.Error(), "unknown engine") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestFactoryEachCreateReturnsNewInstance(t *testing.T) {
	factory := NewFactory()
	factory.Register(Engine("stub"), func() Adapter { return &stubAdapter{} })

	a, _ := factory.CreateWithoutConnect(Engine("stub"))
	b, _ := factory.CreateWithoutConnect(Engine("stub"))
	if a == b {
		t.Error("Expected distinct adapter instances")
	}
}

func TestConfigFromConnection(t *testing.T) {
	conn := connections.Connection{
		Type:     "snowflake",
		DSN:      "user:pass@account/db",
		Schema:   "analytics",
		Database: "prod",
		Extra: map[string]string{
			"warehouse": "compute_wh",
			"role":      "loader",
			"custom":    "value",
		},
	}

	cfg := ConfigFromConnection("sf_main", conn)
	if cfg.Engine != EngineSnowflake {
		t.Errorf("Expected snowflake engine, got %v", cfg.Engine)
	}
	if cfg.ConnID != "sf_main" {
		t.Errorf("Expected conn id sf_main, got %q", cfg.ConnID)
	}
	if cfg.Warehouse != "compute_wh" || cfg.Role != "loader" {
		t.Errorf("Warehouse/role not propagated: %+v", cfg)
	}
	if cfg.Params["custom"] != "value" {
		t.Errorf("Extra params not propagated: %v", cfg.Params)
	}
}
