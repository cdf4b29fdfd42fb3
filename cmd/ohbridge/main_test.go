package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/ohbridge/internal/accessory"
	"github.com/nerrad567/ohbridge/internal/api"
	"github.com/nerrad567/ohbridge/internal/audit"
	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
	"github.com/nerrad567/ohbridge/internal/infrastructure/database"
	"github.com/nerrad567/ohbridge/internal/infrastructure/logging"
)

const testSecret = "test-secret-for-development-only-0123456789"

// writeConfig writes a minimal config with every network surface disabled.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
bridge:
  enabled: false
openhab:
  host: "127.0.0.1"
  port: 1
  timeout: 1
database:
  path: "` + filepath.Join(dir, "ohbridge.db") + `"
api:
  enabled: false
logging:
  level: error
  format: text
  output: stdout
security:
  jwt:
    secret: "` + testSecret + `"
` + extra
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("OHBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Setenv("OHBRIDGE_CONFIG", writeConfig(t, `
accessories:
  - kind: light
    name: Desk
    item: Desk_Light
`))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}

func TestIssueToken(t *testing.T) {
	path := writeConfig(t, "")

	var out bytes.Buffer
	if err := issueToken(&out, path, "admin", time.Hour); err != nil {
		t.Fatalf("issueToken() error = %v", err)
	}

	sub, err := api.ValidateToken(testSecret, strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if sub != "admin" {
		t.Errorf("subject = %q, want admin", sub)
	}
}

func TestIssueToken_BadConfig(t *testing.T) {
	var out bytes.Buffer
	if err := issueToken(&out, "/nonexistent/config.yaml", "admin", time.Hour); err == nil {
		t.Fatal("issueToken() should fail without a config file")
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}

func TestAccessoryConfigs(t *testing.T) {
	got := accessoryConfigs([]config.AccessoryConfig{
		{Kind: "windowcovering", Name: "Blind", Item: "Blind_Pos", Inverted: "true"},
		{Kind: "thermostat", Name: "Hall", Items: map[string]string{"currentTemperature": "Hall_Temp"}},
	})
	want := []accessory.Config{
		{Kind: accessory.KindWindowCovering, Name: "Blind", Item: "Blind_Pos", Inverted: "true"},
		{Kind: accessory.KindThermostat, Name: "Hall", Items: map[string]string{"currentTemperature": "Hall_Temp"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("accessoryConfigs() mismatch (-want +got):\n%s", diff)
	}
}

type stubRegistry struct{}

func (stubRegistry) GetState(context.Context, string) (string, error) { return "ON", nil }
func (stubRegistry) SetState(context.Context, string, string) error   { return nil }
func (stubRegistry) GetItemType(context.Context, string) (string, error) {
	return "Switch", nil
}

func TestRecordConstruction(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	repo := audit.NewSQLiteRepository(db.DB)

	accs, errs := accessory.CreateAll(ctx, accessory.Deps{Registry: stubRegistry{}}, []accessory.Config{
		{Kind: accessory.KindSwitch, Name: "Lamp", Item: "Lamp"},
		{Kind: "toaster", Name: "Toaster", Item: "Toaster"},
	})
	if len(accs) != 1 || len(errs) != 1 {
		t.Fatalf("CreateAll() = %d accessories, %d errors", len(accs), len(errs))
	}

	log := logging.Default()
	recordConstruction(ctx, repo, accs, errs, log)

	created, err := repo.List(ctx, audit.Filter{Action: audit.ActionAccessoryCreated})
	if err != nil {
		t.Fatal(err)
	}
	if created.Total != 1 || created.Logs[0].Accessory != "Lamp" {
		t.Errorf("created = %+v", created)
	}

	failed, err := repo.List(ctx, audit.Filter{Action: audit.ActionAccessoryFailed})
	if err != nil {
		t.Fatal(err)
	}
	if failed.Total != 1 {
		t.Fatalf("failed total = %d, want 1", failed.Total)
	}
	entry := failed.Logs[0]
	if entry.Accessory != "Toaster" || entry.Serial != accessory.SerialNumber("Toaster") || entry.Details["kind"] != "toaster" {
		t.Errorf("failed entry = %+v", entry)
	}
}
