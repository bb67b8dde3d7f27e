package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DATACHAT_DATA_DIR", "")
	t.Setenv("DATACHAT_STORE_DRIVER", "")
	t.Setenv("DATACHAT_STORE_DSN", "")
	t.Setenv("DATACHAT_SESSION_BACKEND", "")
	t.Setenv("DATACHAT_LLM_TIMEOUT", "")
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.StoreDriver)
	}
	if cfg.StoreDSN != filepath.Join("data", "corporate_data.db") {
		t.Fatalf("unexpected store dsn %q", cfg.StoreDSN)
	}
	if cfg.SessionsDir != filepath.Join("data", "sessions") {
		t.Fatalf("unexpected sessions dir %q", cfg.SessionsDir)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("unexpected llm timeout %s", cfg.LLMTimeout)
	}
}

func TestLoadYAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yamlBody := `
data_dir: /srv/datachat
store:
  driver: postgres
  dsn: postgres://localhost/corp
llm:
  model: openai/gpt-4o-mini
  timeout: 15s
`
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv(EnvConfigFile, path)
	t.Setenv("DATACHAT_DATA_DIR", "")
	t.Setenv("DATACHAT_STORE_DRIVER", "")
	t.Setenv("DATACHAT_STORE_DSN", "")
	t.Setenv("DATACHAT_LLM_TIMEOUT", "")
	t.Setenv("DATACHAT_LLM_MODEL", "override/model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != "postgres" || cfg.StoreDSN != "postgres://localhost/corp" {
		t.Fatalf("unexpected store config %+v", cfg)
	}
	if cfg.LLMModel != "override/model" {
		t.Fatalf("env should override file, got %q", cfg.LLMModel)
	}
	if cfg.LLMTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.LLMTimeout)
	}
	if cfg.StateDBPath != filepath.Join("/srv/datachat", "datachat.db") {
		t.Fatalf("unexpected state db %q", cfg.StateDBPath)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{StoreDriver: "mysql", SessionBackend: "file"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	cfg = Config{StoreDriver: "postgres", SessionBackend: "file"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for postgres without dsn")
	}
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
