package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadConfigMergesEnvOverBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "8083"
database:
  host: localhost
  dbname: timeline
`)
	writeFile(t, dir, "local.yaml", `
database:
  host: db.local
`)

	cfg, err := LoadConfig("local", dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	db, ok := cfg["database"].(map[string]interface{})
	if !ok {
		t.Fatalf("database section missing: %+v", cfg)
	}
	if db["host"] != "db.local" {
		t.Errorf("host = %v, want env override db.local", db["host"])
	}
	if db["dbname"] != "timeline" {
		t.Errorf("dbname = %v, base value must survive the merge", db["dbname"])
	}

	server, _ := cfg["server"].(map[string]interface{})
	if server["port"] != "8083" {
		t.Errorf("port = %v, want 8083", server["port"])
	}
}

func TestLoadConfigMissingEnvFileIsFine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \"8083\"\n")

	cfg, err := LoadConfig("production", dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if _, ok := cfg["server"]; !ok {
		t.Fatal("base config should load without an env file")
	}
}

func TestLoadConfigMissingBaseFails(t *testing.T) {
	if _, err := LoadConfig("local", t.TempDir()); err == nil {
		t.Fatal("expected error when base.yaml is missing")
	}
}

func TestLoadConfigSubstitutesSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
database:
  password: ${DB_PASSWORD}
  host: localhost
`)
	writeFile(t, dir, "secrets.env", `
# local secrets
DB_PASSWORD="s3cret"
`)

	cfg, err := LoadConfig("base", dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	db, _ := cfg["database"].(map[string]interface{})
	if db["password"] != "s3cret" {
		t.Errorf("password = %v, want substituted secret", db["password"])
	}
	if db["host"] != "localhost" {
		t.Errorf("host = %v, plain values must pass through", db["host"])
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("LOADER_TEST_KEY", "set")
	if got := GetEnv("LOADER_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("GetEnv = %q, want set", got)
	}
	if got := GetEnv("LOADER_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnv = %q, want fallback", got)
	}
}
