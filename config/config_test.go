package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"edu2job/profile"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.TopK != 3 {
		t.Fatalf("expected top_k 3, got %d", cfg.TopK)
	}
	if !reflect.DeepEqual(cfg.DefaultRecord, profile.DefaultFields()) {
		t.Fatalf("unexpected default record %v", cfg.DefaultRecord)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
artifacts_dir: s3://models/edu2job
artifacts:
  model: forest.json
top_k: 5
default_record:
  CGPA: 7.2
  Degree: MBA
  Major: Finance
  Skills: none
  Certifications: CFA
  Experience: 4
log:
  level: debug
history:
  driver: sqlite3
  dsn: history.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ArtifactsDir != "s3://models/edu2job" {
		t.Fatalf("unexpected artifacts dir %q", cfg.ArtifactsDir)
	}
	if cfg.Artifacts.Model != "forest.json" || cfg.Artifacts.Vectorizer != "vectorizer.json" {
		t.Fatalf("expected file override to merge with defaults: %+v", cfg.Artifacts)
	}
	if cfg.TopK != 5 || cfg.Log.Level != "debug" || cfg.History.DSN != "history.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.DefaultRecord["Degree"] != "MBA" || cfg.DefaultRecord["Experience"] != 4 {
		t.Fatalf("unexpected default record %v", cfg.DefaultRecord)
	}
	if len(cfg.DefaultRecord) != 6 {
		t.Fatalf("expected configured record to replace the default, got %v", cfg.DefaultRecord)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
artifacts_dir = "/srv/artifacts"
top_k = 2

[s3]
region = "eu-west-1"

[log]
level = "info"
file = "/var/log/edu2job.log"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ArtifactsDir != "/srv/artifacts" || cfg.TopK != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.S3.Region != "eu-west-1" || cfg.Log.File != "/var/log/edu2job.log" {
		t.Fatalf("unexpected nested config %+v", cfg)
	}
	if cfg.DefaultRecord["CGPA"] != 8.5 {
		t.Fatalf("expected default record to survive, got %v", cfg.DefaultRecord)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvArtifactsDir, "/opt/models")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvHistoryDSN, "postgres://localhost/edu2job")
	t.Setenv(EnvHistoryDriver, "postgres")

	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "artifacts_dir: ./artifacts\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ArtifactsDir != "/opt/models" || cfg.Log.Level != "error" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if cfg.History.Driver != "postgres" || cfg.History.DSN != "postgres://localhost/edu2job" {
		t.Fatalf("unexpected history config %+v", cfg.History)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"zero.yaml":   "top_k: 0\n",
		"driver.yaml": "history:\n  driver: oracle\n  dsn: x\n",
		"broken.yaml": "artifacts_dir: [\n",
		"format.json": "{}",
		"names.yaml":  "artifacts:\n  scaler: \"\"\n",
	}
	for name, content := range cases {
		path := writeFile(t, dir, name, content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
