package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fastlay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("FTP_HOST", "ftp.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PresetsDir != "presets" || cfg.FTP.ManualDir != "/temp/nobg_images" || cfg.FTP.ProductsDir != "/products" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.BackoffInterval != 500*time.Millisecond {
		t.Fatalf("BackoffInterval = %v", cfg.BackoffInterval)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
presets_dir: /srv/presets
images:
  sources: [local, gcs]
  local_dir: /srv/images
gcs:
  image_bucket: product-images
ftp:
  timeout: 10s
server:
  grpc_port: 9000
`)
	t.Setenv("GRPC_PORT", "9100")
	t.Setenv("GCS_LAYOUT_BUCKET", "layouts")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PresetsDir != "/srv/presets" {
		t.Errorf("PresetsDir = %q", cfg.PresetsDir)
	}
	if !slices.Equal(cfg.Images.Sources, []string{"local", "gcs"}) {
		t.Errorf("Sources = %v", cfg.Images.Sources)
	}
	if cfg.FTP.Timeout != 10*time.Second {
		t.Errorf("FTP.Timeout = %v", cfg.FTP.Timeout)
	}
	if cfg.Server.GRPCPort != 9100 {
		t.Errorf("GRPCPort = %d, the environment must win", cfg.Server.GRPCPort)
	}
	if cfg.GCS.LayoutBucket != "layouts" {
		t.Errorf("LayoutBucket = %q", cfg.GCS.LayoutBucket)
	}
	if cfg.FontsDir != "fonts" {
		t.Errorf("FontsDir = %q, defaults must survive a partial file", cfg.FontsDir)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"ftp without host":   "images: {sources: [ftp]}",
		"unknown source":     "images: {sources: [s3]}",
		"unknown driver":     "images: {sources: []}\ndb: {driver: mysql}",
		"malformed document": "presets_dir: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("FTP_HOST", "")
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("Load() accepted an invalid config")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want ErrNotExist", err)
	}
}

func TestDSN(t *testing.T) {
	pg := DB{Driver: "postgres", Host: "db", Port: 5432, User: "user", Password: "p@ss", Name: "layouts", SSLMode: "disable"}
	if got, want := pg.DSN(), "postgres://user:p%40ss@db:5432/layouts?sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if pg.SQLDriver() != "pgx" {
		t.Errorf("SQLDriver() = %q", pg.SQLDriver())
	}

	pg.URL = "postgres://elsewhere/db"
	if got := pg.DSN(); got != pg.URL {
		t.Errorf("DSN() = %q, want the explicit url", got)
	}

	lite := DB{Driver: "sqlite", SQLitePath: "/tmp/x.sqlite"}
	if got := lite.DSN(); got != "file:/tmp/x.sqlite?_pragma=busy_timeout(5000)" {
		t.Errorf("DSN() = %q", got)
	}
}

type mapSecrets map[string]string

func (m mapSecrets) Secret(ctx context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.FTP.PasswordSecret = "ftp-pass"
	cfg.DB.Password = "explicit"
	cfg.DB.PasswordSecret = "db-pass"

	if !cfg.NeedsSecrets() {
		t.Fatal("NeedsSecrets() = false")
	}
	if err := cfg.ResolveSecrets(context.Background(), mapSecrets{"ftp-pass": "s3cret"}); err != nil {
		t.Fatalf("ResolveSecrets() error: %v", err)
	}
	if cfg.FTP.Password != "s3cret" || cfg.DB.Password != "explicit" {
		t.Fatalf("passwords = %q, %q", cfg.FTP.Password, cfg.DB.Password)
	}
	if cfg.NeedsSecrets() {
		t.Fatal("NeedsSecrets() = true after resolving")
	}

	cfg.FTP.Password = ""
	cfg.FTP.PasswordSecret = "missing"
	if err := cfg.ResolveSecrets(context.Background(), mapSecrets{}); err == nil {
		t.Fatal("ResolveSecrets() ignored a failing secret lookup")
	}
}
