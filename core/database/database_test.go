package database

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestConfigNormalize(t *testing.T) {
	var off Config
	if off.Enabled() {
		t.Fatal("empty config must be disabled")
	}
	if err := off.Normalize(); err != nil {
		t.Fatalf("disabled config should normalize: %v", err)
	}

	cfg := Config{Host: "db", User: "relay", Password: "p@ss", Name: "relay"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Port != "5432" || cfg.SSLMode != "disable" || cfg.MaxConnections != 4 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if got := cfg.URL(); got != "postgres://relay:p%40ss@db:5432/relay?sslmode=disable" {
		t.Fatalf("URL = %s", got)
	}
	if !strings.Contains(cfg.DSN(), "dbname=relay") {
		t.Fatalf("DSN = %s", cfg.DSN())
	}

	missing := Config{Host: "db"}
	if err := missing.Normalize(); err == nil {
		t.Fatal("expected error without database name")
	}
}

func TestMigrationFileSelection(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.up.sql":   {Data: []byte("select 1;")},
		"m/0001_a.up.sql":   {Data: []byte("select 1;")},
		"m/0001_a.down.sql": {Data: []byte("select 1;")},
		"m/0003_c.up.sql":   {Data: []byte("select 1;")},
	}
	files := listMigrationFiles(fsys, "m")
	if strings.Join(files, ",") != "0001_a.up.sql,0002_b.up.sql,0003_c.up.sql" {
		t.Fatalf("files = %v", files)
	}
	applied := selectApplied(files, 1, 3)
	if len(applied) != 2 || applied[0] != "0002_b.up.sql" {
		t.Fatalf("applied = %v", applied)
	}
	if got := selectApplied(files, 3, 3); len(got) != 0 {
		t.Fatalf("nothing should be applied, got %v", got)
	}
}
