package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/m3rciful/relaybot/app"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "relaybot ") {
		t.Fatalf("version output = %q", out.String())
	}
}

func TestRunOptionsPreferFlag(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/env/config.yaml")
	if p, _ := runOptions("/flag.yaml").ResolveConfigPath(); p != "/flag.yaml" {
		t.Fatalf("flag path = %s", p)
	}
	if p, _ := runOptions("").ResolveConfigPath(); p != "/env/config.yaml" {
		t.Fatalf("env path = %s", p)
	}
}

func TestBootstrapRejectsNilConfig(t *testing.T) {
	opts := runOptions("")
	if _, err := opts.Bootstrap(context.Background(), (*app.Config)(nil)); err == nil {
		t.Fatal("nil config must fail")
	}
}
