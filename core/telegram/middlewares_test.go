package telegram

import (
	"testing"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	tgsender "github.com/m3rciful/relaybot/core/telegram/sender"
)

func names(mws []Middleware) []string {
	out := make([]string, len(mws))
	for i, m := range mws {
		out[i] = m.Name
	}
	return out
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500, Burst: 2}}
	d := tgsender.NewDispatcher(tgsender.Options{Workers: 1})
	defer d.Close()

	got := names(DefaultMiddlewares(cfg, d, nil))
	want := []string{"recover", "rate_limit", "logger", "metrics", "sequence"}
	if len(got) != len(want) {
		t.Fatalf("middlewares = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("middlewares = %v, want %v", got, want)
		}
	}

	got = names(DefaultMiddlewares(&coreconfig.Config{}, nil, nil))
	if len(got) != 3 || got[1] != "logger" {
		t.Fatalf("without rate limit and dispatcher: %v", got)
	}
}
