package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	IncRelayAction("user_content", "ok")
	IncRelayAction("user_content", "ok")
	IncRelayAction("button", "denied")
	if got := testutil.ToFloat64(relayActions.WithLabelValues("user_content", "ok")); got != 2 {
		t.Fatalf("user_content/ok = %v", got)
	}
	if got := testutil.ToFloat64(relayActions.WithLabelValues("button", "denied")); got != 1 {
		t.Fatalf("button/denied = %v", got)
	}

	SetBanned(3)
	if got := testutil.ToFloat64(bannedSenders); got != 3 {
		t.Fatalf("banned = %v", got)
	}

	AddQueueDepth(2)
	AddQueueDepth(-1)
	if got := testutil.ToFloat64(queueDepth); got != 1 {
		t.Fatalf("queue depth = %v", got)
	}
}

func TestRegistryGathers(t *testing.T) {
	IncUpdate("message")
	ObserveHandler("relay", "ok", 20*time.Millisecond)
	mfs, err := Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"relaybot_updates_total", "relaybot_handler_duration_seconds"} {
		if !found[name] {
			t.Fatalf("metric %s not gathered", name)
		}
	}
}
