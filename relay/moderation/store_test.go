package moderation

import (
	"sync"
	"testing"
	"time"
)

func TestBanLifecycle(t *testing.T) {
	s := New()
	if s.IsBanned(555) {
		t.Fatal("fresh store must not ban anyone")
	}
	if !s.Ban(555, 1) {
		t.Fatal("first ban must insert")
	}
	if s.Ban(555, 2) {
		t.Fatal("second ban must be a no-op")
	}
	if !s.IsBanned(555) {
		t.Fatal("sender must be banned")
	}
	if rec, _ := s.Lookup(555); rec.BannedBy != 1 {
		t.Fatalf("ban record overwritten: %+v", rec)
	}

	s.MarkRestricted(555)
	s.MarkRestricted(777)
	rec, ok := s.Unban(555)
	if !ok || !rec.Restricted {
		t.Fatalf("unban = %+v,%v", rec, ok)
	}
	if s.IsBanned(555) {
		t.Fatal("sender must be unbanned")
	}
	if _, ok := s.Unban(555); ok {
		t.Fatal("second unban must report not found")
	}
	if _, ok := s.Lookup(777); ok {
		t.Fatal("MarkRestricted must not create records")
	}
}

func TestBannedIsSorted(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	s.Ban(30, 1)
	s.Ban(10, 1)
	s.Ban(20, 1)
	got := s.Banned()
	if len(got) != 3 || got[0].SenderID != 30 || got[1].SenderID != 10 || got[2].SenderID != 20 {
		t.Fatalf("Banned() = %+v", got)
	}
	if s.BannedCount() != 3 {
		t.Fatalf("BannedCount = %d", s.BannedCount())
	}
}

func TestPendingReply(t *testing.T) {
	s := New()
	s.SetPendingReply(1, ReplyTarget{SenderID: 10, MessageID: 100})
	s.SetPendingReply(1, ReplyTarget{SenderID: 20, MessageID: 200})
	if !s.HasPendingReply(1) || s.HasPendingReply(2) {
		t.Fatal("unexpected pending state")
	}
	got, ok := s.TakePendingReply(1)
	if !ok || got.SenderID != 20 || got.MessageID != 200 {
		t.Fatalf("TakePendingReply = %+v,%v", got, ok)
	}
	if _, ok := s.TakePendingReply(1); ok {
		t.Fatal("pending reply must be cleared on read")
	}

	s.SetPendingReply(3, ReplyTarget{SenderID: 30})
	if !s.CancelPendingReply(3) || s.CancelPendingReply(3) {
		t.Fatal("cancel must report presence exactly once")
	}
}

func TestDirectory(t *testing.T) {
	s := New()
	s.Remember(SenderProfile{ID: 1001, Username: "Alice", DisplayName: "Alice A", LastMessageID: 5})
	s.Remember(SenderProfile{ID: 1001, LastMessageID: 6})

	p := s.Profile(1001)
	if p.Username != "Alice" || p.DisplayName != "Alice A" || p.LastMessageID != 6 {
		t.Fatalf("profile = %+v", p)
	}
	if p.Label() != "Alice A @Alice (1001)" {
		t.Fatalf("label = %q", p.Label())
	}
	if got := s.Profile(42); got.ID != 42 || got.Label() != "42" {
		t.Fatalf("unknown profile = %+v", got)
	}

	for in, want := range map[string]int64{"1001": 1001, "@alice": 1001, "ALICE": 1001} {
		if id, ok := s.Resolve(in); !ok || id != want {
			t.Fatalf("Resolve(%q) = %d,%v", in, id, ok)
		}
	}
	for _, in := range []string{"", "@bob", "-5", "0"} {
		if _, ok := s.Resolve(in); ok {
			t.Fatalf("Resolve(%q) must fail", in)
		}
	}

	s.Remember(SenderProfile{ID: 1001, Username: "alice_new"})
	if _, ok := s.Resolve("@alice"); ok {
		t.Fatal("old username must be forgotten after a rename")
	}
	if id, ok := s.Resolve("alice_new"); !ok || id != 1001 {
		t.Fatalf("Resolve(new) = %d,%v", id, ok)
	}
}

func TestRenameKeepsUsernameTakenByAnotherSender(t *testing.T) {
	s := New()
	s.Remember(SenderProfile{ID: 1, Username: "old"})
	s.Remember(SenderProfile{ID: 2, Username: "Old"})
	s.Remember(SenderProfile{ID: 1, Username: "new"})

	if id, ok := s.Resolve("@old"); !ok || id != 2 {
		t.Fatalf("Resolve(@old) = %d,%v", id, ok)
	}
	if id, ok := s.Resolve("@new"); !ok || id != 1 {
		t.Fatalf("Resolve(@new) = %d,%v", id, ok)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Ban(id, 1)
			s.SetPendingReply(id, ReplyTarget{SenderID: id})
			s.Remember(SenderProfile{ID: id})
			_ = s.IsBanned(id)
			_, _ = s.TakePendingReply(id)
		}(i)
	}
	wg.Wait()
	if s.BannedCount() != 50 {
		t.Fatalf("BannedCount = %d", s.BannedCount())
	}
}
