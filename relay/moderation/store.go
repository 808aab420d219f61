// Package moderation holds the in-memory moderation state of the relay: the banned
// set, pending replies per admin and a directory of known senders. Everything
// lives for the lifetime of the process.
package moderation

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ReplyTarget is the end user (and, when known, their message) an admin answers.
type ReplyTarget struct {
	SenderID  int64
	MessageID int
}

// BanRecord describes one banned sender.
type BanRecord struct {
	SenderID int64
	BannedBy int64
	BannedAt time.Time
	// Restricted is set when the sender's admin-group permissions were revoked
	// and must be restored on unban.
	Restricted bool
}

// SenderProfile is the last seen identity of a sender.
type SenderProfile struct {
	ID            int64
	Username      string
	DisplayName   string
	LastMessageID int
}

// Label renders the profile for admins: display name, @username and id.
func (p SenderProfile) Label() string {
	parts := make([]string, 0, 3)
	if p.DisplayName != "" {
		parts = append(parts, p.DisplayName)
	}
	if p.Username != "" {
		parts = append(parts, "@"+p.Username)
	}
	if len(parts) == 0 {
		return strconv.FormatInt(p.ID, 10)
	}
	return strings.Join(parts, " ") + " (" + strconv.FormatInt(p.ID, 10) + ")"
}

// Store is safe for concurrent use. One mutex guards all tables.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	banned    map[int64]BanRecord
	pending   map[int64]ReplyTarget
	profiles  map[int64]SenderProfile
	usernames map[string]int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:       time.Now,
		banned:    make(map[int64]BanRecord),
		pending:   make(map[int64]ReplyTarget),
		profiles:  make(map[int64]SenderProfile),
		usernames: make(map[string]int64),
	}
}

// IsBanned reports whether sender is in the banned set.
func (s *Store) IsBanned(sender int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.banned[sender]
	return ok
}

// Ban inserts sender into the banned set. Banning twice keeps the first record;
// the result reports whether the sender was newly added.
func (s *Store) Ban(sender, by int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.banned[sender]; ok {
		return false
	}
	s.banned[sender] = BanRecord{SenderID: sender, BannedBy: by, BannedAt: s.now()}
	return true
}

// Unban removes sender and returns the removed record; ok is false when the sender
// was not banned.
func (s *Store) Unban(sender int64) (BanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.banned[sender]
	if ok {
		delete(s.banned, sender)
	}
	return rec, ok
}

// MarkRestricted records that the sender's group permissions were revoked.
// It is a no-op for senders that are not banned.
func (s *Store) MarkRestricted(sender int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.banned[sender]; ok {
		rec.Restricted = true
		s.banned[sender] = rec
	}
}

// Lookup returns the ban record of sender.
func (s *Store) Lookup(sender int64) (BanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.banned[sender]
	return rec, ok
}

// Banned returns every ban record, oldest first.
func (s *Store) Banned() []BanRecord {
	s.mu.Lock()
	out := make([]BanRecord, 0, len(s.banned))
	for _, rec := range s.banned {
		out = append(out, rec)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].BannedAt.Equal(out[j].BannedAt) {
			return out[i].BannedAt.Before(out[j].BannedAt)
		}
		return out[i].SenderID < out[j].SenderID
	})
	return out
}

// BannedCount returns the size of the banned set.
func (s *Store) BannedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.banned)
}

// SetPendingReply records that admin's next message answers target, replacing
// any earlier pending reply.
func (s *Store) SetPendingReply(admin int64, target ReplyTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[admin] = target
}

// HasPendingReply reports whether admin has a pending reply armed.
func (s *Store) HasPendingReply(admin int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[admin]
	return ok
}

// TakePendingReply returns and clears admin's pending reply.
func (s *Store) TakePendingReply(admin int64) (ReplyTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[admin]
	if ok {
		delete(s.pending, admin)
	}
	return t, ok
}

// CancelPendingReply clears admin's pending reply and reports whether one existed.
func (s *Store) CancelPendingReply(admin int64) bool {
	_, ok := s.TakePendingReply(admin)
	return ok
}

// Remember stores the latest profile of a sender. Empty fields do not erase
// known values.
func (s *Store) Remember(p SenderProfile) {
	if p.ID == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.profiles[p.ID]
	if prev.Username != "" && !strings.EqualFold(prev.Username, p.Username) && p.Username != "" {
		if old := strings.ToLower(prev.Username); s.usernames[old] == p.ID {
			delete(s.usernames, old)
		}
	}
	if p.Username == "" {
		p.Username = prev.Username
	}
	if p.DisplayName == "" {
		p.DisplayName = prev.DisplayName
	}
	if p.LastMessageID == 0 {
		p.LastMessageID = prev.LastMessageID
	}
	s.profiles[p.ID] = p
	if p.Username != "" {
		s.usernames[strings.ToLower(p.Username)] = p.ID
	}
}

// Profile returns what is known about sender; ID is always set.
func (s *Store) Profile(sender int64) SenderProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[sender]
	if !ok {
		p.ID = sender
	}
	return p
}

// Resolve maps a numeric id or a known @username to a sender id.
func (s *Store) Resolve(identifier string) (int64, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return id, id > 0
	}
	name := strings.ToLower(strings.TrimPrefix(identifier, "@"))
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usernames[name]
	return id, ok
}
