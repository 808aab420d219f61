package relay

import (
	"context"
	"sync"

	"github.com/m3rciful/relaybot/relay/journal"
)

type sentMessage struct {
	chatID int64
	text   string
	media  *Media
	opts   SendOptions
	ref    MessageRef
}

type copyCall struct {
	to   string
	from MessageRef
}

type answerCall struct {
	id   string
	text string
}

// fakeTransport records every call and fails on demand.
type fakeTransport struct {
	mu     sync.Mutex
	nextID int

	sent     []sentMessage
	copies   []copyCall
	cleared  []MessageRef
	replaced map[MessageRef]Keyboard
	answers  []answerCall

	admins       []Member
	adminsErr    error
	rosterCalls  int
	members      map[int64]Member
	restricted   []int64
	unrestricted []int64

	sendErr map[int64]error
	copyErr error
}

func newFakeTransport(admins ...int64) *fakeTransport {
	f := &fakeTransport{
		nextID:   1000,
		replaced: make(map[MessageRef]Keyboard),
		members:  make(map[int64]Member),
		sendErr:  make(map[int64]error),
	}
	for _, id := range admins {
		f.admins = append(f.admins, Member{UserID: id, Status: StatusAdministrator})
	}
	return f
}

func (f *fakeTransport) record(chatID int64, text string, media *Media, opts SendOptions) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sendErr[chatID]; err != nil {
		return MessageRef{}, err
	}
	f.nextID++
	ref := MessageRef{ChatID: chatID, MessageID: f.nextID}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, media: media, opts: opts, ref: ref})
	return ref, nil
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, opts SendOptions) (MessageRef, error) {
	return f.record(chatID, text, nil, opts)
}

func (f *fakeTransport) SendMedia(_ context.Context, chatID int64, media Media, opts SendOptions) (MessageRef, error) {
	return f.record(chatID, media.Caption, &media, opts)
}

func (f *fakeTransport) CopyMessage(_ context.Context, to string, from MessageRef) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return MessageRef{}, f.copyErr
	}
	f.copies = append(f.copies, copyCall{to: to, from: from})
	f.nextID++
	return MessageRef{MessageID: f.nextID}, nil
}

func (f *fakeTransport) ClearButtons(_ context.Context, msg MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, msg)
	return nil
}

func (f *fakeTransport) ReplaceButtons(_ context.Context, msg MessageRef, kb Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced[msg] = kb
	return nil
}

func (f *fakeTransport) AnswerButton(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answerCall{id: id, text: text})
	return nil
}

func (f *fakeTransport) Administrators(context.Context, int64) ([]Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rosterCalls++
	if f.adminsErr != nil {
		return nil, f.adminsErr
	}
	return append([]Member(nil), f.admins...), nil
}

func (f *fakeTransport) MemberOf(_ context.Context, _ int64, userID int64) (Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[userID]; ok {
		return m, nil
	}
	return Member{UserID: userID, Status: StatusLeft}, nil
}

func (f *fakeTransport) Restrict(_ context.Context, _ int64, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restricted = append(f.restricted, userID)
	return nil
}

func (f *fakeTransport) Unrestrict(_ context.Context, _ int64, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unrestricted = append(f.unrestricted, userID)
	return nil
}

// sentTo returns the messages delivered to chatID.
func (f *fakeTransport) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.chatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) lastTo(chatID int64) (sentMessage, bool) {
	msgs := f.sentTo(chatID)
	if len(msgs) == 0 {
		return sentMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

func (f *fakeTransport) lastAnswer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.answers) == 0 {
		return ""
	}
	return f.answers[len(f.answers)-1].text
}

// memJournal keeps entries in memory, newest last.
type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(_ context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e.ID = int64(len(j.entries) + 1)
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) Recent(_ context.Context, senderID int64, limit int) ([]journal.Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []journal.Entry
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if j.entries[i].SenderID == senderID {
			out = append(out, j.entries[i])
		}
	}
	return out, nil
}

func (j *memJournal) kinds() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e.Kind)
	}
	return out
}
