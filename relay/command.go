package relay

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Commands understood by the relay.
const (
	CmdStart   = "/start"
	CmdBanlist = "/banlist"
	CmdUnban   = "/unban"
	CmdReply   = "/reply"
	CmdHistory = "/history"
	CmdCancel  = "/cancel"
)

var usages = map[string]string{
	CmdUnban:   "/unban <id|@username>",
	CmdReply:   "/reply <id> <text>",
	CmdHistory: "/history <id|@username>",
}

// Command is a parsed command line.
type Command struct {
	Name string
	// Target is the identifier argument of /unban and /history.
	Target string
	// SenderID and Text are the arguments of /reply.
	SenderID int64
	Text     string
	// Err is set when the arguments do not fit the command.
	Err error
}

// Privileged reports whether the command needs an administrator.
func (c Command) Privileged() bool {
	switch c.Name {
	case CmdBanlist, CmdUnban, CmdReply, CmdHistory, CmdCancel:
		return true
	}
	return false
}

// Usage returns the usage line of the command, or "".
func (c Command) Usage() string { return usages[c.Name] }

// ParseCommand parses a "/name[@bot] args" line. ok is false when text is not a
// command. "/reply_<id> <text>" is accepted as a form of /reply.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return Command{}, false
	}
	head, rest := cutSpace(text)
	if at := strings.IndexByte(head, '@'); at > 0 {
		head = head[:at]
	}
	cmd := Command{Name: strings.ToLower(head)}

	if id, ok := strings.CutPrefix(cmd.Name, CmdReply+"_"); ok {
		cmd.Name = CmdReply
		rest = id + " " + rest
	}

	switch cmd.Name {
	case CmdUnban, CmdHistory:
		cmd.Target, _ = cutSpace(rest)
		if cmd.Target == "" {
			cmd.Err = cmd.invalid("missing identifier")
		}
	case CmdReply:
		idText, body := cutSpace(rest)
		id, err := strconv.ParseInt(idText, 10, 64)
		switch {
		case err != nil || id <= 0:
			cmd.Err = cmd.invalid("bad sender id %q", idText)
		case body == "":
			cmd.SenderID = id
			cmd.Err = cmd.invalid("empty reply")
		default:
			cmd.SenderID, cmd.Text = id, body
		}
	}
	return cmd, true
}

func (c Command) invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", c.Name, ErrInvalidCommand, fmt.Sprintf(format, args...))
}

// cutSpace splits s at the first whitespace run. Line breaks in the remainder survive.
func cutSpace(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
