// Package commands describes slash commands held by the registry.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is one slash command. AdminOnly and Hidden only shape the published
// menu: AdminOnly commands are listed for admin chat administrators and Hidden
// ones are never listed. Handlers enforce access themselves.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are extra names routed to Handler, with or without the leading slash.
	Aliases []string
}
