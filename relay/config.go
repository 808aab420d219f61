package relay

import (
	"fmt"
	"strconv"
	"strings"
)

// Config holds the relay settings.
type Config struct {
	// AdminGroupID is the group (negative id) that receives notifications.
	AdminGroupID int64 `yaml:"admin_group_id" envconfig:"ADMIN_GROUP_ID"`
	// Channel is the public channel, as @username or numeric id.
	Channel string `yaml:"channel" envconfig:"CHANNEL"`
	// RestrictBannedMembers revokes admin-group permissions of banned senders who
	// are members of the group.
	RestrictBannedMembers bool `yaml:"restrict_banned_members" envconfig:"RESTRICT_BANNED_MEMBERS"`
	// HistoryLimit caps /history output.
	HistoryLimit int   `yaml:"history_limit" envconfig:"HISTORY_LIMIT"`
	Texts        Texts `yaml:"texts" ignored:"true"`
}

// Normalize validates the config and fills defaults.
func (c *Config) Normalize() error {
	if c.AdminGroupID >= 0 {
		return fmt.Errorf("relay.admin_group_id must be a negative group id, got %d", c.AdminGroupID)
	}
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Channel == "" {
		return fmt.Errorf("relay.channel is required")
	}
	if _, err := strconv.ParseInt(c.Channel, 10, 64); err != nil && !strings.HasPrefix(c.Channel, "@") {
		c.Channel = "@" + c.Channel
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("relay.history_limit must be >= 0")
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 10
	}
	c.Texts = c.Texts.withDefaults()
	return nil
}
