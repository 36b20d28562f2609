package monitor

import "time"

type Status struct {
	Components map[string]bool `json:"components"`
	Outbox     bool            `json:"outbox"`
	OutboxSize int             `json:"outbox_size"`
	LastCheck  time.Time       `json:"last_check"`
}
