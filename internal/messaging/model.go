package messaging

import "time"

// Direction distinguishes inbound patient messages from outbound replies.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Channel records which transport carried a message. Simulated traffic is
// kept apart from real SMS so the admin log stays honest about what was
// actually delivered.
type Channel string

const (
	ChannelLive     Channel = "live"
	ChannelMock     Channel = "mock"
	ChannelSimulate Channel = "simulate"
)

// Message is one entry in the append-only message log. Entries are immutable
// once written and ordered by timestamp; duplicates are never merged. The
// serialized field names match the legacy export consumers ("kind", "ts").
type Message struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"ts"`
	Direction         Direction `json:"direction"`
	Channel           Channel   `json:"kind"`
	Intent            string    `json:"intent,omitempty"`
	From              string    `json:"from,omitempty"`
	To                string    `json:"to,omitempty"`
	Body              string    `json:"body"`
	Note              string    `json:"note,omitempty"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
}
