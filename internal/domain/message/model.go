package message

import "time"

// DefaultMaxMessages applies when no global config record exists.
const DefaultMaxMessages = 10

// Message is an immutable note a user sends about an asset.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	AssetID   string    `json:"asset_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// GlobalConfig is the singleton quota configuration.
type GlobalConfig struct {
	MaxMessages int `json:"maxMessages"`
}

// SendResult is returned when a message is admitted.
type SendResult struct {
	Message      Message `json:"message"`
	MessagesSent int64   `json:"messages_sent"`
	MaxMessages  int     `json:"max_messages"`
}

// Usage summarises a user's quota consumption.
type Usage struct {
	UserID       string `json:"user_id"`
	MessagesSent int64  `json:"messages_sent"`
	MaxMessages  int    `json:"max_messages"`
	Remaining    int64  `json:"remaining"`
}
