package model

import "time"

// IncomingMessage represents a message received from WhatsApp
type IncomingMessage struct {
	MessageID  string    `json:"message_id"`
	ChatID     string    `json:"chat_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// DeliveryMode selects how an outbound reply is rendered.
type DeliveryMode string

const (
	// DeliverText sends a plain text message (emoji allowed).
	DeliverText DeliveryMode = "TEXT"
	// DeliverVoice routes the reply text through speech synthesis and
	// sends the result as a voice note.
	DeliverVoice DeliveryMode = "VOICE"
)

// ReplyKind distinguishes capture-dialogue replies from small talk that a
// configured AI responder may take over.
type ReplyKind string

const (
	// KindCapture is a reply produced by the transaction capture dialogue.
	KindCapture ReplyKind = "capture"
	// KindChat marks a message with no transaction intent at all; the
	// transport adapter may hand it to a reply generator instead.
	KindChat ReplyKind = "chat"
)

// Reply is the outbound intent returned by the session engine. The engine
// never talks to the transport directly; the caller routes this, invoking
// speech synthesis when DeliverAs is DeliverVoice.
type Reply struct {
	ChatID    string       `json:"chat_id"`
	Text      string       `json:"text"`
	DeliverAs DeliveryMode `json:"deliver_as"`
	Kind      ReplyKind    `json:"kind"`
}
