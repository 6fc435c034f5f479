package models

type HangoutState string

const (
	HangoutStateInvite   HangoutState = "INVITE"
	HangoutStateInviter  HangoutState = "INVITER"
	HangoutStateAccepted HangoutState = "ACCEPTED"
	HangoutStateDeclined HangoutState = "DECLINED"
	HangoutStateBlocked  HangoutState = "BLOCKED"
)

// User represents a user returned by the server search endpoint.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Hangout is one conversation partner in the current user's contact list.
// Uniquely identified by Username within one user's list.
type Hangout struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	State    HangoutState `json:"state"`
	Message  string       `json:"message,omitempty"`
}

// Message is one entry in a per-partner conversation sequence.
type Message struct {
	ID          string       `json:"id"`
	Target      string       `json:"target"`
	Username    string       `json:"username"`
	Text        string       `json:"text"`
	Timestamp   int64        `json:"timestamp"` // Unix timestamp (seconds)
	Attachments []Attachment `json:"attachments,omitempty"`
}

type AttachmentType string

const (
	AttachmentTypeImage AttachmentType = "image"
	AttachmentTypeFile  AttachmentType = "file"
)

type Attachment struct {
	Type     AttachmentType `json:"type"`
	Name     string         `json:"name"`
	MimeType string         `json:"mimeType"`
	Data     []byte         `json:"data,omitempty"`
}

// ChannelEvent is the JSON payload delivered over the real-time channel.
type ChannelEvent struct {
	Type    ChannelEventType `json:"type"`
	Hangout *Hangout         `json:"hangout,omitempty"`
	Message *Message         `json:"message,omitempty"`
}

type ChannelEventType string

const (
	ChannelEventTypeHangout ChannelEventType = "hangout"
	ChannelEventTypeMessage ChannelEventType = "message"
)
