package models

type MessageType int

const (
	User MessageType = iota
	Assistant
)

// Message is one entry of the chat thread.
type Message struct {
	Content string
	Type    MessageType
}

// SentByUser reports whether the entry was typed by the user.
func (m Message) SentByUser() bool {
	return m.Type == User
}
