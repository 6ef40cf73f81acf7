package models

// ContentKind is the payload type of a greeting.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindGIF   ContentKind = "gif"
	KindVoice ContentKind = "voice"
)

// Valid reports whether k is one of text, gif or voice.
func (k ContentKind) Valid() bool {
	switch k {
	case KindText, KindGIF, KindVoice:
		return true
	}
	return false
}

type Content struct {
	Kind    ContentKind `json:"kind"`
	Payload string      `json:"payload"`
}

// GreetingEvent is immutable once recorded. Timestamp is in microseconds.
// An empty Recipient means the greeting had none.
type GreetingEvent struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Content   Content `json:"content"`
}

func (e GreetingEvent) HasRecipient() bool {
	return e.Recipient != ""
}

// LoggedEvent is one entry of the append-only event log.
type LoggedEvent struct {
	Seq     uint64        `json:"seq"`
	Chain   string        `json:"chain"`
	Event   GreetingEvent `json:"event"`
	Inviter string        `json:"inviter,omitempty"`
}

// ViewEntry is one row of a sent or received view. Peer is the recipient
// in a sent view and the sender in a received view; it is empty for sent
// greetings without a recipient.
type ViewEntry struct {
	Peer      string  `json:"peer,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Content   Content `json:"content"`
}
