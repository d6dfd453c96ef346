package bus

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a directed admin-to-user communication. Names are captured at
// send time so history keeps reading the way it was written.
type Message struct {
	ID           uuid.UUID
	FromUserID   uuid.UUID
	FromUserName string
	ToUserID     uuid.UUID
	ToUserName   string
	Subject      string
	Body         string
	Type         MessageType
	Read         bool
	ReadAt       *time.Time
	CreatedAt    time.Time
}

// NewMessage holds the fields required to send a message.
type NewMessage struct {
	ToUserID uuid.UUID
	Subject  string
	Body     string
	Type     MessageType
}

// Totals aggregates the message population for system statistics.
type Totals struct {
	TotalMessages  int
	UnreadMessages int
}

//==============================================================================

var (
	MessageTypeGeneral      = newMessageType("General")
	MessageTypeTask         = newMessageType("Task")
	MessageTypeAlert        = newMessageType("Alert")
	MessageTypeAnnouncement = newMessageType("Announcement")
)

// MessageType classifies a message. A custom type so parsing is the only
// way to construct one.
type MessageType struct {
	value string
}

var validMessageTypes = make(map[string]MessageType)

func newMessageType(val string) MessageType {
	mt := MessageType{value: val}
	validMessageTypes[val] = mt
	return mt
}

func (mt MessageType) String() string {
	return mt.value
}

func (mt MessageType) MarshalText() ([]byte, error) {
	return []byte(mt.value), nil
}

// ParseMessageType validates val against the known types.
func ParseMessageType(val string) (MessageType, error) {
	mt, ok := validMessageTypes[val]
	if !ok {
		return MessageType{}, fmt.Errorf("invalid message type: %s", val)
	}
	return mt, nil
}
