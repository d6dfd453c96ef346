package messagedb

import (
	"time"

	"github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/google/uuid"
)

// message mirrors the admin_messages table. Sender and recipient names are
// stored denormalized, captured at send time.
type message struct {
	ID           uuid.UUID  `db:"id"`
	FromUserID   uuid.UUID  `db:"from_user_id"`
	FromUserName string     `db:"from_user_name"`
	ToUserID     uuid.UUID  `db:"to_user_id"`
	ToUserName   string     `db:"to_user_name"`
	Subject      string     `db:"subject"`
	Body         string     `db:"body"`
	MessageType  string     `db:"message_type"`
	IsRead       bool       `db:"is_read"`
	ReadAt       *time.Time `db:"read_at"`
	CreatedAt    time.Time  `db:"created_at"`
}

func fromBusMessage(msg bus.Message) message {
	return message{
		ID:           msg.ID,
		FromUserID:   msg.FromUserID,
		FromUserName: msg.FromUserName,
		ToUserID:     msg.ToUserID,
		ToUserName:   msg.ToUserName,
		Subject:      msg.Subject,
		Body:         msg.Body,
		MessageType:  msg.Type.String(),
		IsRead:       msg.Read,
		ReadAt:       msg.ReadAt,
		CreatedAt:    msg.CreatedAt,
	}
}

func toBusMessage(msg message) (bus.Message, error) {
	mt, err := bus.ParseMessageType(msg.MessageType)
	if err != nil {
		return bus.Message{}, err
	}

	return bus.Message{
		ID:           msg.ID,
		FromUserID:   msg.FromUserID,
		FromUserName: msg.FromUserName,
		ToUserID:     msg.ToUserID,
		ToUserName:   msg.ToUserName,
		Subject:      msg.Subject,
		Body:         msg.Body,
		Type:         mt,
		Read:         msg.IsRead,
		ReadAt:       msg.ReadAt,
		CreatedAt:    msg.CreatedAt,
	}, nil
}
