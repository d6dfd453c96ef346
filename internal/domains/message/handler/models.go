package handler

import (
	"fmt"
	"time"

	"github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/google/uuid"
)

type message struct {
	ID           string  `json:"id"`
	FromUserID   string  `json:"fromUserId"`
	FromUserName string  `json:"fromUserName"`
	ToUserID     string  `json:"toUserId"`
	ToUserName   string  `json:"toUserName"`
	Subject      string  `json:"subject"`
	Body         string  `json:"body"`
	MessageType  string  `json:"messageType"`
	IsRead       bool    `json:"isRead"`
	ReadAt       *string `json:"readAt"`
	CreatedAt    string  `json:"createdAt"`
}

func toAppMessage(msg bus.Message) message {
	var readAt *string
	if msg.ReadAt != nil {
		s := msg.ReadAt.Format(time.RFC3339)
		readAt = &s
	}

	return message{
		ID:           msg.ID.String(),
		FromUserID:   msg.FromUserID.String(),
		FromUserName: msg.FromUserName,
		ToUserID:     msg.ToUserID.String(),
		ToUserName:   msg.ToUserName,
		Subject:      msg.Subject,
		Body:         msg.Body,
		MessageType:  msg.Type.String(),
		IsRead:       msg.Read,
		ReadAt:       readAt,
		CreatedAt:    msg.CreatedAt.Format(time.RFC3339),
	}
}

func toAppMessages(msgs []bus.Message) []message {
	app := make([]message, len(msgs))
	for i, msg := range msgs {
		app[i] = toAppMessage(msg)
	}
	return app
}

// ==============================================================================

type QueryResult struct {
	Messages    []message `json:"messages"`
	Total       int       `json:"total"`
	Page        int       `json:"page"`
	RowsPerPage int       `json:"rowsPerPage"`
}

// ==============================================================================

type newMessage struct {
	ToUserID    string `json:"toUserId" binding:"required,uuid"`
	Subject     string `json:"subject" binding:"required,max=200"`
	Body        string `json:"body" binding:"required,max=2000"`
	MessageType string `json:"messageType" binding:"required,oneof=General Task Alert Announcement"`
}

func toBusNewMessage(nm newMessage) (bus.NewMessage, error) {
	toUserID, err := uuid.Parse(nm.ToUserID)
	if err != nil {
		return bus.NewMessage{}, fmt.Errorf("parse toUserId: %w", err)
	}

	mt, err := bus.ParseMessageType(nm.MessageType)
	if err != nil {
		return bus.NewMessage{}, fmt.Errorf("parseMessageType: %w", err)
	}

	return bus.NewMessage{
		ToUserID: toUserID,
		Subject:  nm.Subject,
		Body:     nm.Body,
		Type:     mt,
	}, nil
}

// ==============================================================================

type unreadCount struct {
	Count int `json:"count"`
}
