package adminclient

import (
	"context"
	"net/http"
	"strconv"
)

// SendMessage delivers a message to another admin user as the
// authenticated user.
func (c *Client) SendMessage(ctx context.Context, nm NewMessage) (Message, error) {
	var msg Message

	req := request{
		method: http.MethodPost,
		path:   "/v1/admin/adminmessages",
		body:   nm,
	}

	if err := c.do(ctx, req, &msg); err != nil {
		return Message{}, err
	}

	return msg, nil
}

// Inbox lists messages addressed to the authenticated user, newest first.
func (c *Client) Inbox(ctx context.Context, unreadOnly bool, page int, rows int) (MessagePage, error) {
	var result MessagePage

	q := pageValues(page, rows)
	if unreadOnly {
		q.Set("unreadOnly", strconv.FormatBool(unreadOnly))
	}

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminmessages/inbox",
		query:      q,
		idempotent: true,
	}

	if err := c.do(ctx, req, &result); err != nil {
		return MessagePage{}, err
	}

	return result, nil
}

// Sent lists messages the authenticated user has sent, newest first.
func (c *Client) Sent(ctx context.Context, page int, rows int) (MessagePage, error) {
	var result MessagePage

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminmessages/sent",
		query:      pageValues(page, rows),
		idempotent: true,
	}

	if err := c.do(ctx, req, &result); err != nil {
		return MessagePage{}, err
	}

	return result, nil
}

// MarkMessageRead flips a message to read. The transition is one-way so
// repeating it is safe and the request is retried like any idempotent one.
func (c *Client) MarkMessageRead(ctx context.Context, messageID string) (Message, error) {
	var msg Message

	req := request{
		method:     http.MethodPatch,
		path:       "/v1/admin/adminmessages/" + messageID + "/read",
		idempotent: true,
	}

	if err := c.do(ctx, req, &msg); err != nil {
		return Message{}, err
	}

	return msg, nil
}

// UnreadCount reports how many unread messages the authenticated user has.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var count UnreadCount

	req := request{
		method:     http.MethodGet,
		path:       "/v1/admin/adminmessages/unread-count",
		idempotent: true,
	}

	if err := c.do(ctx, req, &count); err != nil {
		return 0, err
	}

	return count.Count, nil
}
