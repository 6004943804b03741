package backend

import (
	"context"
	"net/http"

	"supplyChainTracking/models"
)

// ListNotifications fetches the actor's notification log.
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var all []models.Notification
	err := c.getList(ctx, "/notifications", nil,
		func() interface{} { return &[]models.Notification{} },
		func(page interface{}) { all = append(all, *page.(*[]models.Notification)...) })
	return all, err
}

// UnreadCount fetches the current unread notification counter.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkNotificationRead forwards a markAsRead to the server.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+id+"/read", nil, nil, nil)
}

// DismissNotification forwards a dismiss to the server. Notifications are
// never deleted locally, only dismissed.
func (c *Client) DismissNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+id+"/dismiss", nil, nil, nil)
}
