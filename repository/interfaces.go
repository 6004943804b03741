package repository

import (
	"context"

	"supplyChainTracking/models"
)

// SnapshotRepositoryI defines the local snapshot store operations: the
// last-known segment projection per actor and the notification log.
type SnapshotRepositoryI interface {
	SaveSegments(ctx context.Context, actor string, views []models.SegmentView) error
	LoadSegments(ctx context.Context, actor string) ([]models.SegmentView, bool, error)
	AppendNotification(ctx context.Context, actor string, n models.Notification) error
	ListNotifications(ctx context.Context, actor string, limit int) ([]models.Notification, error)
}
