package domain

import "context"

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendSuccess sends a success notification with statistics
	SendSuccess(ctx context.Context, stats Statistics) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}

// Statistics holds the summary of one scan
type Statistics struct {
	Origin        Origin
	Group         string
	Scanned       int
	Added         int
	Updated       int
	Removed       int
	TotalItems    int
	WithCover     int
	CoverPercent  float64
	DuplicateIDs  int
	PrefetchQueue int
}
