package mood

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, userID, entryID string) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, userID, entryID string) (bool, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Entry, error)
	Count(ctx context.Context, userID string) (int64, error)
	Average(ctx context.Context, userID string, since *time.Time) (*float64, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]Entry, error)
}
