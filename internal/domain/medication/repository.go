package medication

import "context"

type Repository interface {
	Create(ctx context.Context, medication *Medication) error
	GetByID(ctx context.Context, userID, medicationID string) (*Medication, error)
	Update(ctx context.Context, medication *Medication) error
	// SoftDelete sets active=false; the row is retained.
	SoftDelete(ctx context.Context, userID, medicationID string) (bool, error)
	List(ctx context.Context, userID string, active bool) ([]Medication, error)
}
