package relationship

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, relation *Relation) error
	Exists(ctx context.Context, therapistID, patientID string) (bool, error)
	Delete(ctx context.Context, therapistID, patientID string) (bool, error)
	ListPatients(ctx context.Context, therapistID string) ([]AssignedPatient, error)
	// PatientStats aggregates the derived statistics for one patient as of
	// now; recent entries are those on or after recentSince.
	PatientStats(ctx context.Context, patientID string, recentSince time.Time) (PatientStats, error)
}
