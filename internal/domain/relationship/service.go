package relationship

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"therapy-support-go/internal/domain/access"
	"therapy-support-go/internal/domain/user"
	"therapy-support-go/pkg/logger"
)

const recentMoodWindow = 7 * 24 * time.Hour

type Service struct {
	repo  Repository
	users user.Repository
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, users user.Repository, log logger.Logger) *Service {
	return &Service{repo: repo, users: users, log: log, now: time.Now}
}

// Create assigns a patient to a therapist. Only the therapist side may
// create its own assignments.
func (s *Service) Create(ctx context.Context, caller access.Identity, therapistID, patientID string) (*Relation, error) {
	if caller.Role != user.RoleTherapist || caller.ID != therapistID {
		return nil, ErrNotOwnRelation
	}

	if err := s.requireRole(ctx, therapistID, user.RoleTherapist, ErrTherapistNotFound); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, patientID, user.RolePatient, ErrPatientNotFound); err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, therapistID, patientID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrRelationExists
	}

	relation := Relation{
		ID:          uuid.NewString(),
		TherapistID: therapistID,
		PatientID:   patientID,
	}
	if err := s.repo.Create(ctx, &relation); err != nil {
		return nil, err
	}

	return &relation, nil
}

func (s *Service) Remove(ctx context.Context, caller access.Identity, therapistID, patientID string) error {
	if caller.ID != therapistID {
		return ErrNotOwnRelation
	}

	deleted, err := s.repo.Delete(ctx, therapistID, patientID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrRelationNotFound
	}
	return nil
}

// Exists implements access.RelationshipChecker.
func (s *Service) Exists(ctx context.Context, therapistID, patientID string) (bool, error) {
	return s.repo.Exists(ctx, therapistID, patientID)
}

// ListPatientsOf returns the therapist's patients with read-time stats.
// A failed stats aggregation does not fail the listing: the patient row is
// returned with zero stats and the degraded flag is set.
func (s *Service) ListPatientsOf(ctx context.Context, therapistID string) ([]PatientSummary, bool, error) {
	patients, err := s.repo.ListPatients(ctx, therapistID)
	if err != nil {
		return nil, false, err
	}

	recentSince := s.now().UTC().Add(-recentMoodWindow)
	summaries := make([]PatientSummary, 0, len(patients))
	degraded := false

	for _, patient := range patients {
		stats, err := s.repo.PatientStats(ctx, patient.ID, recentSince)
		if err != nil {
			s.log.BusinessError("relationship: patient stats unavailable", err, "patient_id", patient.ID)
			degraded = true
			stats = PatientStats{}
		}
		if stats.AverageMood != nil {
			rounded := math.Round(*stats.AverageMood*10) / 10
			stats.AverageMood = &rounded
		}
		summaries = append(summaries, PatientSummary{AssignedPatient: patient, Stats: stats})
	}

	return summaries, degraded, nil
}

// ListTherapistsAvailableTo returns every therapist, unfiltered by
// relationship; it backs the "start new conversation" picker.
func (s *Service) ListTherapistsAvailableTo(ctx context.Context) ([]user.User, error) {
	return s.users.ListByRole(ctx, user.RoleTherapist)
}

// ListUnassignedPatients returns all patients not yet assigned to the
// therapist.
func (s *Service) ListUnassignedPatients(ctx context.Context, therapistID string) ([]user.User, error) {
	patients, err := s.users.ListByRole(ctx, user.RolePatient)
	if err != nil {
		return nil, err
	}

	assigned, err := s.repo.ListPatients(ctx, therapistID)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(assigned))
	for _, patient := range assigned {
		taken[patient.ID] = struct{}{}
	}

	result := make([]user.User, 0, len(patients))
	for _, patient := range patients {
		if _, ok := taken[patient.ID]; !ok {
			result = append(result, patient)
		}
	}
	return result, nil
}

func (s *Service) requireRole(ctx context.Context, id, role string, missing error) error {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return missing
		}
		return err
	}
	if account.Role != role {
		return missing
	}
	return nil
}
