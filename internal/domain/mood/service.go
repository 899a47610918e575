package mood

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"therapy-support-go/internal/domain/access"
)

const (
	MinRating       = 1
	MaxRating       = 10
	maxNotesLength  = 1000
	defaultListSize = 30
)

// AccessPolicy gates cross-user reads of a patient's diary.
type AccessPolicy interface {
	RequirePatientData(ctx context.Context, ident access.Identity, patientID string) error
}

type Service struct {
	repo   Repository
	policy AccessPolicy
	now    func() time.Time
}

func NewService(repo Repository, policy AccessPolicy) *Service {
	return &Service{repo: repo, policy: policy, now: time.Now}
}

func (s *Service) Create(ctx context.Context, input CreateEntryInput) (*Entry, error) {
	if err := validateRating(input.MoodRating); err != nil {
		return nil, err
	}
	if err := validateNotes(input.Notes); err != nil {
		return nil, err
	}
	if input.EntryDate.IsZero() {
		return nil, fmt.Errorf("%w: entry_date is required", ErrInvalidInput)
	}

	entry := Entry{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		MoodRating: input.MoodRating,
		Notes:      input.Notes,
		EntryDate:  input.EntryDate,
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Service) Update(ctx context.Context, input UpdateEntryInput) (*Entry, error) {
	if input.MoodRating == nil && input.Notes == nil && input.EntryDate == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	entry, err := s.repo.GetByID(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.MoodRating != nil {
		if err := validateRating(*input.MoodRating); err != nil {
			return nil, err
		}
		entry.MoodRating = *input.MoodRating
	}
	if input.Notes != nil {
		if err := validateNotes(*input.Notes); err != nil {
			return nil, err
		}
		entry.Notes = *input.Notes
	}
	if input.EntryDate != nil {
		if input.EntryDate.IsZero() {
			return nil, fmt.Errorf("%w: entry_date is required", ErrInvalidInput)
		}
		entry.EntryDate = *input.EntryDate
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) Delete(ctx context.Context, userID, entryID string) error {
	deleted, err := s.repo.Delete(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEntryNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListSize
	}
	return s.repo.List(ctx, userID, filter)
}

// ListForPatient is the therapist view of a patient's diary, gated by the
// access-control layer.
func (s *Service) ListForPatient(ctx context.Context, ident access.Identity, patientID string, filter ListFilter) ([]Entry, error) {
	if err := s.policy.RequirePatientData(ctx, ident, patientID); err != nil {
		return nil, err
	}
	return s.List(ctx, patientID, filter)
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	total, err := s.repo.Count(ctx, userID)
	if err != nil {
		return Stats{}, err
	}

	average, err := s.repo.Average(ctx, userID, nil)
	if err != nil {
		return Stats{}, err
	}

	weekAgo := s.now().UTC().AddDate(0, 0, -7)
	weekly, err := s.repo.Average(ctx, userID, &weekAgo)
	if err != nil {
		return Stats{}, err
	}

	recent, err := s.repo.ListRecent(ctx, userID, 7)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalEntries:  total,
		AverageMood:   roundTenth(average),
		WeeklyAverage: roundTenth(weekly),
		RecentEntries: recent,
	}, nil
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: mood_rating must be between %d and %d", ErrInvalidInput, MinRating, MaxRating)
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, maxNotesLength)
	}
	return nil
}

func roundTenth(value *float64) *float64 {
	if value == nil {
		return nil
	}
	rounded := math.Round(*value*10) / 10
	return &rounded
}
