package medication

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"therapy-support-go/internal/domain/access"
)

const (
	maxNameLength  = 255
	maxFieldLength = 100
	maxNotesLength = 1000
)

type AccessPolicy interface {
	RequirePatientData(ctx context.Context, ident access.Identity, patientID string) error
}

type Service struct {
	repo   Repository
	policy AccessPolicy
}

func NewService(repo Repository, policy AccessPolicy) *Service {
	return &Service{repo: repo, policy: policy}
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Medication, error) {
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	if err := validateField("dosage", input.Dosage); err != nil {
		return nil, err
	}
	if err := validateField("frequency", input.Frequency); err != nil {
		return nil, err
	}
	if err := validateTimes(input.TimeToTake); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(input.Notes) > maxNotesLength {
		return nil, fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, maxNotesLength)
	}

	med := Medication{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		Name:       input.Name,
		Dosage:     input.Dosage,
		Frequency:  input.Frequency,
		TimeToTake: append([]string{}, input.TimeToTake...),
		Notes:      input.Notes,
		Active:     true,
	}
	if err := s.repo.Create(ctx, &med); err != nil {
		return nil, err
	}
	return &med, nil
}

func (s *Service) Update(ctx context.Context, input UpdateInput) (*Medication, error) {
	if input.Name == nil && input.Dosage == nil && input.Frequency == nil &&
		input.TimeToTake == nil && input.Notes == nil && input.Active == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	med, err := s.repo.GetByID(ctx, input.UserID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := validateName(*input.Name); err != nil {
			return nil, err
		}
		med.Name = *input.Name
	}
	if input.Dosage != nil {
		if err := validateField("dosage", *input.Dosage); err != nil {
			return nil, err
		}
		med.Dosage = *input.Dosage
	}
	if input.Frequency != nil {
		if err := validateField("frequency", *input.Frequency); err != nil {
			return nil, err
		}
		med.Frequency = *input.Frequency
	}
	if input.TimeToTake != nil {
		if err := validateTimes(*input.TimeToTake); err != nil {
			return nil, err
		}
		med.TimeToTake = append([]string{}, (*input.TimeToTake)...)
	}
	if input.Notes != nil {
		if utf8.RuneCountInString(*input.Notes) > maxNotesLength {
			return nil, fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, maxNotesLength)
		}
		med.Notes = *input.Notes
	}
	if input.Active != nil {
		med.Active = *input.Active
	}

	if err := s.repo.Update(ctx, med); err != nil {
		return nil, err
	}
	return med, nil
}

func (s *Service) Delete(ctx context.Context, userID, medicationID string) error {
	deleted, err := s.repo.SoftDelete(ctx, userID, medicationID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrMedicationNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, active bool) ([]Medication, error) {
	return s.repo.List(ctx, userID, active)
}

// ListForPatient is the therapist view of a patient's active medications.
func (s *Service) ListForPatient(ctx context.Context, ident access.Identity, patientID string) ([]Medication, error) {
	if err := s.policy.RequirePatientData(ctx, ident, patientID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, patientID, true)
}

// Today expands active medications into today's (medication, time) doses,
// flagged against now and sorted by time of day.
func (s *Service) Today(ctx context.Context, userID string, now time.Time) ([]Dose, error) {
	meds, err := s.repo.List(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	doses := make([]Dose, 0)
	for _, med := range meds {
		for _, timeStr := range med.TimeToTake {
			minutes, err := minuteOfDay(timeStr)
			if err != nil {
				continue
			}
			doses = append(doses, Dose{
				MedicationID: med.ID,
				Name:         med.Name,
				Dosage:       med.Dosage,
				Time:         timeStr,
				Pending:      minutes > nowMinutes,
				PastDue:      minutes < nowMinutes,
			})
		}
	}

	sort.Slice(doses, func(i, j int) bool {
		mi, _ := minuteOfDay(doses[i].Time)
		mj, _ := minuteOfDay(doses[j].Time)
		return mi < mj
	})

	return doses, nil
}

func validateName(name string) error {
	length := utf8.RuneCountInString(name)
	if length < 1 || length > maxNameLength {
		return fmt.Errorf("%w: name must be between 1 and %d characters", ErrInvalidInput, maxNameLength)
	}
	return nil
}

func validateField(field, value string) error {
	if utf8.RuneCountInString(value) > maxFieldLength {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, maxFieldLength)
	}
	return nil
}

func validateTimes(times []string) error {
	for _, timeStr := range times {
		if _, err := minuteOfDay(timeStr); err != nil {
			return fmt.Errorf("%w: time_to_take entries must be HH:MM, got %q", ErrInvalidInput, timeStr)
		}
	}
	return nil
}

func minuteOfDay(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
