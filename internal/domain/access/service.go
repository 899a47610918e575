// Package access is the cross-cutting gate consulted before any cross-user
// read. Self-access is always allowed; everything else requires a
// therapist-patient relationship.
package access

import (
	"context"
	"errors"

	"therapy-support-go/internal/domain/user"
)

// ErrNoRelationship is the terminal condition for a cross-user operation
// attempted without a qualifying relationship. It maps to Forbidden, never
// NotFound: the row may exist, the caller just may not see it.
var ErrNoRelationship = errors.New("no therapeutic relationship exists")

// Identity is the authenticated caller attached to every request. It is
// trusted as-is; credential verification happened at the transport edge.
type Identity struct {
	ID   string
	Role string
}

// RelationshipChecker reports whether a therapist is assigned to a patient.
type RelationshipChecker interface {
	Exists(ctx context.Context, therapistID, patientID string) (bool, error)
}

type Service struct {
	relationships RelationshipChecker
}

func NewService(relationships RelationshipChecker) *Service {
	return &Service{relationships: relationships}
}

// CanAccessPatientData reports whether ident may read the patient's clinical
// records: the patient themselves, or a therapist assigned to them.
func (s *Service) CanAccessPatientData(ctx context.Context, ident Identity, patientID string) (bool, error) {
	if ident.ID == patientID {
		return true, nil
	}
	if ident.Role != user.RoleTherapist {
		return false, nil
	}
	return s.relationships.Exists(ctx, ident.ID, patientID)
}

// RequirePatientData is CanAccessPatientData folded into an error.
func (s *Service) RequirePatientData(ctx context.Context, ident Identity, patientID string) error {
	ok, err := s.CanAccessPatientData(ctx, ident, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRelationship
	}
	return nil
}
