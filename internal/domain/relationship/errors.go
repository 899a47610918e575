package relationship

import "errors"

var (
	ErrRelationExists    = errors.New("relationship already exists")
	ErrRelationNotFound  = errors.New("relationship not found")
	ErrTherapistNotFound = errors.New("therapist not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrNotOwnRelation    = errors.New("only the owning therapist may manage this relationship")
)
