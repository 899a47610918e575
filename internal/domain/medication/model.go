package medication

import (
	"time"

	"github.com/lib/pq"
)

// Medication is owned by one patient. Deletion is a soft delete: active is
// set to false and the row is retained.
type Medication struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	UserID     string         `gorm:"type:uuid;index;not null"`
	Name       string         `gorm:"not null"`
	Dosage     string         `gorm:"type:text"`
	Frequency  string         `gorm:"type:text"`
	TimeToTake pq.StringArray `gorm:"type:text[];column:time_to_take"`
	Notes      string         `gorm:"type:text"`
	Active     bool           `gorm:"not null;default:true"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

type CreateInput struct {
	UserID     string
	Name       string
	Dosage     string
	Frequency  string
	TimeToTake []string
	Notes      string
}

// UpdateInput is a typed patch enumerating exactly the mutable fields.
type UpdateInput struct {
	ID         string
	UserID     string
	Name       *string
	Dosage     *string
	Frequency  *string
	TimeToTake *[]string
	Notes      *string
	Active     *bool
}

// Dose is one (medication, time-of-day) pair in the today view, flagged
// relative to the current clock. A dose exactly at the current minute is
// neither pending nor past due.
type Dose struct {
	MedicationID string
	Name         string
	Dosage       string
	Time         string
	Pending      bool
	PastDue      bool
}
