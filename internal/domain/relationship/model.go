package relationship

import "time"

// Relation assigns a patient to a therapist. It gates every cross-user read
// and may only be mutated by the therapist side.
type Relation struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	TherapistID string    `gorm:"type:uuid;uniqueIndex:idx_therapist_patient;not null"`
	PatientID   string    `gorm:"type:uuid;uniqueIndex:idx_therapist_patient;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Relation) TableName() string { return "therapist_patients" }

// MoodSnapshot is the slice of a mood entry shown in therapist summaries.
type MoodSnapshot struct {
	MoodRating int       `json:"mood_rating"`
	EntryDate  time.Time `json:"entry_date"`
}

// PatientStats are computed at read time on every list call, never stored.
type PatientStats struct {
	MoodEntriesCount       int64
	ActiveMedicationsCount int64
	LastMoodEntry          *MoodSnapshot
	RecentMoodEntries      []MoodSnapshot
	AverageMood            *float64
}

// AssignedPatient is a patient row joined with its assignment timestamp.
type AssignedPatient struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	CreatedAt  time.Time
	AssignedAt time.Time
}

// PatientSummary is an assigned patient annotated with derived stats.
type PatientSummary struct {
	AssignedPatient
	Stats PatientStats
}
