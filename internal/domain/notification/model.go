package notification

import "time"

const (
	TypeMessage    = "message"
	TypeMedication = "medication"
	TypeMood       = "mood"
)

// Notification is a per-user side-effect record with the same one-way
// unread→read transition as a message.
type Notification struct {
	ID        string     `gorm:"type:uuid;primaryKey"`
	UserID    string     `gorm:"type:uuid;index;not null"`
	Type      string     `gorm:"not null"`
	Title     string     `gorm:"not null"`
	Content   string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	ReadAt    *time.Time `gorm:"column:read_at"`
}

// MedicationSchedule is the slice of an active medication the reminder
// sweep needs.
type MedicationSchedule struct {
	UserID     string
	Name       string
	Dosage     string
	TimeToTake []string
}

// Reminder reports one notification created by a sweep run.
type Reminder struct {
	UserID         string `json:"user_id"`
	MedicationName string `json:"medication_name"`
	Time           string `json:"time"`
}
