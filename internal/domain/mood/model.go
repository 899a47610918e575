package mood

import "time"

// Entry is one mood diary record. Multiple entries per day are allowed;
// there is no uniqueness on entry_date.
type Entry struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	UserID     string    `gorm:"type:uuid;index;not null"`
	MoodRating int       `gorm:"not null"`
	Notes      string    `gorm:"type:text"`
	EntryDate  time.Time `gorm:"type:date;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Entry) TableName() string { return "mood_entries" }

type CreateEntryInput struct {
	UserID     string
	MoodRating int
	Notes      string
	EntryDate  time.Time
}

// UpdateEntryInput is a typed patch: only the listed fields are mutable.
type UpdateEntryInput struct {
	ID         string
	UserID     string
	MoodRating *int
	Notes      *string
	EntryDate  *time.Time
}

type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Stats are read-time aggregates over a user's diary.
type Stats struct {
	TotalEntries  int64
	AverageMood   *float64
	WeeklyAverage *float64
	RecentEntries []Entry
}
