package user

import "time"

const (
	RolePatient   = "patient"
	RoleTherapist = "therapist"
)

// User is an account with an immutable role. There is intentionally no
// role-change operation anywhere in the module.
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password;not null"`
	FirstName    string    `gorm:"not null"`
	LastName     string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

func ValidRole(role string) bool {
	return role == RolePatient || role == RoleTherapist
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
