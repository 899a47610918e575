package user

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]User, error) {
	result := make([]User, 0)
	for _, user := range r.users {
		if user.Role == role {
			result = append(result, *user)
		}
	}
	return result, nil
}

func validInput() RegisterInput {
	return RegisterInput{
		Email:     "anna@example.com",
		Password:  "secret1",
		FirstName: "Anna",
		LastName:  "Berg",
		Role:      RolePatient,
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	created, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.PasswordHash == "secret1" {
		t.Fatal("password stored in plain text")
	}
	if bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret1")) != nil {
		t.Fatal("stored hash does not match password")
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	input := validInput()
	input.Email = "  Anna@Example.COM "
	created, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Email != "anna@example.com" {
		t.Fatalf("email = %q, want lowercased trimmed", created.Email)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "12345" }},
		{"short first name", func(in *RegisterInput) { in.FirstName = "A" }},
		{"short last name", func(in *RegisterInput) { in.LastName = "B" }},
		{"bad role", func(in *RegisterInput) { in.Role = "admin" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), validInput()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	account, err := svc.Login(context.Background(), "anna@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if account.Email != "anna@example.com" {
		t.Fatalf("email = %q", account.Email)
	}

	if _, err := svc.Login(context.Background(), "anna@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestListByRole(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	patient := validInput()
	if _, err := svc.Register(context.Background(), patient); err != nil {
		t.Fatalf("register patient: %v", err)
	}
	therapist := validInput()
	therapist.Email = "doc@example.com"
	therapist.Role = RoleTherapist
	if _, err := svc.Register(context.Background(), therapist); err != nil {
		t.Fatalf("register therapist: %v", err)
	}

	therapists, err := svc.ListTherapists(context.Background())
	if err != nil {
		t.Fatalf("list therapists: %v", err)
	}
	if len(therapists) != 1 || therapists[0].Email != "doc@example.com" {
		t.Fatalf("therapists = %+v", therapists)
	}

	patients, err := svc.ListPatients(context.Background())
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if len(patients) != 1 || patients[0].Email != "anna@example.com" {
		t.Fatalf("patients = %+v", patients)
	}
}
