package relationship

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"therapy-support-go/internal/domain/access"
	"therapy-support-go/internal/domain/user"
	"therapy-support-go/pkg/logger"
)

const (
	therapistID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	patientID   = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	patientID2  = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

type fakeRelationRepo struct {
	relations map[[2]string]*Relation
	stats     map[string]PatientStats
	statsErr  map[string]error
}

func newFakeRelationRepo() *fakeRelationRepo {
	return &fakeRelationRepo{
		relations: make(map[[2]string]*Relation),
		stats:     make(map[string]PatientStats),
		statsErr:  make(map[string]error),
	}
}

func (r *fakeRelationRepo) Create(ctx context.Context, relation *Relation) error {
	key := [2]string{relation.TherapistID, relation.PatientID}
	if _, ok := r.relations[key]; ok {
		return ErrRelationExists
	}
	relation.CreatedAt = time.Now()
	r.relations[key] = relation
	return nil
}

func (r *fakeRelationRepo) Exists(ctx context.Context, therapistID, patientID string) (bool, error) {
	_, ok := r.relations[[2]string{therapistID, patientID}]
	return ok, nil
}

func (r *fakeRelationRepo) Delete(ctx context.Context, therapistID, patientID string) (bool, error) {
	key := [2]string{therapistID, patientID}
	if _, ok := r.relations[key]; !ok {
		return false, nil
	}
	delete(r.relations, key)
	return true, nil
}

func (r *fakeRelationRepo) ListPatients(ctx context.Context, therapistID string) ([]AssignedPatient, error) {
	result := make([]AssignedPatient, 0)
	for key, relation := range r.relations {
		if key[0] != therapistID {
			continue
		}
		result = append(result, AssignedPatient{ID: key[1], AssignedAt: relation.CreatedAt})
	}
	return result, nil
}

func (r *fakeRelationRepo) PatientStats(ctx context.Context, patientID string, recentSince time.Time) (PatientStats, error) {
	if err := r.statsErr[patientID]; err != nil {
		return PatientStats{}, err
	}
	return r.stats[patientID], nil
}

type fakeUserRepo struct {
	users map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, account *user.User) error {
	r.users[account.ID] = account
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	account, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return account, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, account := range r.users {
		if account.Email == email {
			return account, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]user.User, error) {
	result := make([]user.User, 0)
	for _, account := range r.users {
		if account.Role == role {
			result = append(result, *account)
		}
	}
	return result, nil
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, slog.LevelError, "text")
}

func setupService(t *testing.T) (*Service, *fakeRelationRepo, *fakeUserRepo) {
	t.Helper()
	repo := newFakeRelationRepo()
	users := newFakeUserRepo()
	users.users[therapistID] = &user.User{ID: therapistID, Role: user.RoleTherapist}
	users.users[patientID] = &user.User{ID: patientID, Role: user.RolePatient}
	users.users[patientID2] = &user.User{ID: patientID2, Role: user.RolePatient}
	return NewService(repo, users, testLogger()), repo, users
}

func asTherapist(id string) access.Identity {
	return access.Identity{ID: id, Role: user.RoleTherapist}
}

func TestCreateRelation(t *testing.T) {
	svc, _, _ := setupService(t)

	relation, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if relation.ID == "" {
		t.Fatal("expected generated id")
	}
	if relation.TherapistID != therapistID || relation.PatientID != patientID {
		t.Fatalf("relation = %+v", relation)
	}
}

func TestCreateRelationDuplicate(t *testing.T) {
	svc, _, _ := setupService(t)

	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID); !errors.Is(err, ErrRelationExists) {
		t.Fatalf("err = %v, want ErrRelationExists", err)
	}
}

func TestCreateRelationOwnership(t *testing.T) {
	svc, _, _ := setupService(t)

	caller := access.Identity{ID: patientID, Role: user.RolePatient}
	if _, err := svc.Create(context.Background(), caller, therapistID, patientID); !errors.Is(err, ErrNotOwnRelation) {
		t.Fatalf("patient caller err = %v, want ErrNotOwnRelation", err)
	}

	other := asTherapist("other-therapist")
	if _, err := svc.Create(context.Background(), other, therapistID, patientID); !errors.Is(err, ErrNotOwnRelation) {
		t.Fatalf("other therapist err = %v, want ErrNotOwnRelation", err)
	}
}

func TestCreateRelationRoleChecks(t *testing.T) {
	svc, _, users := setupService(t)

	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, "missing"); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("missing patient err = %v, want ErrPatientNotFound", err)
	}

	// A therapist account in the patient slot is as missing as no row.
	second := &user.User{ID: "second-therapist", Role: user.RoleTherapist}
	users.users[second.ID] = second
	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, second.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("wrong role err = %v, want ErrPatientNotFound", err)
	}
}

func TestRemoveRelation(t *testing.T) {
	svc, _, _ := setupService(t)

	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Remove(context.Background(), asTherapist("other"), therapistID, patientID); !errors.Is(err, ErrNotOwnRelation) {
		t.Fatalf("foreign remove err = %v, want ErrNotOwnRelation", err)
	}

	if err := svc.Remove(context.Background(), asTherapist(therapistID), therapistID, patientID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if err := svc.Remove(context.Background(), asTherapist(therapistID), therapistID, patientID); !errors.Is(err, ErrRelationNotFound) {
		t.Fatalf("second remove err = %v, want ErrRelationNotFound", err)
	}

	exists, err := svc.Exists(context.Background(), therapistID, patientID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("relation should be gone")
	}
}

func TestListPatientsOfStatsRounding(t *testing.T) {
	svc, repo, _ := setupService(t)

	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID); err != nil {
		t.Fatalf("create: %v", err)
	}

	avg := 7.4567
	repo.stats[patientID] = PatientStats{MoodEntriesCount: 3, AverageMood: &avg}

	summaries, degraded, err := svc.ListPatientsOf(context.Background(), therapistID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if degraded {
		t.Fatal("degraded should be false")
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if got := *summaries[0].Stats.AverageMood; got != 7.5 {
		t.Fatalf("average = %v, want 7.5", got)
	}
}

func TestListPatientsOfDegradedStats(t *testing.T) {
	svc, repo, _ := setupService(t)

	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID); err != nil {
		t.Fatalf("create patient 1: %v", err)
	}
	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID2); err != nil {
		t.Fatalf("create patient 2: %v", err)
	}

	avg := 6.0
	repo.stats[patientID] = PatientStats{MoodEntriesCount: 2, AverageMood: &avg}
	repo.statsErr[patientID2] = errors.New("aggregation timeout")

	summaries, degraded, err := svc.ListPatientsOf(context.Background(), therapistID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !degraded {
		t.Fatal("degraded should be true when one patient's stats fail")
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2 despite stats failure", len(summaries))
	}

	for _, summary := range summaries {
		if summary.ID == patientID2 {
			if summary.Stats.MoodEntriesCount != 0 || summary.Stats.AverageMood != nil {
				t.Fatalf("failed patient should carry zero stats, got %+v", summary.Stats)
			}
		}
	}
}

func TestListUnassignedPatients(t *testing.T) {
	svc, _, _ := setupService(t)

	if _, err := svc.Create(context.Background(), asTherapist(therapistID), therapistID, patientID); err != nil {
		t.Fatalf("create: %v", err)
	}

	unassigned, err := svc.ListUnassignedPatients(context.Background(), therapistID)
	if err != nil {
		t.Fatalf("list unassigned: %v", err)
	}
	if len(unassigned) != 1 || unassigned[0].ID != patientID2 {
		t.Fatalf("unassigned = %+v, want only %s", unassigned, patientID2)
	}
}
