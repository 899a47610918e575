//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"therapy-support-go/internal/auth"
	"therapy-support-go/internal/config"
	"therapy-support-go/internal/db"
	"therapy-support-go/internal/domain/access"
	medicationdomain "therapy-support-go/internal/domain/medication"
	messagingdomain "therapy-support-go/internal/domain/messaging"
	mooddomain "therapy-support-go/internal/domain/mood"
	notificationdomain "therapy-support-go/internal/domain/notification"
	relationshipdomain "therapy-support-go/internal/domain/relationship"
	userdomain "therapy-support-go/internal/domain/user"
	medicationrepo "therapy-support-go/internal/repository/postgres/medication"
	messagingrepo "therapy-support-go/internal/repository/postgres/messaging"
	moodrepo "therapy-support-go/internal/repository/postgres/mood"
	notificationrepo "therapy-support-go/internal/repository/postgres/notification"
	relationshiprepo "therapy-support-go/internal/repository/postgres/relationship"
	userrepo "therapy-support-go/internal/repository/postgres/user"
	"therapy-support-go/internal/transport/httpserver"
	"therapy-support-go/internal/transport/httpserver/handler"
	authmw "therapy-support-go/internal/transport/httpserver/middleware"
	"therapy-support-go/pkg/logger"
)

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.NewFromEnv()
	cfg := config.Config{
		HTTPPort: "0",
		DB:       config.DBConfig{DSN: dsn},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	tokens, err := auth.NewManager("e2e-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}

	users := userrepo.NewPostgres(dbConn)
	relationships := relationshiprepo.NewPostgres(dbConn)
	moods := moodrepo.NewPostgres(dbConn)
	medications := medicationrepo.NewPostgres(dbConn)
	messages := messagingrepo.NewPostgres(dbConn)
	notifications := notificationrepo.NewPostgres(dbConn)

	userSvc := userdomain.NewService(users)
	relationshipSvc := relationshipdomain.NewService(relationships, users, log)
	accessSvc := access.NewService(relationshipSvc)
	moodSvc := mooddomain.NewService(moods, accessSvc)
	medicationSvc := medicationdomain.NewService(medications, accessSvc)
	notificationSvc := notificationdomain.NewService(notifications)
	messagingSvc := messagingdomain.NewService(messages, users, relationshipSvc, notificationSvc, log)

	handlers := handler.New(userSvc, relationshipSvc, moodSvc, medicationSvc, messagingSvc, notificationSvc, tokens, log)
	router := httpserver.NewRouter(cfg, handlers, authmw.NewJWTAuth(tokens))

	return &testEnv{server: httptest.NewServer(router), db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	tables := []string{"notifications", "messages", "medications", "mood_entries", "therapist_patients", "users"}
	for _, table := range tables {
		if err := dbConn.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (e *testEnv) register(t *testing.T, email, role string) (id, token string) {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      email,
		"password":   "secret1",
		"first_name": "Test",
		"last_name":  "Person",
		"role":       role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, resp.StatusCode, body)
	}

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out.User.ID, out.Token
}

func TestMessagingFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	therapistID, therapistToken := env.register(t, "therapist@example.com", "therapist")
	patientID, patientToken := env.register(t, "patient@example.com", "patient")
	_, strangerToken := env.register(t, "stranger@example.com", "therapist")

	// Messaging before assignment is forbidden.
	resp, _ := env.do(t, http.MethodPost, "/api/messages", patientToken, map[string]string{
		"recipient_id": therapistID,
		"content":      "Hi",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("pre-relation send: status %d, want 403", resp.StatusCode)
	}

	// Therapist assigns the patient.
	resp, body := env.do(t, http.MethodPost, "/api/relationships", therapistToken, map[string]string{
		"therapist_id": therapistID,
		"patient_id":   patientID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create relationship: status %d, body %s", resp.StatusCode, body)
	}

	// Duplicate assignment conflicts.
	resp, _ = env.do(t, http.MethodPost, "/api/relationships", therapistToken, map[string]string{
		"therapist_id": therapistID,
		"patient_id":   patientID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate relationship: status %d, want 409", resp.StatusCode)
	}

	// Patient sends a message.
	resp, body = env.do(t, http.MethodPost, "/api/messages", patientToken, map[string]string{
		"recipient_id": therapistID,
		"content":      "Hi",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: status %d, body %s", resp.StatusCode, body)
	}

	// The therapist has one unread message and one message notification.
	resp, body = env.do(t, http.MethodGet, "/api/messages/unread-count", therapistToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unread count: status %d", resp.StatusCode)
	}
	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := json.Unmarshal(body, &unread); err != nil {
		t.Fatalf("decode unread: %v", err)
	}
	if unread.UnreadCount != 1 {
		t.Fatalf("unread = %d, want 1", unread.UnreadCount)
	}

	resp, body = env.do(t, http.MethodGet, "/api/notifications", therapistToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notifications: status %d", resp.StatusCode)
	}
	var notifications struct {
		Items []struct {
			Type string `json:"type"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &notifications); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(notifications.Items) != 1 || notifications.Items[0].Type != "message" {
		t.Fatalf("notifications = %+v, want one message notification", notifications.Items)
	}

	// Viewing the thread marks it read.
	resp, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/messages/%s", patientID), therapistToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages: status %d", resp.StatusCode)
	}
	resp, body = env.do(t, http.MethodGet, "/api/messages/unread-count", therapistToken, nil)
	if err := json.Unmarshal(body, &unread); err != nil {
		t.Fatalf("decode unread: %v", err)
	}
	if unread.UnreadCount != 0 {
		t.Fatalf("unread after view = %d, want 0", unread.UnreadCount)
	}

	// An unrelated therapist cannot read the patient's records.
	resp, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/mood/patient/%s", patientID), strangerToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger mood read: status %d, want 403", resp.StatusCode)
	}

	// Removing the relationship closes the channel again.
	resp, _ = env.do(t, http.MethodDelete, "/api/relationships", therapistToken, map[string]string{
		"therapist_id": therapistID,
		"patient_id":   patientID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove relationship: status %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/messages", patientToken, map[string]string{
		"recipient_id": therapistID,
		"content":      "Still there?",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("post-removal send: status %d, want 403", resp.StatusCode)
	}
}

func TestMoodAndMedicationRecords(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	therapistID, therapistToken := env.register(t, "doc@example.com", "therapist")
	patientID, patientToken := env.register(t, "pat@example.com", "patient")

	resp, _ := env.do(t, http.MethodPost, "/api/relationships", therapistToken, map[string]string{
		"therapist_id": therapistID,
		"patient_id":   patientID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create relationship: status %d", resp.StatusCode)
	}

	resp, body := env.do(t, http.MethodPost, "/api/mood", patientToken, map[string]any{
		"mood_rating": 7,
		"notes":       "better today",
		"entry_date":  "2026-08-20",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create mood: status %d, body %s", resp.StatusCode, body)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/mood", patientToken, map[string]any{
		"mood_rating": 11,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out-of-range mood: status %d, want 400", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodPost, "/api/medications", patientToken, map[string]any{
		"name":         "Sertraline",
		"dosage":       "50mg",
		"frequency":    "daily",
		"time_to_take": []string{"08:00"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create medication: status %d, body %s", resp.StatusCode, body)
	}
	var med struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &med); err != nil {
		t.Fatalf("decode medication: %v", err)
	}

	// The assigned therapist sees the patient's records.
	resp, body = env.do(t, http.MethodGet, fmt.Sprintf("/api/mood/patient/%s", patientID), therapistToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("therapist mood read: status %d", resp.StatusCode)
	}
	var moods struct {
		Items []struct {
			MoodRating int `json:"mood_rating"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &moods); err != nil {
		t.Fatalf("decode moods: %v", err)
	}
	if len(moods.Items) != 1 || moods.Items[0].MoodRating != 7 {
		t.Fatalf("moods = %+v", moods.Items)
	}

	// Soft delete keeps the row but drops it from the active list.
	resp, _ = env.do(t, http.MethodDelete, "/api/medications/"+med.ID, patientToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete medication: status %d", resp.StatusCode)
	}
	resp, body = env.do(t, http.MethodGet, "/api/medications", patientToken, nil)
	var meds struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &meds); err != nil {
		t.Fatalf("decode medications: %v", err)
	}
	if len(meds.Items) != 0 {
		t.Fatalf("active medications = %d, want 0 after soft delete", len(meds.Items))
	}

	// The patient dashboard lists the patient with stats.
	resp, body = env.do(t, http.MethodGet, "/api/relationships/patients", therapistToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list patients: status %d", resp.StatusCode)
	}
	var summaries struct {
		Items []struct {
			ID               string `json:"id"`
			MoodEntriesCount int64  `json:"mood_entries_count"`
		} `json:"items"`
		Degraded bool `json:"degraded"`
	}
	if err := json.Unmarshal(body, &summaries); err != nil {
		t.Fatalf("decode summaries: %v", err)
	}
	if summaries.Degraded {
		t.Fatal("degraded should be false")
	}
	if len(summaries.Items) != 1 || summaries.Items[0].MoodEntriesCount != 1 {
		t.Fatalf("summaries = %+v", summaries.Items)
	}
}

func TestConversationList(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	therapistID, therapistToken := env.register(t, "therapist@example.com", "therapist")
	patientA, patientAToken := env.register(t, "anna@example.com", "patient")
	patientB, patientBToken := env.register(t, "bruno@example.com", "patient")

	for _, patientID := range []string{patientA, patientB} {
		resp, body := env.do(t, http.MethodPost, "/api/relationships", therapistToken, map[string]string{
			"therapist_id": therapistID,
			"patient_id":   patientID,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create relationship: status %d, body %s", resp.StatusCode, body)
		}
	}

	send := func(token, recipientID, content string) {
		t.Helper()
		resp, body := env.do(t, http.MethodPost, "/api/messages", token, map[string]string{
			"recipient_id": recipientID,
			"content":      content,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("send %q: status %d, body %s", content, resp.StatusCode, body)
		}
	}

	send(patientAToken, therapistID, "first from A")
	send(patientBToken, therapistID, "hello")
	send(patientBToken, therapistID, "anyone there?")

	type conversation struct {
		OtherUserID string `json:"other_user_id"`
		LastMessage string `json:"last_message"`
		UnreadCount int64  `json:"unread_count"`
	}
	fetchConversations := func(token string) []conversation {
		t.Helper()
		resp, body := env.do(t, http.MethodGet, "/api/messages/conversations", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("conversations: status %d, body %s", resp.StatusCode, body)
		}
		var out struct {
			Items []conversation `json:"items"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode conversations: %v", err)
		}
		return out.Items
	}

	// One row per counterpart, most recently active first, each with the
	// latest message and that counterpart's unread count.
	conversations := fetchConversations(therapistToken)
	if len(conversations) != 2 {
		t.Fatalf("conversations = %d, want 2", len(conversations))
	}
	if conversations[0].OtherUserID != patientB {
		t.Fatalf("first counterpart = %s, want most recently active %s", conversations[0].OtherUserID, patientB)
	}
	if conversations[0].LastMessage != "anyone there?" || conversations[0].UnreadCount != 2 {
		t.Fatalf("patient B row = %+v", conversations[0])
	}
	if conversations[1].OtherUserID != patientA {
		t.Fatalf("second counterpart = %s, want %s", conversations[1].OtherUserID, patientA)
	}
	if conversations[1].LastMessage != "first from A" || conversations[1].UnreadCount != 1 {
		t.Fatalf("patient A row = %+v", conversations[1])
	}

	// A reply reorders: the A thread becomes the most recent, its last
	// message is the therapist's own, and A's unread count is untouched.
	send(therapistToken, patientA, "got it")
	conversations = fetchConversations(therapistToken)
	if conversations[0].OtherUserID != patientA || conversations[0].LastMessage != "got it" {
		t.Fatalf("after reply, first row = %+v", conversations[0])
	}
	if conversations[0].UnreadCount != 1 {
		t.Fatalf("reply changed unread count: %+v", conversations[0])
	}

	// The patient sees the mirror image of the thread.
	patientView := fetchConversations(patientAToken)
	if len(patientView) != 1 {
		t.Fatalf("patient conversations = %d, want 1", len(patientView))
	}
	if patientView[0].OtherUserID != therapistID || patientView[0].LastMessage != "got it" || patientView[0].UnreadCount != 1 {
		t.Fatalf("patient row = %+v", patientView[0])
	}

	// Viewing the B thread zeroes only that counterpart's unread count.
	resp, _ := env.do(t, http.MethodGet, "/api/messages/"+patientB, therapistToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view thread: status %d", resp.StatusCode)
	}
	conversations = fetchConversations(therapistToken)
	for _, conv := range conversations {
		want := int64(0)
		if conv.OtherUserID == patientA {
			want = 1
		}
		if conv.UnreadCount != want {
			t.Fatalf("unread for %s = %d, want %d", conv.OtherUserID, conv.UnreadCount, want)
		}
	}
}

func TestEmailUniqueConstraint(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	repo := userrepo.NewPostgres(env.db)

	first := &userdomain.User{
		ID:           uuid.NewString(),
		Email:        "taken@example.com",
		PasswordHash: "x",
		FirstName:    "First",
		LastName:     "User",
		Role:         "patient",
	}
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	second := &userdomain.User{
		ID:           uuid.NewString(),
		Email:        "taken@example.com",
		PasswordHash: "y",
		FirstName:    "Second",
		LastName:     "User",
		Role:         "patient",
	}
	if err := repo.Create(context.Background(), second); !errors.Is(err, userdomain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken from the unique index", err)
	}
}

func TestRolePermissionGates(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	_, therapistToken := env.register(t, "doc@example.com", "therapist")
	patientA, patientAToken := env.register(t, "anna@example.com", "patient")
	patientB, _ := env.register(t, "bruno@example.com", "patient")

	// Relationship management is therapist-only, rejected before the body
	// is even inspected.
	resp, _ := env.do(t, http.MethodPost, "/api/relationships", patientAToken, map[string]string{
		"therapist_id": patientA,
		"patient_id":   patientB,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patient create relationship: status %d, want 403", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/api/relationships", patientAToken, map[string]string{
		"therapist_id": patientA,
		"patient_id":   patientB,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patient remove relationship: status %d, want 403", resp.StatusCode)
	}

	// Patient record views are self-or-therapist; a patient never sees
	// another patient's records.
	resp, _ = env.do(t, http.MethodGet, "/api/mood/patient/"+patientB, patientAToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patient reads other patient mood: status %d, want 403", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/api/medications/patient/"+patientB, patientAToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patient reads other patient medications: status %d, want 403", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/api/mood/patient/"+patientA, patientAToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patient reads own records via patient route: status %d, want 200", resp.StatusCode)
	}

	// Directory listings are gated the same way.
	resp, _ = env.do(t, http.MethodGet, "/api/users/patients", patientAToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("patient lists patients: status %d, want 403", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/api/users/therapists", therapistToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("therapist lists therapists: status %d, want 403", resp.StatusCode)
	}
}
