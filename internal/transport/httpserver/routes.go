package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"therapy-support-go/internal/config"
	"therapy-support-go/internal/transport/httpserver/handler"
	authmw "therapy-support-go/internal/transport/httpserver/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.JWTAuth) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Post("/auth/register", handlers.Register)
		r.Post("/auth/login", handlers.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Me)

			r.Get("/users/therapists", handlers.ListTherapists)
			r.Get("/users/patients", handlers.ListAllPatients)
			r.Get("/users/patients/unassigned", handlers.ListUnassignedPatients)

			r.Post("/relationships", handlers.CreateRelationship)
			r.Delete("/relationships", handlers.RemoveRelationship)
			r.Get("/relationships/patients", handlers.ListMyPatients)

			r.Post("/mood", handlers.CreateMoodEntry)
			r.Get("/mood", handlers.ListMoodEntries)
			r.Get("/mood/stats", handlers.MoodStats)
			r.Put("/mood/{entryID}", handlers.UpdateMoodEntry)
			r.Delete("/mood/{entryID}", handlers.DeleteMoodEntry)
			r.Get("/mood/patient/{patientID}", handlers.ListPatientMoodEntries)

			r.Post("/medications", handlers.CreateMedication)
			r.Get("/medications", handlers.ListMedications)
			r.Get("/medications/today", handlers.TodayMedications)
			r.Put("/medications/{medicationID}", handlers.UpdateMedication)
			r.Delete("/medications/{medicationID}", handlers.DeleteMedication)
			r.Get("/medications/patient/{patientID}", handlers.ListPatientMedications)

			r.Post("/messages", handlers.SendMessage)
			r.Get("/messages/conversations", handlers.ListConversations)
			r.Get("/messages/unread-count", handlers.UnreadMessageCount)
			r.Put("/messages/mark-read/{userID}", handlers.MarkMessagesRead)
			r.Get("/messages/{userID}", handlers.ListMessagesWith)

			r.Get("/notifications", handlers.ListNotifications)
			r.Get("/notifications/unread-count", handlers.UnreadNotificationCount)
			r.Put("/notifications/read-all", handlers.MarkAllNotificationsRead)
			r.Put("/notifications/{notificationID}/read", handlers.MarkNotificationRead)
			r.Delete("/notifications/{notificationID}", handlers.DeleteNotification)
			r.Post("/notifications/medication-reminder", handlers.MedicationReminderSweep)
		})
	})

	return r
}
