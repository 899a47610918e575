package app

import (
	"net/http"
	"time"

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

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg := config.Load(log)

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	log.Info("app: running migrations")
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}

	tokens, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return nil, err
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

	log.Info("app: initializing router")
	handlers := handler.New(userSvc, relationshipSvc, moodSvc, medicationSvc, messagingSvc, notificationSvc, tokens, log)
	router := httpserver.NewRouter(cfg, handlers, authmw.NewJWTAuth(tokens))

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) ShutdownTimeout() time.Duration {
	return a.cfg.ShutdownTimeout
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
