package handler

import (
	"therapy-support-go/internal/auth"
	medicationdomain "therapy-support-go/internal/domain/medication"
	messagingdomain "therapy-support-go/internal/domain/messaging"
	mooddomain "therapy-support-go/internal/domain/mood"
	notificationdomain "therapy-support-go/internal/domain/notification"
	relationshipdomain "therapy-support-go/internal/domain/relationship"
	userdomain "therapy-support-go/internal/domain/user"
	"therapy-support-go/pkg/logger"
)

type Handlers struct {
	Users         *userdomain.Service
	Relationships *relationshipdomain.Service
	Mood          *mooddomain.Service
	Medications   *medicationdomain.Service
	Messages      *messagingdomain.Service
	Notifications *notificationdomain.Service

	tokens *auth.Manager
	log    logger.Logger
}

func New(
	users *userdomain.Service,
	relationships *relationshipdomain.Service,
	mood *mooddomain.Service,
	medications *medicationdomain.Service,
	messages *messagingdomain.Service,
	notifications *notificationdomain.Service,
	tokens *auth.Manager,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Users:         users,
		Relationships: relationships,
		Mood:          mood,
		Medications:   medications,
		Messages:      messages,
		Notifications: notifications,
		tokens:        tokens,
		log:           log,
	}
}
