package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID                 int64                  `json:"id"`
	EventTime          time.Time              `json:"event_time"`
	ActorParticipantID *uuid.UUID             `json:"actor_participant_id,omitempty"`
	ActorRole          string                 `json:"actor_role"`
	EventID            *uuid.UUID             `json:"event_id,omitempty"`
	EventType          string                 `json:"event_type"`
	Payload            map[string]interface{} `json:"payload"`
}

const (
	ActorRoleSystem = "system"
)

const (
	EventTypeConversationCreated  = "CONVERSATION_CREATED"
	EventTypeConversationClosed   = "CONVERSATION_CLOSED"
	EventTypeConversationReopened = "CONVERSATION_REOPENED"
	EventTypeMessageSent          = "MESSAGE_SENT"
	EventTypeMessagesRead         = "MESSAGES_READ"
)
