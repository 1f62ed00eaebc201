package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation - чат, привязанный 1:1 к записи на прием (event_id служит первичным ключом).
type Conversation struct {
	EventID            uuid.UUID  `json:"event_id"`
	OwnerParticipantID *uuid.UUID `json:"owner_participant_id,omitempty"`
	VetParticipantID   *uuid.UUID `json:"vet_participant_id,omitempty"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
}

type Message struct {
	ID         int64     `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
}

const (
	ConversationStatusOpen   = "open"
	ConversationStatusClosed = "closed"
)

const (
	RoleOwner     = "owner"
	RoleVet       = "vet"
	RoleScheduler = "scheduler"
)

// MaxMessageLength - максимальная длина текста сообщения в рунах.
const MaxMessageLength = 500

func (c *Conversation) IsClosed() bool {
	return c.Status == ConversationStatusClosed
}

// ValidSenderRole - роли, от имени которых можно отправлять сообщения.
// Планировщик управляет жизненным циклом, но писать в чат не может.
func ValidSenderRole(role string) bool {
	return role == RoleOwner || role == RoleVet
}
