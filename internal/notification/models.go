// internal/notification/models.go

package notifications

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents different notification types
type NotificationType string

const (
	TypeMatch   NotificationType = "match"
	TypeMessage NotificationType = "message"
)

// Record is a notification intent handed to the external delivery system
type Record struct {
	ID          string            `json:"id"`
	Type        NotificationType  `json:"type"`
	RecipientID string            `json:"recipientId"`
	ActorID     string            `json:"actorId"`
	MatchID     string            `json:"matchId"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// NewRecord builds a record with a fresh id
func NewRecord(t NotificationType, recipientID, actorID, matchID string, now time.Time) *Record {
	r := &Record{
		ID:          uuid.NewString(),
		Type:        t,
		RecipientID: recipientID,
		ActorID:     actorID,
		MatchID:     matchID,
		CreatedAt:   now.UTC(),
		Data: map[string]string{
			"matchId": matchID,
			"type":    string(t),
		},
	}
	switch t {
	case TypeMatch:
		r.Title = "It's a match!"
		r.Body = "You have a new match. Say hello!"
	case TypeMessage:
		r.Title = "New message"
		r.Body = "You have a new message waiting."
	}
	return r
}

func dedupeKey(t NotificationType, recipientID, matchID string) string {
	return "notify:" + string(t) + ":" + recipientID + ":" + matchID
}
