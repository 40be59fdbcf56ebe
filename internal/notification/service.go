// internal/notification/service.go

package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/imadgeboyega/datescape-backend/internal/common/logger"
)

// Service emits deduplicated notification intents for match lifecycle events
type Service interface {
	// SendMatchNotification notifies each recipient at most once per match
	SendMatchNotification(ctx context.Context, matchID string, recipients ...string) (int, error)
	// SendMessageNotification notifies the recipient once until the marker is acknowledged
	SendMessageNotification(ctx context.Context, matchID, senderID, recipientID string) (bool, error)
	// AcknowledgeMessages clears the message marker after the recipient has read the chat
	AcknowledgeMessages(ctx context.Context, matchID, recipientID string) error
}

type service struct {
	emitter Emitter
	dedupe  Deduper
	log     *logger.Logger
	now     func() time.Time
}

// NewService wires an emitter and a dedupe store
func NewService(emitter Emitter, dedupe Deduper, log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}
	if dedupe == nil {
		dedupe = NewMemoryDeduper()
	}
	return &service{emitter: emitter, dedupe: dedupe, log: log, now: time.Now}
}

func (s *service) SendMatchNotification(ctx context.Context, matchID string, recipients ...string) (int, error) {
	sent := 0
	for _, recipient := range recipients {
		other := ""
		for _, r := range recipients {
			if r != recipient {
				other = r
			}
		}
		ok, err := s.send(ctx, NewRecord(TypeMatch, recipient, other, matchID, s.now()))
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (s *service) SendMessageNotification(ctx context.Context, matchID, senderID, recipientID string) (bool, error) {
	return s.send(ctx, NewRecord(TypeMessage, recipientID, senderID, matchID, s.now()))
}

func (s *service) AcknowledgeMessages(ctx context.Context, matchID, recipientID string) error {
	return s.dedupe.Clear(ctx, dedupeKey(TypeMessage, recipientID, matchID))
}

func (s *service) send(ctx context.Context, record *Record) (bool, error) {
	key := dedupeKey(record.Type, record.RecipientID, record.MatchID)
	fresh, err := s.dedupe.MarkOnce(ctx, key)
	if err != nil {
		return false, err
	}
	if !fresh {
		s.log.Debug("notification already sent", "type", record.Type, "recipient_id", record.RecipientID, "match_id", record.MatchID)
		return false, nil
	}
	if err := s.emitter.Emit(ctx, record); err != nil {
		// release the marker so a later attempt can deliver it
		if clearErr := s.dedupe.Clear(ctx, key); clearErr != nil {
			s.log.Warn("failed to release notification marker", "key", key, "error", clearErr)
		}
		return false, fmt.Errorf("emit %s notification: %w", record.Type, err)
	}
	return true, nil
}
