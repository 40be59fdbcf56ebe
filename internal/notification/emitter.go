// internal/notification/emitter.go
// Emitters hand notification records to the delivery system

package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/imadgeboyega/datescape-backend/internal/common/logger"
)

// Emitter publishes a notification record
type Emitter interface {
	Emit(ctx context.Context, record *Record) error
}

// NATSEmitter publishes JSON records on <prefix>.<type>
type NATSEmitter struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSEmitter connects to the NATS server at url
func NewNATSEmitter(url, prefix string) (*NATSEmitter, error) {
	nc, err := nats.Connect(url, nats.Name("datescape-matching"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	if prefix == "" {
		prefix = "notifications"
	}
	return &NATSEmitter{nc: nc, prefix: prefix}, nil
}

// Subject returns the subject a record type is published on
func (e *NATSEmitter) Subject(t NotificationType) string {
	return e.prefix + "." + string(t)
}

func (e *NATSEmitter) Emit(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := e.nc.Publish(e.Subject(record.Type), data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close drains pending publishes and closes the connection
func (e *NATSEmitter) Close() {
	if e.nc != nil {
		_ = e.nc.Drain()
	}
}

// LogEmitter writes records to the log; used when no broker is configured
type LogEmitter struct {
	log *logger.Logger
}

func NewLogEmitter(log *logger.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(ctx context.Context, record *Record) error {
	e.log.Info("notification intent",
		"type", record.Type,
		"recipient_id", record.RecipientID,
		"match_id", record.MatchID,
		"notification_id", record.ID,
	)
	return nil
}

// MemoryEmitter collects records in memory
type MemoryEmitter struct {
	mu      sync.Mutex
	records []*Record
}

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

func (e *MemoryEmitter) Emit(ctx context.Context, record *Record) error {
	e.mu.Lock()
	e.records = append(e.records, record)
	e.mu.Unlock()
	return nil
}

// Records returns a copy of everything emitted so far
func (e *MemoryEmitter) Records() []*Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Record(nil), e.records...)
}
