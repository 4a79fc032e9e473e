package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/akegaviar/graph-node/internal/ethereum"
	"github.com/akegaviar/graph-node/pkg/common/logger"
)

// ChainEvent is the envelope published for every chain observation.
type ChainEvent struct {
	Type      string `json:"type"`
	Network   string `json:"network"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type Emitter interface {
	EmitHead(network string, head ethereum.BlockPtr) error
	EmitError(network string, err error) error
	Emit(event ChainEvent) error
	Close()
}

// Queue is the transport the emitter publishes through. *nats.Conn
// satisfies it.
type Queue interface {
	Publish(subject string, data []byte) error
	Drain() error
}

type emitter struct {
	queue         Queue
	subjectPrefix string
}

// NewEmitter wraps an existing queue connection.
func NewEmitter(queue Queue, subjectPrefix string) Emitter {
	if subjectPrefix == "" {
		subjectPrefix = "chain.events"
	}
	return &emitter{queue: queue, subjectPrefix: subjectPrefix}
}

// Connect dials NATS with endless reconnects and returns an Emitter
// publishing under subjectPrefix.
func Connect(url, subjectPrefix string) (Emitter, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1), // retry forever
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectHandler(func(nc *nats.Conn) {
			logger.Warn("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return NewEmitter(conn, subjectPrefix), nil
}

func (e *emitter) EmitHead(network string, head ethereum.BlockPtr) error {
	return e.Emit(ChainEvent{
		Type:      "head",
		Network:   network,
		Data:      head,
		Timestamp: time.Now().UTC().Unix(),
	})
}

func (e *emitter) EmitError(network string, err error) error {
	payload := map[string]string{}
	if err != nil {
		payload["message"] = err.Error()
	}
	return e.Emit(ChainEvent{
		Type:      "error",
		Network:   network,
		Data:      payload,
		Timestamp: time.Now().UTC().Unix(),
	})
}

func (e *emitter) Emit(event ChainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.%s.%s", e.subjectPrefix, event.Network, event.Type)
	return e.queue.Publish(subject, data)
}

func (e *emitter) Close() {
	if e.queue != nil {
		e.queue.Drain() //nolint:errcheck
	}
}

// Noop returns an Emitter that discards every event, for runs without
// a message bus.
func Noop() Emitter { return noopEmitter{} }

type noopEmitter struct{}

func (noopEmitter) EmitHead(string, ethereum.BlockPtr) error { return nil }
func (noopEmitter) EmitError(string, error) error { return nil }
func (noopEmitter) Emit(ChainEvent) error { return nil }
func (noopEmitter) Close() {}
