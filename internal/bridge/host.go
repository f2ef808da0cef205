package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Handler answers one action. Returned errors become unsuccessful results.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Host serves registered actions on a Conn.
type Host struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewHost() *Host {
	return &Host{handlers: make(map[string]Handler)}
}

func (h *Host) Handle(action string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[action] = handler
}

// Actions lists the registered action names.
func (h *Host) Actions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	actions := make([]string, 0, len(h.handlers))
	for action := range h.handlers {
		actions = append(actions, action)
	}
	return actions
}

// Serve announces readiness and answers requests concurrently until the
// connection closes or ctx is done.
func (h *Host) Serve(ctx context.Context, conn Conn) error {
	if err := conn.Send(ctx, Message{Type: TypeReady}); err != nil {
		return fmt.Errorf("conn.Send(%s) > %w", TypeReady, err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		msg, err := conn.Receive(ctx)
		if errors.Is(err, ErrInvalidMessage) {
			slog.Default().Warn("skipping undecodable bridge message", "error", err)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("conn.Receive() > %w", err)
		}
		if msg.Type != TypeRequest {
			continue
		}

		wg.Add(1)
		go func(msg Message) {
			defer wg.Done()
			result := h.answer(ctx, msg)
			response := Message{Type: TypeResponse, RequestID: msg.RequestID, Result: result}
			if err := conn.Send(ctx, response); err != nil {
				slog.Default().Warn("failed to send bridge response",
					"action", msg.Action,
					"requestId", msg.RequestID,
					"error", err,
				)
			}
		}(msg)
	}
}

func (h *Host) answer(ctx context.Context, msg Message) json.RawMessage {
	h.mu.RLock()
	handler, ok := h.handlers[msg.Action]
	h.mu.RUnlock()
	if !ok {
		return encodeFailure(errUnknownAction)
	}

	value, err := handler(ctx, msg.Payload)
	if err != nil {
		slog.Default().Debug("bridge action failed", "action", msg.Action, "error", err)
		return encodeFailure(err.Error())
	}
	body, err := json.Marshal(value)
	if err != nil {
		return encodeFailure(fmt.Sprintf("json.Marshal() > %v", err))
	}
	return body
}

func encodeFailure(message string) json.RawMessage {
	body, _ := Failure(message).MarshalJSON()
	return body
}
