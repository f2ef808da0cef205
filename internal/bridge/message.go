// Package bridge exchanges correlated request/response messages with a capability host.
package bridge

import (
	"encoding/json"
	"fmt"
)

type MessageType string

const (
	TypeRequest  MessageType = "REQUEST"
	TypeResponse MessageType = "RESPONSE"
	TypeReady    MessageType = "BRIDGE_READY"
)

// Message is the wire envelope shared by both sides of the bridge.
type Message struct {
	Type      MessageType     `json:"type"`
	Action    string          `json:"action,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID int64           `json:"requestId,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

const (
	errTimeout       = "timeout"
	errBridgeClosed  = "bridge closed"
	errUnknownAction = "Unknown action"
)

// Result is the outcome of a request. The full JSON object is kept so callers
// can decode their action specific fields.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	raw     json.RawMessage
}

// Failure builds an unsuccessful result carrying message.
func Failure(message string) Result {
	raw, _ := json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{Success: false, Error: message})
	return Result{Success: false, Error: message, raw: raw}
}

// TimedOut reports whether the bridge gave up waiting for the response.
func (r Result) TimedOut() bool {
	return !r.Success && r.Error == errTimeout
}

// Decode unmarshals the whole result object into v.
func (r Result) Decode(v any) error {
	if len(r.raw) == 0 {
		return fmt.Errorf("empty result")
	}
	if err := json.Unmarshal(r.raw, v); err != nil {
		return fmt.Errorf("json.Unmarshal(%s) > %w", r.raw, err)
	}
	return nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	type plain Result
	return json.Marshal(plain(r))
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	r.Success = envelope.Success
	r.Error = envelope.Error
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

func parseResult(raw json.RawMessage) Result {
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return Failure(fmt.Sprintf("malformed result: %v", err))
	}
	return result
}
