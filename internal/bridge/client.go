package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultReadyTimeout   = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

type pending struct {
	done  chan Result
	timer *time.Timer
}

// Client sends requests over a Conn and matches responses by request id.
// Every request resolves exactly once: by its response, by its timeout, or by Close.
type Client struct {
	conn           Conn
	requestTimeout time.Duration
	readyTimeout   time.Duration

	mu      sync.Mutex
	nextID  int64
	pending map[int64]*pending
	dropped int
	closed  bool

	ready     chan struct{}
	readyOnce sync.Once
	waitOnce  sync.Once
	closeOnce sync.Once
}

type ClientOption func(*Client)

func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

func WithReadyTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.readyTimeout = timeout
		}
	}
}

func NewClient(conn Conn, options ...ClientOption) *Client {
	client := &Client{
		conn:           conn,
		requestTimeout: DefaultRequestTimeout,
		readyTimeout:   DefaultReadyTimeout,
		pending:        make(map[int64]*pending),
		ready:          make(chan struct{}),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Run reads messages until the connection ends or ctx is done. Frames that
// cannot be decoded are skipped. When it returns the client is closed:
// pending requests are failed and later ones fail immediately.
func (c *Client) Run(ctx context.Context) error {
	defer c.shutdown()
	for {
		msg, err := c.conn.Receive(ctx)
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
		c.dispatch(msg)
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.failAll(errBridgeClosed)
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeReady:
		c.readyOnce.Do(func() { close(c.ready) })
	case TypeResponse:
		p := c.take(msg.RequestID)
		if p == nil {
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
			slog.Default().Debug("dropping response without a pending request", "requestId", msg.RequestID)
			return
		}
		p.done <- parseResult(msg.Result)
	default:
		slog.Default().Debug("ignoring bridge message", "type", msg.Type)
	}
}

// take removes the pending request so that only one resolver can complete it.
func (c *Client) take(id int64) *pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	if p.timer != nil {
		p.timer.Stop()
	}
	return p
}

// Ready blocks until the host announced itself or the ready timeout passes.
func (c *Client) Ready(ctx context.Context) bool {
	select {
	case <-c.ready:
		return true
	default:
	}
	timer := time.NewTimer(c.readyTimeout)
	defer timer.Stop()
	select {
	case <-c.ready:
		return true
	case <-timer.C:
		slog.Default().Warn("bridge host did not announce readiness", "timeout", c.readyTimeout)
		return false
	case <-ctx.Done():
		return false
	}
}

// Request sends action with payload and waits for its result. Transport problems
// and timeouts are reported as unsuccessful results, never as panics.
// The first request waits for the ready handshake; it is sent even if the host stays silent.
func (c *Client) Request(ctx context.Context, action string, payload any) Result {
	c.waitOnce.Do(func() { c.Ready(ctx) })

	body, err := json.Marshal(payload)
	if err != nil {
		return Failure(fmt.Sprintf("json.Marshal() > %v", err))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Failure(errBridgeClosed)
	}
	c.nextID++
	id := c.nextID
	p := &pending{done: make(chan Result, 1)}
	c.pending[id] = p
	p.timer = time.AfterFunc(c.requestTimeout, func() {
		if timedOut := c.take(id); timedOut != nil {
			slog.Default().Warn("bridge request timed out", "action", action, "requestId", id)
			timedOut.done <- Failure(errTimeout)
		}
	})
	c.mu.Unlock()

	msg := Message{Type: TypeRequest, Action: action, Payload: body, RequestID: id}
	if err := c.conn.Send(ctx, msg); err != nil {
		if failed := c.take(id); failed != nil {
			return Failure(fmt.Sprintf("conn.Send() > %v", err))
		}
	}

	select {
	case result := <-p.done:
		return result
	case <-ctx.Done():
		if cancelled := c.take(id); cancelled != nil {
			return Failure(ctx.Err().Error())
		}
		return <-p.done
	}
}

// Pending is the number of requests waiting for a result.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Dropped counts responses that arrived after their request was resolved or for unknown ids.
func (c *Client) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Client) failAll(reason string) {
	c.mu.Lock()
	all := c.pending
	c.pending = make(map[int64]*pending)
	c.mu.Unlock()
	for _, p := range all {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.done <- Failure(reason)
	}
}

// Close fails every pending request and closes the connection.
func (c *Client) Close() error {
	c.shutdown()
	var err error
	c.closeOnce.Do(func() { err = c.conn.Close() })
	return err
}
