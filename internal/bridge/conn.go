package bridge

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Conn carries messages between the two sides of a bridge.
type Conn interface {
	Send(ctx context.Context, msg Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

type pipeConn struct {
	in     <-chan Message
	out    chan<- Message
	closed chan struct{}
	once   *sync.Once
}

// Pipe returns two connected in-memory ends. Closing either end closes both.
func Pipe() (Conn, Conn) {
	aToB := make(chan Message, 16)
	bToA := make(chan Message, 16)
	closed := make(chan struct{})
	once := &sync.Once{}
	return &pipeConn{in: bToA, out: aToB, closed: closed, once: once},
		&pipeConn{in: aToB, out: bToA, closed: closed, once: once}
}

func (c *pipeConn) Send(ctx context.Context, msg Message) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case c.out <- msg:
		return nil
	case <-c.closed:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *pipeConn) Receive(ctx context.Context) (Message, error) {
	select {
	case msg := <-c.in:
		return msg, nil
	case <-c.closed:
		return Message{}, io.EOF
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (c *pipeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// MaxMessageSize bounds a single framed message.
const MaxMessageSize = 1 << 20

// ErrInvalidMessage marks a frame that could not be decoded. The connection
// stays usable and the next Receive reads the following frame.
var ErrInvalidMessage = errors.New("invalid bridge message")

var ErrMessageTooLarge = fmt.Errorf("%w: exceeds the size limit", ErrInvalidMessage)

// StreamConn frames messages as a little-endian uint32 length followed by JSON,
// the layout browsers use for native messaging hosts.
type StreamConn struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
	wmu    sync.Mutex
}

func NewStreamConn(r io.Reader, w io.Writer) *StreamConn {
	conn := &StreamConn{reader: bufio.NewReader(r), writer: w}
	if c, ok := w.(io.Closer); ok {
		conn.closer = c
	}
	return conn
}

func (c *StreamConn) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("json.Marshal() > %w", err)
	}
	if len(body) > MaxMessageSize {
		return ErrMessageTooLarge
	}

	frame := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.writer.Write(frame); err != nil {
		return fmt.Errorf("writer.Write() > %w", err)
	}
	return nil
}

// Receive blocks on the underlying reader; ctx is only checked before reading.
func (c *StreamConn) Receive(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	var header [4]byte
	if _, err := io.ReadFull(c.reader, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Message{}, io.EOF
		}
		return Message{}, err
	}
	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxMessageSize {
		if _, err := io.CopyN(io.Discard, c.reader, int64(size)); err != nil {
			slog.Default().Debug("bridge stream ended inside an oversized frame", "size", size, "error", err)
		}
		return Message{}, ErrMessageTooLarge
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(c.reader, body); err != nil {
		return Message{}, fmt.Errorf("io.ReadFull() > %w", err)
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: json.Unmarshal(%s) > %w", ErrInvalidMessage, body, err)
	}
	return msg, nil
}

func (c *StreamConn) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
