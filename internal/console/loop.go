package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nerrad567/mqttconsole/internal/queue"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1024 * 1024

// ErrInputClosed is returned by Run when the input reaches end of file
// without a quit command.
var ErrInputClosed = errors.New("console: input closed")

// Inbox is the receive side of the inbound queue.
type Inbox interface {
	TryReceive() (queue.Entry, queue.Status)
}

// Outbox is the send side of the outbound queue.
type Outbox interface {
	Send(ctx context.Context, e queue.Entry) error
}

// Logger defines the logging interface for the loop.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// Loop is the interactive command loop. It is not safe for concurrent use.
type Loop struct {
	scanner *bufio.Scanner
	printer *Printer
	inbox   Inbox
	outbox  Outbox
	label   string
	logger  Logger
}

// New creates a Loop reading lines from in. Messages drained from inbox are
// printed under label; commands are sent to outbox.
func New(in io.Reader, p *Printer, inbox Inbox, outbox Outbox, label string, opts ...Option) *Loop {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	l := &Loop{
		scanner: scanner,
		printer: p,
		inbox:   inbox,
		outbox:  outbox,
		label:   label,
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drains, reads and interprets lines until the operator quits, the
// input ends, a queue closes or ctx is cancelled.
//
// It returns nil after a quit command or when a queue is closed,
// ErrInputClosed at end of input (after sending the quit entry), and
// ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if closed := l.drain(); closed {
			l.printer.Notice(QueueIsClosed)
			return nil
		}

		line, err := l.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.sendQuit(ctx)
				return ErrInputClosed
			}
			return err
		}

		cmd := ParseLine(line)
		switch cmd.Kind {
		case KindEmpty:
		case KindQuit:
			l.sendQuit(ctx)
			l.printer.Info(Farewell)
			return nil
		case KindPublish:
			if cmd.Topic == queue.QuitTopic {
				l.printer.Notice(ReservedTopic)
			}
			l.logger.Debug("sending message to publisher", "topic", cmd.Topic, "bytes", len(cmd.Message))
			err := l.outbox.Send(ctx, queue.Entry{Topic: cmd.Topic, Message: cmd.Message})
			if errors.Is(err, queue.ErrClosed) {
				l.printer.Notice(QueueIsClosed)
				return nil
			}
			if err != nil {
				return err
			}
		case KindInvalid:
			l.printer.Notice(InvalidInput)
		}
	}
}

// drain prints every buffered inbound message. It reports whether the
// inbound queue is closed.
func (l *Loop) drain() bool {
	for {
		e, status := l.inbox.TryReceive()
		switch status {
		case queue.Received:
			l.printer.Received(l.label, e.Topic, e.Message)
		case queue.Closed:
			return true
		default:
			return false
		}
	}
}

// sendQuit asks the publisher to stop. A closed outbox means it already has.
func (l *Loop) sendQuit(ctx context.Context) {
	if err := l.outbox.Send(ctx, queue.Quit()); err != nil {
		l.logger.Debug("quit entry not sent", "error", err)
	}
}

type readResult struct {
	line string
	err  error
}

// readLine blocks for the next line. The scan runs on its own goroutine so
// that ctx can interrupt the wait; that goroutine ends with the next line or
// end of input.
func (l *Loop) readLine(ctx context.Context) (string, error) {
	result := make(chan readResult, 1)
	go func() {
		if l.scanner.Scan() {
			result <- readResult{line: strings.TrimSuffix(l.scanner.Text(), "\r")}
			return
		}
		if err := l.scanner.Err(); err != nil {
			result <- readResult{err: fmt.Errorf("reading input: %w", err)}
			return
		}
		result <- readResult{err: io.EOF}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-result:
		return r.line, r.err
	}
}
