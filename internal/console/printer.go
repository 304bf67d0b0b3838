package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/nerrad567/mqttconsole/internal/infrastructure/config"
)

// Fixed console text.
const (
	Farewell      = "Thanks for playing!"
	InvalidInput  = "Invalid input. Format should be:  [topic] [message]"
	QueueIsClosed = "Queue is closed. Time to go"
	ReservedTopic = "Topic 'quit' is reserved: the publisher stops instead of sending"
)

// Printer writes console output. It is safe for concurrent use: the direct
// session prints from its delivery goroutine while the Loop prints from its own.
type Printer struct {
	mu sync.Mutex
	w  io.Writer

	label  *color.Color
	notice *color.Color
	info   *color.Color
}

// NewPrinter returns a Printer writing to w. With colour disabled the output
// is plain text; otherwise fatih/color decides based on the terminal.
func NewPrinter(w io.Writer, colour bool) *Printer {
	p := &Printer{
		w:      w,
		label:  color.New(color.FgCyan, color.Bold),
		notice: color.New(color.FgYellow),
		info:   color.New(color.FgGreen),
	}
	if !colour {
		p.label.DisableColor()
		p.notice.DisableColor()
		p.info.DisableColor()
	}
	return p
}

// Received prints one inbound message:
//
//	Client 1 : Received message 'ping' on topic 'all/test'
func (p *Printer) Received(label, topic, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s : Received message '%s' on topic '%s'\n", p.label.Sprint(label), message, topic)
}

// Notice prints a highlighted one-line notice.
func (p *Printer) Notice(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice.Fprintln(p.w, msg)
}

// Info prints a one-line message.
func (p *Printer) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info.Fprintln(p.w, msg)
}

// Banner prints the usage text for the two sessions.
func (p *Printer) Banner(queued, direct config.SessionConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, "Please type a message in the form of [topic/path] [my message]")
	fmt.Fprintln(p.w, "Topic can contain / but no spaces.  Message can contain spaces.")
	for _, s := range []config.SessionConfig{queued, direct} {
		fmt.Fprintf(p.w, "%s is subscribed to %s\n", p.label.Sprint(s.Label), joinTopics(s.Topics()))
	}
	p.info.Fprintln(p.w, "Start a line with . to quit")
}

// joinTopics renders ["a", "b", "c"] as "a, b and c".
func joinTopics(topics []string) string {
	switch len(topics) {
	case 0:
		return "nothing"
	case 1:
		return topics[0]
	}
	return strings.Join(topics[:len(topics)-1], ", ") + " and " + topics[len(topics)-1]
}
