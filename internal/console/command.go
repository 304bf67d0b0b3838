package console

import "strings"

// Kind classifies an input line.
type Kind int

const (
	// KindEmpty is a blank line.
	KindEmpty Kind = iota
	// KindQuit is any line starting with ".".
	KindQuit
	// KindPublish is a line with at least one space.
	KindPublish
	// KindInvalid is anything else.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindQuit:
		return "quit"
	case KindPublish:
		return "publish"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Command is a parsed input line. Topic and Message are set for KindPublish only.
type Command struct {
	Kind    Kind
	Topic   string
	Message string
}

// ParseLine classifies line. The topic is the text before the first space and
// the message is everything after it, internal spaces included. A line that
// starts with a space therefore has an empty topic.
func ParseLine(line string) Command {
	switch {
	case line == "":
		return Command{Kind: KindEmpty}
	case strings.HasPrefix(line, "."):
		return Command{Kind: KindQuit}
	}

	topic, message, found := strings.Cut(line, " ")
	if !found {
		return Command{Kind: KindInvalid}
	}
	return Command{Kind: KindPublish, Topic: topic, Message: message}
}
