package domain

import "fmt"

type MessageContext int

const (
	ContextInbox MessageContext = iota
	ContextThread
	ContextLive
)

func (c MessageContext) String() string {
	switch c {
	case ContextInbox:
		return "inbox"
	case ContextThread:
		return "thread"
	case ContextLive:
		return "live"
	default:
		return "unknown"
	}
}

func ParseMessageContext(raw string) (MessageContext, error) {
	switch raw {
	case "inbox":
		return ContextInbox, nil
	case "thread", "post":
		return ContextThread, nil
	case "live", "stream":
		return ContextLive, nil
	default:
		return 0, fmt.Errorf("unknown message context %q", raw)
	}
}

// SourceKind is the closed set of event sources feeding the pipeline.
type SourceKind int

const (
	SourceInbox SourceKind = iota
	SourceLiveFeed
	SourceThreadPoll
	SourceSocket
)

func (k SourceKind) String() string {
	switch k {
	case SourceInbox:
		return "inbox"
	case SourceLiveFeed:
		return "live_feed"
	case SourceThreadPoll:
		return "thread_poll"
	case SourceSocket:
		return "socket"
	default:
		return "unknown"
	}
}

// Handle references the upstream thing a reply is posted to (t1_ comment, t4_ message).
type Handle struct {
	Fullname string
}

func (h Handle) IsZero() bool {
	return h.Fullname == ""
}

type NormalizedMessage struct {
	Handle   Handle
	Body     string
	Author   string
	Context  MessageContext
	ThreadID string
}

// Where renders the message origin for log lines.
func (m NormalizedMessage) Where() string {
	if m.ThreadID == "" {
		return m.Context.String()
	}
	return m.Context.String() + " at " + m.ThreadID
}
