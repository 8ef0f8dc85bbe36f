package domain

import (
	"strings"
	"time"
)

type Classification int

const (
	ClassUnknown Classification = iota
	ClassDiscussion
	ClassThread
)

func (c Classification) String() string {
	switch c {
	case ClassDiscussion:
		return "discussion"
	case ClassThread:
		return "thread"
	default:
		return "unknown"
	}
}

type Submission struct {
	ID                string
	Fullname          string
	Title             string
	Subreddit         string
	Author            string
	Shortlink         string
	AllowLiveComments bool
	NumComments       int
	CreatedAt         time.Time
}

type Comment struct {
	ID        string
	Fullname  string
	Author    string
	Body      string
	ThreadID  string
	CreatedAt time.Time
}

type PrivateMessage struct {
	ID       string
	Fullname string
	Author   string
	Subject  string
	Body     string
}

// LiveEvent is one decoded payload read from a push socket.
type LiveEvent struct {
	Type      string
	CommentID string
	Author    string
	Body      string
	LinkID    string
}

const LiveEventNewComment = "new_comment"

func (e LiveEvent) IsComment() bool {
	return e.Type == LiveEventNewComment
}

// ThreadID strips the kind prefix from the link fullname ("t3_abc" -> "abc").
func (e LiveEvent) ThreadID() string {
	if _, id, ok := strings.Cut(e.LinkID, "_"); ok {
		return id
	}
	return e.LinkID
}
