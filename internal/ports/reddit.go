package ports

import (
	"context"

	"github.com/bnema/streamwatch/internal/domain"
)

type Authenticator interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (domain.Token, error)
}

type SubmissionFeed interface {
	// NewSubmissions returns the newest submissions of author, newest first.
	NewSubmissions(ctx context.Context, author string, limit int) ([]domain.Submission, error)
}

type Inbox interface {
	UnreadMessages(ctx context.Context) ([]domain.PrivateMessage, error)
	MarkRead(ctx context.Context, fullnames ...string) error
}

type ThreadReader interface {
	// Comments returns every comment of the thread, flattened.
	Comments(ctx context.Context, threadID string) ([]domain.Comment, error)
}

type Classifier interface {
	// Classify reports ClassUnknown with a nil error when the id does not exist.
	Classify(ctx context.Context, id string) (domain.Classification, error)
	CommentCount(ctx context.Context, threadID string) (int, error)
}

type AddressResolver interface {
	SocketAddress(ctx context.Context, discussionID string) (string, error)
}

type Messenger interface {
	Reply(ctx context.Context, to domain.Handle, text string) error
	SendMessage(ctx context.Context, to, subject, body string) error
	UserExists(ctx context.Context, name string) (bool, error)
}

// RedditAPI is the authenticated upstream client as one value.
type RedditAPI interface {
	SubmissionFeed
	Inbox
	ThreadReader
	Classifier
	AddressResolver
	Messenger
	Identity(ctx context.Context) (string, error)
}
