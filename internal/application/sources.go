package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

const (
	defaultFeedLimit = 25
	seenCapacity     = 300
)

// Batch is what one source produced in one poll.
type Batch struct {
	Source   domain.SourceKind
	Messages []domain.NormalizedMessage
	Updates  []domain.UpdateSignal
}

// Source is a pull adapter polled once per cycle. Reset drops its transient
// cursor after a failed poll.
type Source interface {
	Kind() domain.SourceKind
	Poll(ctx context.Context) (Batch, error)
	Reset()
}

// seenSet remembers the most recent ids in insertion order.
type seenSet struct {
	capacity int
	order    []string
	ids      map[string]struct{}
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{capacity: capacity, ids: make(map[string]struct{}, capacity)}
}

func (s *seenSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *seenSet) Add(id string) {
	if s.Has(id) {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	if len(s.order) > s.capacity {
		delete(s.ids, s.order[0])
		s.order = s.order[1:]
	}
}

// LiveFeed watches the publisher's submissions and arms live discussions.
type LiveFeed struct {
	feed       ports.SubmissionFeed
	announcer  *Announcer
	state      *BotState
	publisher  string
	subreddits map[string]struct{}
	limit      int
	logger     zerolog.Logger

	seen      *seenSet
	primed    bool
	watermark time.Time
}

func NewLiveFeed(feed ports.SubmissionFeed, announcer *Announcer, state *BotState, publisher string, subreddits []string, logger zerolog.Logger) *LiveFeed {
	allowed := make(map[string]struct{}, len(subreddits))
	for _, subreddit := range subreddits {
		allowed[strings.ToLower(subreddit)] = struct{}{}
	}
	return &LiveFeed{
		feed:       feed,
		announcer:  announcer,
		state:      state,
		publisher:  publisher,
		subreddits: allowed,
		limit:      defaultFeedLimit,
		logger:     logger.With().Str("source", domain.SourceLiveFeed.String()).Logger(),
		seen:       newSeenSet(seenCapacity),
	}
}

func (f *LiveFeed) Kind() domain.SourceKind {
	return domain.SourceLiveFeed
}

// Reset forces a re-prime. Submissions newer than the last one handled are
// still admitted after the re-prime.
func (f *LiveFeed) Reset() {
	f.primed = false
}

func (f *LiveFeed) Poll(ctx context.Context) (Batch, error) {
	batch := Batch{Source: domain.SourceLiveFeed}

	submissions, err := f.feed.NewSubmissions(ctx, f.publisher, f.limit)
	if err != nil {
		return batch, fmt.Errorf("list submissions of %s: %w", f.publisher, err)
	}
	sort.SliceStable(submissions, func(i, j int) bool {
		return submissions[i].CreatedAt.Before(submissions[j].CreatedAt)
	})

	if !f.primed {
		f.prime(submissions)
	}

	for _, submission := range submissions {
		if f.seen.Has(submission.ID) {
			continue
		}
		f.seen.Add(submission.ID)
		if submission.CreatedAt.After(f.watermark) {
			f.watermark = submission.CreatedAt
		}

		if !f.admits(submission) {
			continue
		}
		if f.state.Discussions.Monitor(submission.ID) {
			batch.Updates = append(batch.Updates, domain.Persist(domain.TargetDiscussions))
		}
		f.logger.Info().
			Str("discussion", submission.ID).
			Str("subreddit", submission.Subreddit).
			Str("shortlink", submission.Shortlink).
			Msg("publisher_live")

		if err := f.announcer.Announce(ctx, submission); err != nil {
			return batch, err
		}
	}

	return batch, nil
}

func (f *LiveFeed) prime(submissions []domain.Submission) {
	first := f.watermark.IsZero()
	for _, submission := range submissions {
		if first || !submission.CreatedAt.After(f.watermark) {
			f.seen.Add(submission.ID)
		}
		if first && submission.CreatedAt.After(f.watermark) {
			f.watermark = submission.CreatedAt
		}
	}
	f.primed = true
	f.logger.Debug().Int("skipped", len(submissions)).Time("watermark", f.watermark).Msg("feed_primed")
}

func (f *LiveFeed) admits(submission domain.Submission) bool {
	if _, ok := f.subreddits[strings.ToLower(submission.Subreddit)]; !ok {
		f.logger.Debug().Str("submission", submission.ID).Str("subreddit", submission.Subreddit).Msg("submission_outside_allow_list")
		return false
	}
	if !submission.AllowLiveComments {
		f.logger.Debug().Str("submission", submission.ID).Msg("submission_without_live_comments")
		return false
	}
	return true
}

// Announcer fans a live submission out to subscribers and the webhook.
type Announcer struct {
	messenger ports.Messenger
	notifier  ports.Notifier
	state     *BotState
	publisher string
	logger    zerolog.Logger
}

func NewAnnouncer(messenger ports.Messenger, notifier ports.Notifier, state *BotState, publisher string, logger zerolog.Logger) *Announcer {
	return &Announcer{
		messenger: messenger,
		notifier:  notifier,
		state:     state,
		publisher: publisher,
		logger:    logger,
	}
}

func (a *Announcer) Announce(ctx context.Context, submission domain.Submission) error {
	subscribers := a.state.Users.Subscribers()
	body := fmt.Sprintf("[%s](%s)", submission.Title, submission.Shortlink)

	for _, subscriber := range subscribers {
		subject := fmt.Sprintf("Hi %s, %s is live on %s!", subscriber, a.publisher, submission.Subreddit)
		if err := a.messenger.SendMessage(ctx, subscriber, subject, body); err != nil {
			if isRateLimited(err) {
				return err
			}
			a.logger.Warn().Err(err).Str("subscriber", subscriber).Msg("live_message_failed")
			continue
		}
		a.logger.Debug().Str("subscriber", subscriber).Msg("live_message_sent")
	}

	if a.notifier != nil {
		if err := a.notifier.AnnounceLive(ctx, submission); err != nil {
			if isRateLimited(err) {
				return err
			}
			a.logger.Warn().Err(err).Str("discussion", submission.ID).Msg("webhook_failed")
		}
	}

	a.logger.Info().Str("discussion", submission.ID).Int("subscribers", len(subscribers)).Msg("live_announced")
	return nil
}

// InboxFeed turns unread private messages into inbox-context messages.
type InboxFeed struct {
	inbox  ports.Inbox
	logger zerolog.Logger
	seen   *seenSet
}

func NewInboxFeed(inbox ports.Inbox, logger zerolog.Logger) *InboxFeed {
	return &InboxFeed{
		inbox:  inbox,
		logger: logger.With().Str("source", domain.SourceInbox.String()).Logger(),
		seen:   newSeenSet(seenCapacity),
	}
}

func (f *InboxFeed) Kind() domain.SourceKind {
	return domain.SourceInbox
}

func (f *InboxFeed) Reset() {
	f.seen = newSeenSet(seenCapacity)
}

func (f *InboxFeed) Poll(ctx context.Context) (Batch, error) {
	batch := Batch{Source: domain.SourceInbox}

	unread, err := f.inbox.UnreadMessages(ctx)
	if err != nil {
		return batch, fmt.Errorf("list unread messages: %w", err)
	}

	// listings are newest first
	for i := len(unread) - 1; i >= 0; i-- {
		message := unread[i]
		if f.seen.Has(message.Fullname) {
			continue
		}
		f.seen.Add(message.Fullname)
		batch.Messages = append(batch.Messages, domain.NormalizedMessage{
			Handle:  domain.Handle{Fullname: message.Fullname},
			Body:    message.Body,
			Author:  message.Author,
			Context: domain.ContextInbox,
		})
	}

	return batch, nil
}

// Ack marks dispatched messages as read so a restart only re-delivers unhandled mail.
func (f *InboxFeed) Ack(ctx context.Context, handles []domain.Handle) error {
	if len(handles) == 0 {
		return nil
	}
	fullnames := make([]string, 0, len(handles))
	for _, handle := range handles {
		fullnames = append(fullnames, handle.Fullname)
	}
	if err := f.inbox.MarkRead(ctx, fullnames...); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

// ThreadPoller re-reads monitored threads and emits comments past the stored offset.
// Offsets are staged during Poll and only applied by Commit.
type ThreadPoller struct {
	reader  ports.ThreadReader
	state   *BotState
	self    string
	logger  zerolog.Logger
	pending map[string]int
}

func NewThreadPoller(reader ports.ThreadReader, state *BotState, self string, logger zerolog.Logger) *ThreadPoller {
	return &ThreadPoller{
		reader:  reader,
		state:   state,
		self:    self,
		logger:  logger.With().Str("source", domain.SourceThreadPoll.String()).Logger(),
		pending: map[string]int{},
	}
}

func (p *ThreadPoller) Kind() domain.SourceKind {
	return domain.SourceThreadPoll
}

func (p *ThreadPoller) Reset() {
	p.pending = map[string]int{}
}

func (p *ThreadPoller) Poll(ctx context.Context) (Batch, error) {
	batch := Batch{Source: domain.SourceThreadPoll}
	p.pending = map[string]int{}

	for _, threadID := range p.state.Threads.IDs() {
		comments, err := p.reader.Comments(ctx, threadID)
		if err != nil {
			if isRateLimited(err) {
				return batch, err
			}
			p.logger.Warn().Err(err).Str("thread", threadID).Msg("thread_poll_failed")
			continue
		}

		messages := p.fresh(threadID, comments)
		if len(messages) == 0 {
			continue
		}
		batch.Messages = append(batch.Messages, messages...)
		p.pending[threadID] = len(comments)
		p.logger.Debug().Str("thread", threadID).Int("new_comments", len(messages)).Msg("thread_polled")
	}

	return batch, nil
}

func (p *ThreadPoller) fresh(threadID string, comments []domain.Comment) []domain.NormalizedMessage {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	offset, ok := p.state.Threads[threadID]
	if !ok {
		return nil
	}
	if offset > len(comments) {
		offset = len(comments)
	}

	var messages []domain.NormalizedMessage
	for _, comment := range comments[offset:] {
		if strings.EqualFold(comment.Author, p.self) {
			continue
		}
		messages = append(messages, domain.NormalizedMessage{
			Handle:   domain.Handle{Fullname: comment.Fullname},
			Body:     comment.Body,
			Author:   comment.Author,
			Context:  domain.ContextThread,
			ThreadID: threadID,
		})
	}
	return messages
}

// Commit applies staged offsets for threads that are still monitored.
func (p *ThreadPoller) Commit() domain.UpdateSignal {
	advanced := false
	for threadID, seen := range p.pending {
		if p.state.Threads.Advance(threadID, seen) {
			advanced = true
		}
	}
	p.pending = map[string]int{}

	if !advanced {
		return domain.NoUpdate
	}
	return domain.Persist(domain.TargetThreads)
}
