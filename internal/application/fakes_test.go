package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testNow}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

type reply struct {
	Handle string
	Text   string
}

// fakeReddit implements every reddit-facing port with canned data.
type fakeReddit struct {
	submissions    []domain.Submission
	submissionsErr error
	unread         []domain.PrivateMessage
	unreadErr      error
	markedRead     []string
	comments       map[string][]domain.Comment
	commentsErr    map[string]error
	classes        map[string]domain.Classification
	counts         map[string]int
	users          map[string]bool
	addresses      map[string][]string
	addressErr     error
	addressCalls   map[string]int
	replies        []reply
	replyErr       error
	messages       []sentMessage
	messageErr     error
	self           string
}

var _ ports.RedditAPI = (*fakeReddit)(nil)

func newFakeReddit() *fakeReddit {
	return &fakeReddit{
		comments:     map[string][]domain.Comment{},
		commentsErr:  map[string]error{},
		classes:      map[string]domain.Classification{},
		counts:       map[string]int{},
		users:        map[string]bool{},
		addresses:    map[string][]string{},
		addressCalls: map[string]int{},
		self:         "streamwatch-bot",
	}
}

func (r *fakeReddit) NewSubmissions(context.Context, string, int) ([]domain.Submission, error) {
	if r.submissionsErr != nil {
		return nil, r.submissionsErr
	}
	out := make([]domain.Submission, len(r.submissions))
	copy(out, r.submissions)
	return out, nil
}

func (r *fakeReddit) UnreadMessages(context.Context) ([]domain.PrivateMessage, error) {
	if r.unreadErr != nil {
		return nil, r.unreadErr
	}
	return append([]domain.PrivateMessage(nil), r.unread...), nil
}

func (r *fakeReddit) MarkRead(_ context.Context, fullnames ...string) error {
	r.markedRead = append(r.markedRead, fullnames...)
	return nil
}

func (r *fakeReddit) Comments(_ context.Context, threadID string) ([]domain.Comment, error) {
	if err := r.commentsErr[threadID]; err != nil {
		return nil, err
	}
	return append([]domain.Comment(nil), r.comments[threadID]...), nil
}

func (r *fakeReddit) Classify(_ context.Context, id string) (domain.Classification, error) {
	return r.classes[id], nil
}

func (r *fakeReddit) CommentCount(_ context.Context, threadID string) (int, error) {
	return r.counts[threadID], nil
}

// SocketAddress walks the scripted addresses for id; the last one repeats.
func (r *fakeReddit) SocketAddress(_ context.Context, id string) (string, error) {
	r.addressCalls[id]++
	if r.addressErr != nil {
		return "", r.addressErr
	}
	script := r.addresses[id]
	if len(script) == 0 {
		return "", fmt.Errorf("no live comments socket for %s: %w", id, domain.ErrAddressUnavailable)
	}
	address := script[0]
	if len(script) > 1 {
		r.addresses[id] = script[1:]
	}
	return address, nil
}

func (r *fakeReddit) Reply(_ context.Context, to domain.Handle, text string) error {
	if r.replyErr != nil {
		return r.replyErr
	}
	r.replies = append(r.replies, reply{Handle: to.Fullname, Text: text})
	return nil
}

func (r *fakeReddit) SendMessage(_ context.Context, to, subject, body string) error {
	if r.messageErr != nil {
		return r.messageErr
	}
	r.messages = append(r.messages, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (r *fakeReddit) UserExists(_ context.Context, name string) (bool, error) {
	return r.users[name], nil
}

func (r *fakeReddit) Identity(context.Context) (string, error) {
	return r.self, nil
}

func (r *fakeReddit) replyTexts() []string {
	texts := make([]string, 0, len(r.replies))
	for _, reply := range r.replies {
		texts = append(texts, reply.Text)
	}
	return texts
}

type socketFrame struct {
	event domain.LiveEvent
	err   error
}

type fakeSocket struct {
	mu     sync.Mutex
	frames []socketFrame
	closed int
}

func (s *fakeSocket) push(frames ...socketFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frames...)
}

func (s *fakeSocket) Receive(time.Duration) (domain.LiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return domain.LiveEvent{}, domain.ErrReceiveTimeout
	}
	frame := s.frames[0]
	s.frames = s.frames[1:]
	return frame.event, frame.err
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeDialer struct {
	sockets  map[string]*fakeSocket
	rejected map[string]bool
	dials    []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{sockets: map[string]*fakeSocket{}, rejected: map[string]bool{}}
}

func (d *fakeDialer) Dial(_ context.Context, address string) (ports.Socket, error) {
	d.dials = append(d.dials, address)
	if d.rejected[address] {
		return nil, fmt.Errorf("dial %s: %w", address, domain.ErrHandshakeRejected)
	}
	socket, ok := d.sockets[address]
	if !ok {
		socket = &fakeSocket{}
		d.sockets[address] = socket
	}
	return socket, nil
}

type fakeBrowser struct {
	navigated []string
	refreshes int
	closed    bool
}

func (b *fakeBrowser) Navigate(_ context.Context, id string) error {
	b.navigated = append(b.navigated, id)
	return nil
}

func (b *fakeBrowser) Refresh(context.Context) error {
	b.refreshes++
	return nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

// memoryStore is a StateStore holding deep copies so tests can tell what was persisted.
type memoryStore struct {
	users       domain.Users
	threads     domain.MonitoredThreads
	discussions *domain.Discussions
	commands    domain.CommandTable
	loadErr     error
	saves       map[domain.UpdateTarget]int
}

var _ ports.StateStore = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       domain.Users{},
		threads:     domain.MonitoredThreads{},
		discussions: domain.NewDiscussions(),
		commands:    domain.CommandTable{},
		saves:       map[domain.UpdateTarget]int{},
	}
}

func (s *memoryStore) LoadUsers(context.Context) (domain.Users, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.users.Clone(), nil
}

func (s *memoryStore) SaveUsers(_ context.Context, users domain.Users) error {
	s.users = users.Clone()
	s.saves[domain.TargetUsers]++
	return nil
}

func (s *memoryStore) LoadThreads(context.Context) (domain.MonitoredThreads, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.threads.Clone(), nil
}

func (s *memoryStore) SaveThreads(_ context.Context, threads domain.MonitoredThreads) error {
	s.threads = threads.Clone()
	s.saves[domain.TargetThreads]++
	return nil
}

func (s *memoryStore) LoadDiscussions(context.Context) (*domain.Discussions, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.discussions.Clone(), nil
}

func (s *memoryStore) SaveDiscussions(_ context.Context, discussions *domain.Discussions) error {
	s.discussions = discussions.Clone()
	s.saves[domain.TargetDiscussions]++
	return nil
}

func (s *memoryStore) LoadCommands(context.Context) (domain.CommandTable, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(domain.CommandTable, len(s.commands))
	for key, command := range s.commands {
		out[key] = command
	}
	return out, nil
}

func mustLoadState(t *testing.T, store *memoryStore) *BotState {
	t.Helper()
	state, err := LoadState(context.Background(), store)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return state
}

var errUpstream = errors.New("upstream exploded")
