package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/streamwatch/internal/domain"
)

type dispatcherFixture struct {
	state      *BotState
	reddit     *fakeReddit
	dispatcher *Dispatcher
}

func newDispatcherFixture() *dispatcherFixture {
	state := NewBotState()
	state.Users = domain.Users{
		domain.RoleAdmins:      {"root"},
		domain.RoleModerators:  {"alice", "mod"},
		domain.RoleSubscribers: {},
	}
	reddit := newFakeReddit()
	return &dispatcherFixture{
		state:      state,
		reddit:     reddit,
		dispatcher: NewDispatcher(state, reddit, reddit, 0, testLogger()),
	}
}

func inbox(author, body string) domain.NormalizedMessage {
	return domain.NormalizedMessage{
		Handle:  domain.Handle{Fullname: "t4_" + author},
		Body:    body,
		Author:  author,
		Context: domain.ContextInbox,
	}
}

func live(author, body, discussion string) domain.NormalizedMessage {
	return domain.NormalizedMessage{
		Handle:   domain.Handle{Fullname: "t1_" + author},
		Body:     body,
		Author:   author,
		Context:  domain.ContextLive,
		ThreadID: discussion,
	}
}

func (f *dispatcherFixture) dispatch(t *testing.T, msg domain.NormalizedMessage) domain.UpdateSignal {
	t.Helper()
	update, err := f.dispatcher.Dispatch(context.Background(), msg)
	require.NoError(t, err)
	require.NoError(t, f.state.Discussions.Validate())
	return update
}

func TestDispatcherSubscribeViaInbox(t *testing.T) {
	f := newDispatcherFixture()

	update := f.dispatch(t, inbox("alice", "!subscribe"))

	assert.Equal(t, domain.Persist(domain.TargetUsers), update)
	assert.Equal(t, []string{"alice"}, f.state.Users.Subscribers())
	assert.Equal(t, []reply{{Handle: "t4_alice", Text: "u/alice has been subscribed. Use !unsubscribe to unsubscribe"}}, f.reddit.replies)
}

func TestDispatcherSubscribeIsIdempotent(t *testing.T) {
	f := newDispatcherFixture()
	msg := live("alice", "!SUBSCRIBE", "abc")

	first := f.dispatch(t, msg)
	second := f.dispatch(t, msg)

	assert.Equal(t, domain.Persist(domain.TargetUsers), first)
	assert.True(t, second.IsNone())
	assert.Equal(t, []string{"alice"}, f.state.Users.Subscribers())
	assert.Equal(t, "u/alice was already subscribed.", f.reddit.replies[1].Text)
}

func TestDispatcherUnsubscribeNeedsNoRole(t *testing.T) {
	f := newDispatcherFixture()
	f.state.Users.Subscribe("guest")

	first := f.dispatch(t, inbox("guest", "!unsubscribe"))
	second := f.dispatch(t, inbox("guest", "!unsubscribe"))

	assert.Equal(t, domain.Persist(domain.TargetUsers), first)
	assert.True(t, second.IsNone())
	assert.Equal(t, []string{"u/guest has been unsubscribed.", "u/guest was not subscribed."}, f.reddit.replyTexts())
}

func TestDispatcherDeniesWithoutRoleSilently(t *testing.T) {
	f := newDispatcherFixture()

	for _, body := range []string{"!subscribe", "!subother bob", "!unsubother bob", "!monitor t1", "!end t1", "!reload commands"} {
		update := f.dispatch(t, inbox("guest", body))
		assert.True(t, update.IsNone(), body)
	}

	assert.Empty(t, f.reddit.replies)
	assert.Empty(t, f.state.Users.Subscribers())
}

func TestDispatcherIgnoresLongMessages(t *testing.T) {
	f := newDispatcherFixture()

	update := f.dispatch(t, inbox("alice", "!subscribe "+strings.Repeat("x", 30)))

	assert.True(t, update.IsNone())
	assert.Empty(t, f.reddit.replies)
}

func TestDispatcherMeasuresLengthBeforeTrimming(t *testing.T) {
	f := newDispatcherFixture()

	update := f.dispatch(t, inbox("alice", "  !subscribe"+strings.Repeat(" ", 20)+"\n"))

	assert.True(t, update.IsNone())
	assert.Empty(t, f.reddit.replies)
	assert.Empty(t, f.state.Users.Subscribers())

	update = f.dispatch(t, inbox("alice", "  !subscribe  "))
	assert.Equal(t, domain.Persist(domain.TargetUsers), update)
	assert.Equal(t, []string{"alice"}, f.state.Users.Subscribers())
}

func TestDispatcherSubOtherStripsPrefixAndChecksUser(t *testing.T) {
	f := newDispatcherFixture()
	f.reddit.users["bob"] = true

	update := f.dispatch(t, inbox("mod", "!subother u/bob"))
	assert.Equal(t, domain.Persist(domain.TargetUsers), update)
	assert.Equal(t, []string{"bob"}, f.state.Users.Subscribers())

	update = f.dispatch(t, inbox("mod", "!subother bob"))
	assert.True(t, update.IsNone())

	update = f.dispatch(t, inbox("mod", "!subother ghost"))
	assert.True(t, update.IsNone())

	assert.Equal(t, []string{
		"u/bob has been subscribed. Use !unsubscribe to unsubscribe",
		"u/bob was already subscribed.",
		"u/ghost not found.",
	}, f.reddit.replyTexts())
}

func TestDispatcherUnsubOther(t *testing.T) {
	f := newDispatcherFixture()
	f.state.Users.Subscribe("bob")

	update := f.dispatch(t, inbox("root", "!unsubother u/bob"))
	assert.Equal(t, domain.Persist(domain.TargetUsers), update)

	update = f.dispatch(t, inbox("root", "!unsubother bob"))
	assert.True(t, update.IsNone())

	assert.Equal(t, []string{"u/bob has been unsubscribed.", "u/bob was not previously subscribed."}, f.reddit.replyTexts())
}

func TestDispatcherMonitorDiscussion(t *testing.T) {
	f := newDispatcherFixture()
	f.reddit.classes["t1"] = domain.ClassDiscussion

	update := f.dispatch(t, inbox("root", "!monitor t1"))

	assert.Equal(t, domain.Persist(domain.TargetDiscussions), update)
	address, ok := f.state.Discussions.Address("t1")
	require.True(t, ok)
	assert.Empty(t, address)

	update = f.dispatch(t, inbox("root", "!monitor t1"))
	assert.True(t, update.IsNone())
	assert.Equal(t, []string{"t1 is now being monitored", "t1 already being monitored"}, f.reddit.replyTexts())
}

func TestDispatcherMonitorThreadStoresCurrentCount(t *testing.T) {
	f := newDispatcherFixture()
	f.reddit.classes["th"] = domain.ClassThread
	f.reddit.counts["th"] = 17

	update := f.dispatch(t, inbox("mod", "!monitor th"))

	assert.Equal(t, domain.Persist(domain.TargetThreads), update)
	assert.Equal(t, 17, f.state.Threads["th"])
}

func TestDispatcherMonitorUnknown(t *testing.T) {
	f := newDispatcherFixture()

	update := f.dispatch(t, inbox("mod", "!monitor nope"))

	assert.True(t, update.IsNone())
	assert.Equal(t, []string{"nope not found."}, f.reddit.replyTexts())
}

func TestDispatcherEndInLiveContextUnmonitorsKeepingAddress(t *testing.T) {
	f := newDispatcherFixture()
	f.state.Discussions.Monitor("abc")
	f.state.Discussions.SetAddress("abc", "wss://live/abc")

	update := f.dispatch(t, live("mod", "!end", "abc"))

	assert.Equal(t, domain.Persist(domain.TargetDiscussions), update)
	assert.False(t, f.state.Discussions.IsMonitored("abc"))
	assert.Equal(t, "wss://live/abc", f.state.Discussions.Unmonitored["abc"])
	assert.Equal(t, []string{"abc is no longer being monitored"}, f.reddit.replyTexts())
}

func TestDispatcherEndInThreadContext(t *testing.T) {
	f := newDispatcherFixture()
	f.state.Threads.Add("th", 3)
	msg := domain.NormalizedMessage{Handle: domain.Handle{Fullname: "t1_x"}, Body: "!end", Author: "mod", Context: domain.ContextThread, ThreadID: "th"}

	update := f.dispatch(t, msg)

	assert.Equal(t, domain.Persist(domain.TargetThreads), update)
	assert.False(t, f.state.Threads.Contains("th"))
}

func TestDispatcherEndFromInboxClassifies(t *testing.T) {
	f := newDispatcherFixture()
	f.reddit.classes["abc"] = domain.ClassDiscussion
	f.reddit.classes["th"] = domain.ClassThread
	f.state.Discussions.Monitor("abc")
	f.state.Threads.Add("th", 0)

	assert.Equal(t, domain.Persist(domain.TargetDiscussions), f.dispatch(t, inbox("mod", "!end abc")))
	assert.Equal(t, domain.Persist(domain.TargetThreads), f.dispatch(t, inbox("mod", "!end th")))
	assert.True(t, f.dispatch(t, inbox("mod", "!end abc")).IsNone())
	assert.True(t, f.dispatch(t, inbox("mod", "!end")).IsNone())

	assert.Equal(t, []string{
		"abc is no longer being monitored",
		"th is no longer being monitored",
		"abc was not being monitored",
	}, f.reddit.replyTexts())
}

func TestDispatcherReloadCommandsRequiresAdmin(t *testing.T) {
	f := newDispatcherFixture()

	assert.True(t, f.dispatch(t, inbox("mod", "!reload commands")).IsNone())
	assert.Equal(t, domain.Reload(domain.TargetCommands), f.dispatch(t, inbox("root", "!Reload Commands")))
	assert.Equal(t, []string{"Commands queued to reload."}, f.reddit.replyTexts())
}

func TestDispatcherStaticCommands(t *testing.T) {
	f := newDispatcherFixture()
	f.state.SwapCommands(domain.CommandTable{
		"!discord": {Contexts: []string{"any"}, Permissions: []domain.Role{domain.RoleAny}, Message: "https://discord.gg/x"},
		"!setlist": {Contexts: []string{"stream"}, Permissions: []domain.Role{domain.RoleModerators}, Message: "tonight: covers"},
	})

	f.dispatch(t, inbox("guest", "!Discord"))
	f.dispatch(t, inbox("mod", "!setlist"))
	f.dispatch(t, live("guest", "!setlist", "abc"))
	f.dispatch(t, live("mod", "!setlist", "abc"))

	assert.Equal(t, []string{"https://discord.gg/x", "tonight: covers"}, f.reddit.replyTexts())
}

func TestDispatcherRateLimitedReplyKeepsUpdate(t *testing.T) {
	f := newDispatcherFixture()
	f.reddit.replyErr = domain.NewRateLimitError("try again in 2 minutes")

	update, err := f.dispatcher.Dispatch(context.Background(), inbox("alice", "!subscribe"))

	var rateLimit *domain.RateLimitError
	require.ErrorAs(t, err, &rateLimit)
	assert.Equal(t, domain.Persist(domain.TargetUsers), update)
}

func TestDispatcherPlainReplyFailureIsLogged(t *testing.T) {
	f := newDispatcherFixture()
	f.reddit.replyErr = errUpstream

	update := f.dispatch(t, inbox("alice", "!subscribe"))

	assert.Equal(t, domain.Persist(domain.TargetUsers), update)
}
