package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports/mocks"
)

func submission(id string, minute int, subreddit string, live bool) domain.Submission {
	return domain.Submission{
		ID:                id,
		Fullname:          "t3_" + id,
		Title:             "Live " + id,
		Subreddit:         subreddit,
		Author:            "JCrayZ",
		Shortlink:         "https://redd.it/" + id,
		AllowLiveComments: live,
		CreatedAt:         testNow.Add(time.Duration(minute) * time.Minute),
	}
}

func newTestLiveFeed(t *testing.T, reddit *fakeReddit, state *BotState) *LiveFeed {
	t.Helper()
	notifier := mocks.NewMockNotifier(t)
	notifier.EXPECT().AnnounceLive(mockAnyContext(), mockAnyContext()).Return(nil).Maybe()
	announcer := NewAnnouncer(reddit, notifier, state, "JCrayZ", testLogger())
	return NewLiveFeed(reddit, announcer, state, "JCrayZ", []string{"RedditSessions"}, testLogger())
}

func TestLiveFeedSkipsExistingSubmissionsOnFirstPoll(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	state.Users.Subscribe("alice")
	reddit.submissions = []domain.Submission{submission("old", 0, "RedditSessions", true)}
	feed := newTestLiveFeed(t, reddit, state)

	batch, err := feed.Poll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, batch.Updates)
	assert.Empty(t, reddit.messages)
	assert.Empty(t, state.Discussions.Monitored)
}

func TestLiveFeedArmsLiveSubmissionAndNotifiesSubscribers(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	state.Users.Subscribe("alice")
	state.Users.Subscribe("bob")
	reddit.submissions = []domain.Submission{submission("old", 0, "RedditSessions", true)}
	feed := newTestLiveFeed(t, reddit, state)
	_, err := feed.Poll(context.Background())
	require.NoError(t, err)

	reddit.submissions = []domain.Submission{
		submission("elsewhere", 3, "pics", true),
		submission("chat", 2, "RedditSessions", false),
		submission("live1", 1, "redditsessions", true),
		submission("old", 0, "RedditSessions", true),
	}
	batch, err := feed.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.UpdateSignal{domain.Persist(domain.TargetDiscussions)}, batch.Updates)
	assert.Empty(t, batch.Messages)
	assert.Equal(t, []string{"live1"}, state.Discussions.MonitoredIDs())
	address, ok := state.Discussions.Address("live1")
	require.True(t, ok)
	assert.Empty(t, address)

	assert.Equal(t, []sentMessage{
		{To: "alice", Subject: "Hi alice, JCrayZ is live on redditsessions!", Body: "[Live live1](https://redd.it/live1)"},
		{To: "bob", Subject: "Hi bob, JCrayZ is live on redditsessions!", Body: "[Live live1](https://redd.it/live1)"},
	}, reddit.messages)

	batch, err = feed.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Updates)
	assert.Len(t, reddit.messages, 2)
}

func TestLiveFeedResetKeepsWatermark(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	reddit.submissions = []domain.Submission{submission("old", 0, "RedditSessions", true)}
	feed := newTestLiveFeed(t, reddit, state)
	_, err := feed.Poll(context.Background())
	require.NoError(t, err)

	reddit.submissionsErr = errUpstream
	_, err = feed.Poll(context.Background())
	require.Error(t, err)
	feed.Reset()

	reddit.submissionsErr = nil
	reddit.submissions = []domain.Submission{
		submission("during-outage", 5, "RedditSessions", true),
		submission("old", 0, "RedditSessions", true),
	}
	_, err = feed.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"during-outage"}, state.Discussions.MonitoredIDs())
}

func TestLiveFeedPropagatesRateLimitFromAnnouncement(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	state.Users.Subscribe("alice")
	feed := newTestLiveFeed(t, reddit, state)
	_, err := feed.Poll(context.Background())
	require.NoError(t, err)

	reddit.messageErr = domain.NewRateLimitError("try again in 9 seconds")
	reddit.submissions = []domain.Submission{submission("live1", 1, "RedditSessions", true)}
	batch, err := feed.Poll(context.Background())

	var rateLimit *domain.RateLimitError
	require.ErrorAs(t, err, &rateLimit)
	assert.Equal(t, []domain.UpdateSignal{domain.Persist(domain.TargetDiscussions)}, batch.Updates)
}

func TestAnnouncerLogsPlainDeliveryFailures(t *testing.T) {
	reddit := newFakeReddit()
	reddit.messageErr = errUpstream
	state := NewBotState()
	state.Users.Subscribe("alice")
	notifier := mocks.NewMockNotifier(t)
	live := submission("live1", 1, "RedditSessions", true)
	notifier.EXPECT().AnnounceLive(mockAnyContext(), live).Return(errUpstream)

	err := NewAnnouncer(reddit, notifier, state, "JCrayZ", testLogger()).Announce(context.Background(), live)

	require.NoError(t, err)
}

func TestInboxFeedEmitsOldestFirstOnce(t *testing.T) {
	reddit := newFakeReddit()
	reddit.unread = []domain.PrivateMessage{
		{ID: "m2", Fullname: "t4_m2", Author: "bob", Body: "!unsubscribe"},
		{ID: "m1", Fullname: "t4_m1", Author: "alice", Body: "!subscribe"},
	}
	feed := NewInboxFeed(reddit, testLogger())

	batch, err := feed.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Messages, 2)
	assert.Equal(t, domain.NormalizedMessage{
		Handle:  domain.Handle{Fullname: "t4_m1"},
		Body:    "!subscribe",
		Author:  "alice",
		Context: domain.ContextInbox,
	}, batch.Messages[0])
	assert.Equal(t, "t4_m2", batch.Messages[1].Handle.Fullname)

	batch, err = feed.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Messages)

	require.NoError(t, feed.Ack(context.Background(), []domain.Handle{{Fullname: "t4_m1"}}))
	assert.Equal(t, []string{"t4_m1"}, reddit.markedRead)
}

func TestInboxFeedResetRedeliversUnacked(t *testing.T) {
	reddit := newFakeReddit()
	reddit.unread = []domain.PrivateMessage{{ID: "m1", Fullname: "t4_m1", Author: "alice", Body: "!subscribe"}}
	feed := NewInboxFeed(reddit, testLogger())

	_, err := feed.Poll(context.Background())
	require.NoError(t, err)
	feed.Reset()

	batch, err := feed.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Messages, 1)
}

func comment(id, author string, minute int) domain.Comment {
	return domain.Comment{
		ID:        id,
		Fullname:  "t1_" + id,
		Author:    author,
		Body:      "body " + id,
		CreatedAt: testNow.Add(time.Duration(minute) * time.Minute),
	}
}

func TestThreadPollerEmitsOnlyPastOffsetInCreationOrder(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	state.Threads.Add("th", 1)
	reddit.comments["th"] = []domain.Comment{
		comment("c3", "carol", 3),
		comment("c1", "alice", 1),
		comment("c2", "streamwatch-bot", 2),
		comment("c4", "dave", 4),
	}
	poller := NewThreadPoller(reddit, state, reddit.self, testLogger())

	batch, err := poller.Poll(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Messages, 2)
	assert.Equal(t, "t1_c3", batch.Messages[0].Handle.Fullname)
	assert.Equal(t, "t1_c4", batch.Messages[1].Handle.Fullname)
	assert.Equal(t, domain.ContextThread, batch.Messages[0].Context)
	assert.Equal(t, "th", batch.Messages[0].ThreadID)
	assert.Equal(t, 1, state.Threads["th"], "offset must not move before commit")

	assert.Equal(t, domain.Persist(domain.TargetThreads), poller.Commit())
	assert.Equal(t, 4, state.Threads["th"])

	batch, err = poller.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Messages)
	assert.True(t, poller.Commit().IsNone())
}

func TestThreadPollerDoesNotAdvanceOnOwnCommentsOnly(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	state.Threads.Add("th", 0)
	reddit.comments["th"] = []domain.Comment{comment("c1", "streamwatch-bot", 1)}
	poller := NewThreadPoller(reddit, state, reddit.self, testLogger())

	batch, err := poller.Poll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, batch.Messages)
	assert.True(t, poller.Commit().IsNone())
	assert.Equal(t, 0, state.Threads["th"])
}

func TestThreadPollerCommitSkipsRemovedThread(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	state.Threads.Add("th", 0)
	reddit.comments["th"] = []domain.Comment{comment("c1", "alice", 1)}
	poller := NewThreadPoller(reddit, state, reddit.self, testLogger())

	_, err := poller.Poll(context.Background())
	require.NoError(t, err)
	state.Threads.Remove("th")

	assert.True(t, poller.Commit().IsNone())
	assert.False(t, state.Threads.Contains("th"))
}

func TestThreadPollerSkipsFailingThread(t *testing.T) {
	reddit := newFakeReddit()
	state := NewBotState()
	state.Threads.Add("bad", 0)
	state.Threads.Add("good", 0)
	reddit.commentsErr["bad"] = errUpstream
	reddit.comments["good"] = []domain.Comment{comment("c1", "alice", 1)}
	poller := NewThreadPoller(reddit, state, reddit.self, testLogger())

	batch, err := poller.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Messages, 1)

	reddit.commentsErr["bad"] = domain.NewRateLimitError("try again in 1 minute")
	_, err = poller.Poll(context.Background())
	require.Error(t, err)
}
