package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAuth struct {
	mu     sync.Mutex
	calls  int
	tokens []string
}

func (a *countingAuth) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	token := a.tokens[min(a.calls, len(a.tokens)-1)]
	a.calls++
	return domain.Token{AccessToken: token, ExpiresAt: testNow.Add(time.Hour)}, nil
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *countingAuth) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	auth := &countingAuth{tokens: []string{"tok-1", "tok-2"}}
	client := NewClient(Config{
		APIURL:        server.URL,
		SocketInfoURL: server.URL,
		HTTPClient:    server.Client(),
	}, auth, testCreds, fixedClock{now: testNow})
	return client, auth
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestClientSendsBearerAndCachesToken(t *testing.T) {
	t.Parallel()

	client, auth := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "streamwatch/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "/api/v1/me", r.URL.Path)
		writeJSON(w, `{"name":"streamwatch-bot"}`)
	}))

	name, err := client.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "streamwatch-bot", name)

	_, err = client.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, auth.calls)
}

func TestClientRefreshesTokenOnceAfterUnauthorized(t *testing.T) {
	t.Parallel()

	client, auth := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, `{"name":"streamwatch-bot"}`)
	}))

	name, err := client.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "streamwatch-bot", name)
	assert.Equal(t, 2, auth.calls)
}

func TestClientNewSubmissions(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/JCrayZ/submitted", r.URL.Path)
		assert.Equal(t, "new", r.URL.Query().Get("sort"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, `{"kind":"Listing","data":{"children":[
			{"kind":"t3","data":{"id":"abc","name":"t3_abc","title":"Live now","subreddit":"RedditSessions","author":"JCrayZ","allow_live_comments":true,"num_comments":4,"created_utc":1760788800.0}},
			{"kind":"t1","data":{"id":"ignored"}}
		]}}`)
	}))

	got, err := client.NewSubmissions(context.Background(), "JCrayZ", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Submission{
		ID:                "abc",
		Fullname:          "t3_abc",
		Title:             "Live now",
		Subreddit:         "RedditSessions",
		Author:            "JCrayZ",
		Shortlink:         "https://redd.it/abc",
		AllowLiveComments: true,
		NumComments:       4,
		CreatedAt:         time.Unix(1760788800, 0).UTC(),
	}, got[0])
}

func TestClientUnreadMessagesAndMarkRead(t *testing.T) {
	t.Parallel()

	var marked string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/message/unread":
			writeJSON(w, `{"kind":"Listing","data":{"children":[
				{"kind":"t4","data":{"id":"m2","name":"t4_m2","author":"bob","subject":"hi","body":"!subscribe"}},
				{"kind":"t1","data":{"id":"c1","name":"t1_c1","author":"carol","subject":"comment reply","body":"!end"}}
			]}}`)
		case "/api/read_message":
			require.NoError(t, r.ParseForm())
			marked = r.Form.Get("id")
			writeJSON(w, `{}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	messages, err := client.UnreadMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "t4_m2", messages[0].Fullname)
	assert.Equal(t, "!subscribe", messages[0].Body)
	assert.Equal(t, "carol", messages[1].Author)

	require.NoError(t, client.MarkRead(context.Background(), "t4_m2", "t1_c1"))
	assert.Equal(t, "t4_m2,t1_c1", marked)

	require.NoError(t, client.MarkRead(context.Background()))
}

func TestClientCommentsFlattensTreeAndExpandsMore(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/comments/abc":
			writeJSON(w, `[
				{"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"abc"}}]}},
				{"kind":"Listing","data":{"children":[
					{"kind":"t1","data":{"id":"c1","name":"t1_c1","author":"alice","body":"one","link_id":"t3_abc","created_utc":10,"replies":{"kind":"Listing","data":{"children":[
						{"kind":"t1","data":{"id":"c2","name":"t1_c2","author":"bob","body":"two","link_id":"t3_abc","created_utc":20,"replies":""}}
					]}}}},
					{"kind":"more","data":{"children":["c3"]}}
				]}}
			]`)
		case "/api/morechildren":
			assert.Equal(t, "t3_abc", r.URL.Query().Get("link_id"))
			assert.Equal(t, "c3", r.URL.Query().Get("children"))
			writeJSON(w, `{"json":{"errors":[],"data":{"things":[
				{"kind":"t1","data":{"id":"c3","name":"t1_c3","author":"carol","body":"three","link_id":"t3_abc","created_utc":30,"replies":""}}
			]}}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	comments, err := client.Comments(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{comments[0].ID, comments[1].ID, comments[2].ID})
	assert.Equal(t, "abc", comments[1].ThreadID)
	assert.Equal(t, time.Unix(20, 0).UTC(), comments[1].CreatedAt)

	count, err := client.CommentCount(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestClientClassify(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "t3_live":
			writeJSON(w, `{"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"live","allow_live_comments":true}}]}}`)
		case "t3_post":
			writeJSON(w, `{"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"post"}}]}}`)
		default:
			writeJSON(w, `{"kind":"Listing","data":{"children":[]}}`)
		}
	}))

	testCases := []struct {
		id   string
		want domain.Classification
	}{
		{id: "live", want: domain.ClassDiscussion},
		{id: "t3_post", want: domain.ClassThread},
		{id: "nope", want: domain.ClassUnknown},
	}
	for _, tc := range testCases {
		got, err := client.Classify(context.Background(), tc.id)
		require.NoError(t, err, tc.id)
		assert.Equal(t, tc.want, got, tc.id)
	}
}

func TestClientSocketAddress(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "no-cors", r.Header.Get("Sec-Fetch-Mode"))
		switch r.URL.Path {
		case "/videos/t3_live":
			writeJSON(w, `{"data":{"post":{"liveCommentsWebsocket":"wss://ws.example/live?m=1"}}}`)
		case "/videos/t3_empty":
			writeJSON(w, `{"data":{"post":{}}}`)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))

	address, err := client.SocketAddress(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "wss://ws.example/live?m=1", address)

	_, err = client.SocketAddress(context.Background(), "empty")
	require.ErrorIs(t, err, domain.ErrAddressUnavailable)

	_, err = client.SocketAddress(context.Background(), "gone")
	require.ErrorIs(t, err, domain.ErrAddressUnavailable)
}

func TestClientReplyAndSendMessage(t *testing.T) {
	t.Parallel()

	var forms []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "json", r.Form.Get("api_type"))
		switch r.URL.Path {
		case "/api/comment":
			forms = append(forms, r.Form.Get("thing_id")+"|"+r.Form.Get("text"))
		case "/api/compose":
			forms = append(forms, r.Form.Get("to")+"|"+r.Form.Get("subject")+"|"+r.Form.Get("text"))
		}
		writeJSON(w, `{"json":{"errors":[]}}`)
	}))

	require.NoError(t, client.Reply(context.Background(), domain.Handle{Fullname: "t1_c1"}, "done"))
	require.NoError(t, client.SendMessage(context.Background(), "alice", "Hi", "body"))
	assert.Equal(t, []string{"t1_c1|done", "alice|Hi|body"}, forms)

	require.Error(t, client.Reply(context.Background(), domain.Handle{}, "x"))
}

func TestClientSurfacesRateLimits(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/comment":
			writeJSON(w, `{"json":{"errors":[["RATELIMIT","Looks like you've been doing that a lot. Take a break for 2 minutes before trying again.","ratelimit"]]}}`)
		default:
			w.Header().Set("X-Ratelimit-Reset", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))

	err := client.Reply(context.Background(), domain.Handle{Fullname: "t1_c1"}, "hi")
	var rateLimited *domain.RateLimitError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 2*time.Minute+5*time.Second, rateLimited.Cooldown)

	_, err = client.UnreadMessages(context.Background())
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 7*time.Second, rateLimited.Cooldown)

	_, err = client.SocketAddress(context.Background(), "x")
	require.ErrorAs(t, err, &rateLimited)
	assert.NotErrorIs(t, err, domain.ErrAddressUnavailable)
}

func TestClientSurfacesOtherAPIErrors(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"json":{"errors":[["USER_DOESNT_EXIST","that user doesn't exist","to"]]}}`)
	}))

	err := client.SendMessage(context.Background(), "ghost", "s", "b")
	require.Error(t, err)
	assert.ErrorContains(t, err, "USER_DOESNT_EXIST")
}

func TestClientUserExists(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/alice/about") {
			writeJSON(w, `{"kind":"t2","data":{"name":"alice"}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	for name, want := range map[string]bool{"alice": true, "ghost": false, " ": false} {
		got, err := client.UserExists(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, fmt.Sprintf("user %q", name))
	}
}
