package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bnema/streamwatch/internal/domain"
)

const (
	inboxPageSize       = 100
	threadPageSize      = 500
	moreChildrenBatch   = 100
	maxMoreChildrenRuns = 20
)

func (c *Client) Identity(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.identity
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	var me struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, c.get("/api/v1/me", nil), &me); err != nil {
		return "", fmt.Errorf("fetch identity: %w", err)
	}
	if me.Name == "" {
		return "", errors.New("identity response missing name")
	}

	c.mu.Lock()
	c.identity = me.Name
	c.mu.Unlock()
	return me.Name, nil
}

func (c *Client) NewSubmissions(ctx context.Context, author string, limit int) ([]domain.Submission, error) {
	query := url.Values{}
	query.Set("sort", "new")
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")

	var page listing
	if err := c.do(ctx, c.get("/user/"+url.PathEscape(author)+"/submitted", query), &page); err != nil {
		return nil, fmt.Errorf("list submissions of %s: %w", author, err)
	}
	return submissions(page)
}

// UnreadMessages returns private messages and comment replies waiting in the
// inbox, newest first.
func (c *Client) UnreadMessages(ctx context.Context) ([]domain.PrivateMessage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(inboxPageSize))
	query.Set("raw_json", "1")

	var page listing
	if err := c.do(ctx, c.get("/message/unread", query), &page); err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}

	out := make([]domain.PrivateMessage, 0, len(page.Data.Children))
	for _, child := range page.Data.Children {
		if child.Kind != kindMessage && child.Kind != kindComment {
			continue
		}
		var data messageData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, data.toDomain())
	}
	return out, nil
}

func (c *Client) MarkRead(ctx context.Context, fullnames ...string) error {
	if len(fullnames) == 0 {
		return nil
	}

	form := url.Values{}
	form.Set("id", strings.Join(fullnames, ","))
	if err := c.do(ctx, c.post("/api/read_message", form), nil); err != nil {
		return fmt.Errorf("mark %d messages read: %w", len(fullnames), err)
	}
	return nil
}

// Comments returns every comment of the thread, expanding collapsed branches
// through /api/morechildren.
func (c *Client) Comments(ctx context.Context, threadID string) ([]domain.Comment, error) {
	threadID = stripKind(strings.TrimSpace(threadID))

	query := url.Values{}
	query.Set("sort", "old")
	query.Set("limit", strconv.Itoa(threadPageSize))
	query.Set("raw_json", "1")

	var pages []listing
	if err := c.do(ctx, c.get("/comments/"+url.PathEscape(threadID), query), &pages); err != nil {
		return nil, fmt.Errorf("list comments of %s: %w", threadID, err)
	}
	if len(pages) < 2 {
		return nil, fmt.Errorf("list comments of %s: unexpected response shape", threadID)
	}

	var tree commentTree
	if err := tree.walk(pages[1].Data.Children); err != nil {
		return nil, err
	}

	for runs := 0; len(tree.more) > 0 && runs < maxMoreChildrenRuns; runs++ {
		batch := tree.more
		if len(batch) > moreChildrenBatch {
			batch = batch[:moreChildrenBatch]
		}
		tree.more = tree.more[len(batch):]

		things, err := c.moreChildren(ctx, threadID, batch)
		if err != nil {
			return nil, err
		}
		if err := tree.walk(things); err != nil {
			return nil, err
		}
	}

	return tree.comments, nil
}

func (c *Client) moreChildren(ctx context.Context, threadID string, ids []string) ([]thing, error) {
	query := url.Values{}
	query.Set("api_type", "json")
	query.Set("link_id", submissionFullname(threadID))
	query.Set("children", strings.Join(ids, ","))
	query.Set("sort", "old")
	query.Set("raw_json", "1")

	var payload struct {
		JSON struct {
			Data struct {
				Things []thing `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := c.do(ctx, c.get("/api/morechildren", query), &payload); err != nil {
		return nil, fmt.Errorf("expand comments of %s: %w", threadID, err)
	}
	return payload.JSON.Data.Things, nil
}

func (c *Client) info(ctx context.Context, id string) (submissionData, bool, error) {
	query := url.Values{}
	query.Set("id", submissionFullname(id))
	query.Set("raw_json", "1")

	var page listing
	if err := c.do(ctx, c.get("/api/info", query), &page); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return submissionData{}, false, nil
		}
		return submissionData{}, false, fmt.Errorf("look up %s: %w", id, err)
	}

	for _, child := range page.Data.Children {
		if child.Kind != kindSubmission {
			continue
		}
		var data submissionData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			return submissionData{}, false, fmt.Errorf("decode submission: %w", err)
		}
		return data, true, nil
	}
	return submissionData{}, false, nil
}

// Classify reports submissions with live comments as discussions and every
// other submission as a thread.
func (c *Client) Classify(ctx context.Context, id string) (domain.Classification, error) {
	data, found, err := c.info(ctx, id)
	if err != nil {
		return domain.ClassUnknown, err
	}
	switch {
	case !found:
		return domain.ClassUnknown, nil
	case data.AllowLiveComments:
		return domain.ClassDiscussion, nil
	default:
		return domain.ClassThread, nil
	}
}

// CommentCount matches the number of comments Comments would return, so it
// can seed a thread offset.
func (c *Client) CommentCount(ctx context.Context, threadID string) (int, error) {
	comments, err := c.Comments(ctx, threadID)
	if err != nil {
		return 0, err
	}
	return len(comments), nil
}

func (c *Client) SocketAddress(ctx context.Context, discussionID string) (string, error) {
	call := apiRequest{
		method:  http.MethodGet,
		baseURL: c.cfg.SocketInfoURL,
		path:    "/videos/" + url.PathEscape(submissionFullname(discussionID)),
		header:  http.Header{"Sec-Fetch-Mode": []string{"no-cors"}},
	}

	var payload struct {
		Data struct {
			Post struct {
				LiveCommentsWebsocket string `json:"liveCommentsWebsocket"`
			} `json:"post"`
		} `json:"data"`
	}
	if err := c.do(ctx, call, &payload); err != nil {
		var rateLimited *domain.RateLimitError
		if errors.As(err, &rateLimited) {
			return "", err
		}
		return "", fmt.Errorf("resolve socket of %s: %w: %w", discussionID, domain.ErrAddressUnavailable, err)
	}

	address := strings.TrimSpace(payload.Data.Post.LiveCommentsWebsocket)
	if address == "" {
		return "", fmt.Errorf("resolve socket of %s: %w", discussionID, domain.ErrAddressUnavailable)
	}
	return address, nil
}

func (c *Client) Reply(ctx context.Context, to domain.Handle, text string) error {
	if to.IsZero() {
		return errors.New("reply target is empty")
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", to.Fullname)
	form.Set("text", text)
	if err := c.do(ctx, c.post("/api/comment", form), nil); err != nil {
		return fmt.Errorf("reply to %s: %w", to.Fullname, err)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, to, subject, body string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("to", to)
	form.Set("subject", subject)
	form.Set("text", body)
	if err := c.do(ctx, c.post("/api/compose", form), nil); err != nil {
		return fmt.Errorf("message %s: %w", to, err)
	}
	return nil
}

func (c *Client) UserExists(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}

	var about thing
	if err := c.do(ctx, c.get("/user/"+url.PathEscape(name)+"/about", nil), &about); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up user %s: %w", name, err)
	}
	return about.Kind == kindAccount, nil
}
