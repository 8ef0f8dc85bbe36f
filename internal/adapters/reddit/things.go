package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
)

const (
	kindComment    = "t1"
	kindAccount    = "t2"
	kindSubmission = "t3"
	kindMessage    = "t4"
	kindMore       = "more"
)

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type submissionData struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	Subreddit         string  `json:"subreddit"`
	Author            string  `json:"author"`
	AllowLiveComments bool    `json:"allow_live_comments"`
	NumComments       int     `json:"num_comments"`
	CreatedUTC        float64 `json:"created_utc"`
}

type commentData struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	LinkID     string          `json:"link_id"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}

type moreData struct {
	Children []string `json:"children"`
}

type messageData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (d submissionData) toDomain() domain.Submission {
	return domain.Submission{
		ID:                d.ID,
		Fullname:          d.Name,
		Title:             d.Title,
		Subreddit:         d.Subreddit,
		Author:            d.Author,
		Shortlink:         "https://redd.it/" + d.ID,
		AllowLiveComments: d.AllowLiveComments,
		NumComments:       d.NumComments,
		CreatedAt:         unixTime(d.CreatedUTC),
	}
}

func (d commentData) toDomain() domain.Comment {
	return domain.Comment{
		ID:        d.ID,
		Fullname:  d.Name,
		Author:    d.Author,
		Body:      d.Body,
		ThreadID:  stripKind(d.LinkID),
		CreatedAt: unixTime(d.CreatedUTC),
	}
}

func (d messageData) toDomain() domain.PrivateMessage {
	return domain.PrivateMessage{
		ID:       d.ID,
		Fullname: d.Name,
		Author:   d.Author,
		Subject:  d.Subject,
		Body:     d.Body,
	}
}

func submissions(l listing) ([]domain.Submission, error) {
	out := make([]domain.Submission, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != kindSubmission {
			continue
		}
		var data submissionData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		out = append(out, data.toDomain())
	}
	return out, nil
}

// commentTree flattens a comment listing depth first. Collapsed "more" stubs
// are returned separately so the caller can expand them.
type commentTree struct {
	comments []domain.Comment
	more     []string
}

func (t *commentTree) walk(children []thing) error {
	for _, child := range children {
		switch child.Kind {
		case kindComment:
			var data commentData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return fmt.Errorf("decode comment: %w", err)
			}
			t.comments = append(t.comments, data.toDomain())
			if replies, ok := repliesListing(data.Replies); ok {
				if err := t.walk(replies.Data.Children); err != nil {
					return err
				}
			}
		case kindMore:
			var data moreData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				return fmt.Errorf("decode more stub: %w", err)
			}
			t.more = append(t.more, data.Children...)
		}
	}
	return nil
}

// repliesListing handles reddit encoding an empty replies field as "".
func repliesListing(raw json.RawMessage) (listing, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return listing{}, false
	}
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return listing{}, false
	}
	return l, true
}

func stripKind(fullname string) string {
	if _, id, ok := strings.Cut(fullname, "_"); ok {
		return id
	}
	return fullname
}

func submissionFullname(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, kindSubmission+"_") {
		return id
	}
	return kindSubmission + "_" + id
}

func unixTime(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}
