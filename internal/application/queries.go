package application

import (
	"context"
	"sort"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

type ThreadStatus struct {
	ID     string `json:"id"`
	Offset int    `json:"offset"`
}

type DiscussionStatus struct {
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
}

type RoleStatus struct {
	Role    domain.Role `json:"role"`
	Members []string    `json:"members"`
}

// Status is the read model behind the status command.
type Status struct {
	Roles       []RoleStatus       `json:"roles"`
	Subscribers []string           `json:"subscribers"`
	Threads     []ThreadStatus     `json:"threads"`
	Monitored   []DiscussionStatus `json:"monitored"`
	Unmonitored []DiscussionStatus `json:"unmonitored"`
	Commands    []string           `json:"commands"`
}

func LoadStatus(ctx context.Context, store ports.StateStore) (Status, error) {
	state, err := LoadState(ctx, store)
	if err != nil {
		return Status{}, err
	}
	return Summarize(state), nil
}

func Summarize(state *BotState) Status {
	status := Status{Subscribers: state.Users.Subscribers()}

	for role, members := range state.Users {
		if role == domain.RoleSubscribers {
			continue
		}
		status.Roles = append(status.Roles, RoleStatus{Role: role, Members: append([]string(nil), members...)})
	}
	sort.Slice(status.Roles, func(i, j int) bool { return status.Roles[i].Role < status.Roles[j].Role })

	for _, id := range state.Threads.IDs() {
		status.Threads = append(status.Threads, ThreadStatus{ID: id, Offset: state.Threads[id]})
	}
	for _, id := range state.Discussions.MonitoredIDs() {
		status.Monitored = append(status.Monitored, DiscussionStatus{ID: id, Address: state.Discussions.Monitored[id]})
	}
	for _, id := range state.Discussions.UnmonitoredIDs() {
		status.Unmonitored = append(status.Unmonitored, DiscussionStatus{ID: id, Address: state.Discussions.Unmonitored[id]})
	}
	for key := range state.Commands() {
		status.Commands = append(status.Commands, key)
	}
	sort.Strings(status.Commands)

	return status
}
