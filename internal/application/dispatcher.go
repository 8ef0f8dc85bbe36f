package application

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

const DefaultMaxCommandLength = 30

var staffRoles = []domain.Role{domain.RoleAdmins, domain.RoleModerators}

// Dispatcher maps one message to at most one action and reports which
// collection the action touched.
type Dispatcher struct {
	state      *BotState
	messenger  ports.Messenger
	classifier ports.Classifier
	maxLength  int
	logger     zerolog.Logger
}

func NewDispatcher(state *BotState, messenger ports.Messenger, classifier ports.Classifier, maxLength int, logger zerolog.Logger) *Dispatcher {
	if maxLength <= 0 {
		maxLength = DefaultMaxCommandLength
	}
	return &Dispatcher{
		state:      state,
		messenger:  messenger,
		classifier: classifier,
		maxLength:  maxLength,
		logger:     logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch handles msg. The returned error is non-nil only for rate limiting;
// the update signal is valid even when an error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.NormalizedMessage) (domain.UpdateSignal, error) {
	if length := utf8.RuneCountInString(msg.Body); length > d.maxLength {
		d.event(msg).Int("length", length).Msg("message_too_long")
		return domain.NoUpdate, nil
	}
	body := strings.TrimSpace(msg.Body)

	if command, ok := d.state.Commands().Lookup(body); ok {
		return domain.NoUpdate, d.static(ctx, msg, strings.ToLower(body), command)
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return domain.NoUpdate, nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch {
	case verb == "!subscribe" && len(args) == 0:
		return d.subscribe(ctx, msg)
	case verb == "!unsubscribe" && len(args) == 0:
		return d.unsubscribe(ctx, msg)
	case verb == "!subother" && len(args) == 1:
		return d.subother(ctx, msg, args[0])
	case verb == "!unsubother" && len(args) == 1:
		return d.unsubother(ctx, msg, args[0])
	case verb == "!monitor" && len(args) == 1:
		return d.monitor(ctx, msg, args[0])
	case verb == "!end" && len(args) <= 1:
		return d.end(ctx, msg, args)
	case verb == "!reload" && len(args) == 1 && strings.EqualFold(args[0], "commands"):
		return d.reloadCommands(ctx, msg)
	}

	d.event(msg).Msg("no_command")
	return domain.NoUpdate, nil
}

func (d *Dispatcher) event(msg domain.NormalizedMessage) *zerolog.Event {
	return d.logger.Info().Str("author", msg.Author).Str("where", msg.Where())
}

func (d *Dispatcher) permit(msg domain.NormalizedMessage, command string, roles ...domain.Role) bool {
	if d.state.Users.HasAnyRole(msg.Author, roles...) {
		return true
	}
	d.event(msg).
		Str("command", command).
		Interface("has", d.state.Users.RolesOf(msg.Author)).
		Interface("needs", roles).
		Msg("permission_denied")
	return false
}

// reply logs delivery failures and only surfaces rate limiting.
func (d *Dispatcher) reply(ctx context.Context, msg domain.NormalizedMessage, text string) error {
	if err := d.messenger.Reply(ctx, msg.Handle, text); err != nil {
		if isRateLimited(err) {
			return err
		}
		d.logger.Warn().Err(err).Str("handle", msg.Handle.Fullname).Msg("reply_failed")
	}
	return nil
}

func (d *Dispatcher) static(ctx context.Context, msg domain.NormalizedMessage, key string, command domain.StaticCommand) error {
	if !command.AllowsContext(msg.Context) {
		d.event(msg).Str("command", key).Strs("contexts", command.Contexts).Msg("context_not_allowed")
		return nil
	}
	if !command.Allows(d.state.Users, msg.Author) {
		d.event(msg).
			Str("command", key).
			Interface("has", d.state.Users.RolesOf(msg.Author)).
			Interface("needs", command.Permissions).
			Msg("permission_denied")
		return nil
	}
	d.event(msg).Str("command", key).Msg("static_reply")
	return d.reply(ctx, msg, command.Message)
}

func (d *Dispatcher) subscribe(ctx context.Context, msg domain.NormalizedMessage) (domain.UpdateSignal, error) {
	if !d.permit(msg, "!subscribe", staffRoles...) {
		return domain.NoUpdate, nil
	}
	if !d.state.Users.Subscribe(msg.Author) {
		d.event(msg).Str("command", "!subscribe").Msg("already_subscribed")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("u/%s was already subscribed.", msg.Author))
	}
	d.event(msg).Str("command", "!subscribe").Msg("subscribed")
	return domain.Persist(domain.TargetUsers), d.reply(ctx, msg, fmt.Sprintf("u/%s has been subscribed. Use !unsubscribe to unsubscribe", msg.Author))
}

func (d *Dispatcher) unsubscribe(ctx context.Context, msg domain.NormalizedMessage) (domain.UpdateSignal, error) {
	if !d.state.Users.Unsubscribe(msg.Author) {
		d.event(msg).Str("command", "!unsubscribe").Msg("not_subscribed")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("u/%s was not subscribed.", msg.Author))
	}
	d.event(msg).Str("command", "!unsubscribe").Msg("unsubscribed")
	return domain.Persist(domain.TargetUsers), d.reply(ctx, msg, fmt.Sprintf("u/%s has been unsubscribed.", msg.Author))
}

func (d *Dispatcher) subother(ctx context.Context, msg domain.NormalizedMessage, arg string) (domain.UpdateSignal, error) {
	target := strings.TrimPrefix(arg, "u/")
	if !d.permit(msg, "!subother", staffRoles...) {
		return domain.NoUpdate, nil
	}

	exists, err := d.messenger.UserExists(ctx, target)
	if err != nil {
		if isRateLimited(err) {
			return domain.NoUpdate, err
		}
		d.logger.Warn().Err(err).Str("target", target).Msg("user_lookup_failed")
		return domain.NoUpdate, nil
	}
	if !exists {
		d.event(msg).Str("command", "!subother").Str("target", target).Msg("user_not_found")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("u/%s not found.", target))
	}
	if !d.state.Users.Subscribe(target) {
		d.event(msg).Str("command", "!subother").Str("target", target).Msg("already_subscribed")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("u/%s was already subscribed.", target))
	}
	d.event(msg).Str("command", "!subother").Str("target", target).Msg("subscribed")
	return domain.Persist(domain.TargetUsers), d.reply(ctx, msg, fmt.Sprintf("u/%s has been subscribed. Use !unsubscribe to unsubscribe", target))
}

func (d *Dispatcher) unsubother(ctx context.Context, msg domain.NormalizedMessage, arg string) (domain.UpdateSignal, error) {
	target := strings.TrimPrefix(arg, "u/")
	if !d.permit(msg, "!unsubother", staffRoles...) {
		return domain.NoUpdate, nil
	}
	if !d.state.Users.Unsubscribe(target) {
		d.event(msg).Str("command", "!unsubother").Str("target", target).Msg("not_subscribed")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("u/%s was not previously subscribed.", target))
	}
	d.event(msg).Str("command", "!unsubother").Str("target", target).Msg("unsubscribed")
	return domain.Persist(domain.TargetUsers), d.reply(ctx, msg, fmt.Sprintf("u/%s has been unsubscribed.", target))
}

func (d *Dispatcher) classify(ctx context.Context, id string) (domain.Classification, error) {
	class, err := d.classifier.Classify(ctx, id)
	if err != nil {
		if isRateLimited(err) {
			return domain.ClassUnknown, err
		}
		d.logger.Warn().Err(err).Str("id", id).Msg("classify_failed")
		return domain.ClassUnknown, nil
	}
	return class, nil
}

func (d *Dispatcher) monitor(ctx context.Context, msg domain.NormalizedMessage, id string) (domain.UpdateSignal, error) {
	if !d.permit(msg, "!monitor", staffRoles...) {
		return domain.NoUpdate, nil
	}

	class, err := d.classify(ctx, id)
	if err != nil {
		return domain.NoUpdate, err
	}

	switch class {
	case domain.ClassDiscussion:
		if !d.state.Discussions.Monitor(id) {
			d.event(msg).Str("command", "!monitor").Str("discussion", id).Msg("already_monitored")
			return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("%s already being monitored", id))
		}
		d.event(msg).Str("command", "!monitor").Str("discussion", id).Msg("discussion_monitored")
		return domain.Persist(domain.TargetDiscussions), d.reply(ctx, msg, fmt.Sprintf("%s is now being monitored", id))
	case domain.ClassThread:
		if d.state.Threads.Contains(id) {
			d.event(msg).Str("command", "!monitor").Str("thread", id).Msg("already_monitored")
			return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("%s already being monitored", id))
		}
		count, err := d.classifier.CommentCount(ctx, id)
		if err != nil {
			if isRateLimited(err) {
				return domain.NoUpdate, err
			}
			d.logger.Warn().Err(err).Str("thread", id).Msg("comment_count_failed")
			return domain.NoUpdate, nil
		}
		d.state.Threads.Add(id, count)
		d.event(msg).Str("command", "!monitor").Str("thread", id).Int("offset", count).Msg("thread_monitored")
		return domain.Persist(domain.TargetThreads), d.reply(ctx, msg, fmt.Sprintf("%s is now being monitored", id))
	default:
		d.event(msg).Str("command", "!monitor").Str("id", id).Msg("monitor_target_not_found")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("%s not found.", id))
	}
}

func (d *Dispatcher) end(ctx context.Context, msg domain.NormalizedMessage, args []string) (domain.UpdateSignal, error) {
	if !d.permit(msg, "!end", staffRoles...) {
		return domain.NoUpdate, nil
	}

	switch {
	case len(args) == 0 && msg.Context == domain.ContextLive:
		return d.endDiscussion(ctx, msg, msg.ThreadID)
	case len(args) == 0 && msg.Context == domain.ContextThread:
		return d.endThread(ctx, msg, msg.ThreadID)
	case len(args) == 1 && msg.Context == domain.ContextInbox:
		id := args[0]
		class, err := d.classify(ctx, id)
		if err != nil {
			return domain.NoUpdate, err
		}
		switch class {
		case domain.ClassDiscussion:
			return d.endDiscussion(ctx, msg, id)
		case domain.ClassThread:
			return d.endThread(ctx, msg, id)
		default:
			d.event(msg).Str("command", "!end").Str("id", id).Msg("not_monitored")
			return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("%s was not being monitored", id))
		}
	}

	d.event(msg).Str("command", "!end").Int("args", len(args)).Msg("end_wrong_context")
	return domain.NoUpdate, nil
}

func (d *Dispatcher) endDiscussion(ctx context.Context, msg domain.NormalizedMessage, id string) (domain.UpdateSignal, error) {
	if !d.state.Discussions.Unmonitor(id) {
		d.event(msg).Str("command", "!end").Str("discussion", id).Msg("not_monitored")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("%s was not being monitored", id))
	}
	d.event(msg).Str("command", "!end").Str("discussion", id).Msg("discussion_unmonitored")
	return domain.Persist(domain.TargetDiscussions), d.reply(ctx, msg, fmt.Sprintf("%s is no longer being monitored", id))
}

func (d *Dispatcher) endThread(ctx context.Context, msg domain.NormalizedMessage, id string) (domain.UpdateSignal, error) {
	if !d.state.Threads.Remove(id) {
		d.event(msg).Str("command", "!end").Str("thread", id).Msg("not_monitored")
		return domain.NoUpdate, d.reply(ctx, msg, fmt.Sprintf("%s was not being monitored", id))
	}
	d.event(msg).Str("command", "!end").Str("thread", id).Msg("thread_unmonitored")
	return domain.Persist(domain.TargetThreads), d.reply(ctx, msg, fmt.Sprintf("%s is no longer being monitored", id))
}

func (d *Dispatcher) reloadCommands(ctx context.Context, msg domain.NormalizedMessage) (domain.UpdateSignal, error) {
	if !d.permit(msg, "!reload commands", domain.RoleAdmins) {
		return domain.NoUpdate, nil
	}
	d.event(msg).Str("command", "!reload commands").Msg("commands_reload_queued")
	return domain.Reload(domain.TargetCommands), d.reply(ctx, msg, "Commands queued to reload.")
}
