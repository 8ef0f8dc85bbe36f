package status

import (
	"fmt"
	"strings"

	"github.com/bnema/streamwatch/internal/application"
	"github.com/charmbracelet/lipgloss"
)

const defaultAddressWidth = 48

type RenderOptions struct {
	// ShowAddresses prints the stored socket address next to each discussion.
	ShowAddresses bool
	AddressWidth  int
}

func renderView(status application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Streamwatch"),
		s.header.Render(fmt.Sprintf(
			"subscribers: %d  threads: %d  live: %d  ended: %d",
			len(status.Subscribers), len(status.Threads), len(status.Monitored), len(status.Unmonitored),
		)),
		s.section.Render(renderRoles(status, s)),
		s.section.Render(renderThreads(status, s)),
		s.section.Render(renderDiscussions("Live discussions", status.Monitored, true, opts, s)),
	}
	if len(status.Unmonitored) > 0 {
		lines = append(lines, s.section.Render(renderDiscussions("Ended discussions", status.Unmonitored, false, opts, s)))
	}
	lines = append(lines, s.section.Render(renderCommands(status, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRoles(status application.Status, s styles) string {
	parts := []string{s.heading.Render("Roles")}
	for _, role := range status.Roles {
		parts = append(parts, s.item.Render(fmt.Sprintf("%s: %s", role.Role, memberList(role.Members))))
	}
	parts = append(parts, s.item.Render(fmt.Sprintf("subscribers: %s", memberList(status.Subscribers))))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderThreads(status application.Status, s styles) string {
	parts := []string{s.heading.Render("Monitored threads")}
	if len(status.Threads) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("none"))...)
	}
	for _, thread := range status.Threads {
		parts = append(parts, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.item.Render(thread.ID),
			" ",
			s.meta.Render(fmt.Sprintf("(%d seen)", thread.Offset)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderDiscussions(title string, discussions []application.DiscussionStatus, active bool, opts RenderOptions, s styles) string {
	parts := []string{s.heading.Render(title)}
	if len(discussions) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("none"))...)
	}
	for _, discussion := range discussions {
		parts = append(parts, discussionLine(discussion, active, opts, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func discussionLine(discussion application.DiscussionStatus, active bool, opts RenderOptions, s styles) string {
	var marker string
	switch {
	case !active:
		marker = s.inactive.Render("ended")
	case discussion.Address == "":
		marker = s.pending.Render("awaiting address")
	default:
		marker = s.live.Render("address known")
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top, s.item.Render(discussion.ID), " ", marker)
	if opts.ShowAddresses && discussion.Address != "" {
		line += " " + s.meta.Render(truncate(discussion.Address, opts.AddressWidth))
	}
	return line
}

func renderCommands(status application.Status, s styles) string {
	parts := []string{s.heading.Render("Static commands")}
	if len(status.Commands) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("none"))...)
	}
	parts = append(parts, s.item.Render(strings.Join(status.Commands, "  ")))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func memberList(members []string) string {
	if len(members) == 0 {
		return "-"
	}
	return strings.Join(members, ", ")
}

func truncate(value string, width int) string {
	if width <= 0 {
		width = defaultAddressWidth
	}
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
