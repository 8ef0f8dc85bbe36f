package jsonfs

import "github.com/bnema/streamwatch/internal/domain"

// On-disk shapes. Keys and nulls match the documents the bot has always
// written so existing data directories load unchanged.

type usersDocument map[string][]string

type threadsDocument map[string]int

type discussionsDocument struct {
	Monitored   map[string]*string `json:"monitored"`
	Unmonitored map[string]*string `json:"unmonitored"`
}

type commandDocument struct {
	Context     []string `json:"context"`
	Permissions []string `json:"permissions"`
	Message     string   `json:"message"`
}

type commandsDocument map[string]commandDocument

func defaultUsers() usersDocument {
	return usersDocument{
		string(domain.RoleAdmins):      {},
		string(domain.RoleModerators):  {},
		string(domain.RoleSubscribers): {},
	}
}

func (d usersDocument) toDomain() domain.Users {
	users := make(domain.Users, len(d))
	for role, names := range d {
		users[domain.Role(role)] = append([]string(nil), names...)
	}
	if _, ok := users[domain.RoleSubscribers]; !ok {
		users[domain.RoleSubscribers] = []string{}
	}
	return users
}

func usersFromDomain(users domain.Users) usersDocument {
	doc := make(usersDocument, len(users))
	for role, names := range users {
		list := append([]string{}, names...)
		doc[string(role)] = list
	}
	return doc
}

func (d threadsDocument) toDomain() domain.MonitoredThreads {
	threads := make(domain.MonitoredThreads, len(d))
	for id, seen := range d {
		threads[id] = seen
	}
	return threads
}

func threadsFromDomain(threads domain.MonitoredThreads) threadsDocument {
	doc := make(threadsDocument, len(threads))
	for id, seen := range threads {
		doc[id] = seen
	}
	return doc
}

func (d discussionsDocument) toDomain() *domain.Discussions {
	discussions := domain.NewDiscussions()
	for id, address := range d.Monitored {
		discussions.Monitored[id] = derefAddress(address)
	}
	for id, address := range d.Unmonitored {
		discussions.Unmonitored[id] = derefAddress(address)
	}
	return discussions
}

func discussionsFromDomain(discussions *domain.Discussions) discussionsDocument {
	doc := discussionsDocument{
		Monitored:   map[string]*string{},
		Unmonitored: map[string]*string{},
	}
	if discussions == nil {
		return doc
	}
	for id, address := range discussions.Monitored {
		doc.Monitored[id] = refAddress(address)
	}
	for id, address := range discussions.Unmonitored {
		doc.Unmonitored[id] = refAddress(address)
	}
	return doc
}

func (d commandsDocument) toDomain() domain.CommandTable {
	table := make(domain.CommandTable, len(d))
	for text, command := range d {
		permissions := make([]domain.Role, 0, len(command.Permissions))
		for _, permission := range command.Permissions {
			permissions = append(permissions, domain.Role(permission))
		}
		table[text] = domain.StaticCommand{
			Contexts:    append([]string(nil), command.Context...),
			Permissions: permissions,
			Message:     command.Message,
		}
	}
	return table.Normalize()
}

func derefAddress(address *string) string {
	if address == nil {
		return ""
	}
	return *address
}

func refAddress(address string) *string {
	if address == "" {
		return nil
	}
	return &address
}
