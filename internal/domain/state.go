package domain

import (
	"fmt"
	"sort"
	"strings"
)

type Role string

const (
	RoleAny         Role = "any"
	RoleAdmins      Role = "admins"
	RoleModerators  Role = "moderators"
	RoleSubscribers Role = "subscribers"
)

// Users maps a role to its member names. The subscribers role doubles as the
// notification list.
type Users map[Role][]string

func (u Users) HasAnyRole(user string, roles ...Role) bool {
	for _, role := range roles {
		if role == RoleAny {
			return true
		}
		if containsFold(u[role], user) {
			return true
		}
	}
	return false
}

func (u Users) RolesOf(user string) []Role {
	roles := make([]Role, 0, len(u))
	for role, members := range u {
		if containsFold(members, user) {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

func (u Users) IsSubscribed(user string) bool {
	return containsFold(u[RoleSubscribers], user)
}

func (u Users) Subscribe(user string) bool {
	if u.IsSubscribed(user) {
		return false
	}
	u[RoleSubscribers] = append(u[RoleSubscribers], user)
	return true
}

func (u Users) Unsubscribe(user string) bool {
	members := u[RoleSubscribers]
	for i, member := range members {
		if strings.EqualFold(member, user) {
			u[RoleSubscribers] = append(members[:i:i], members[i+1:]...)
			return true
		}
	}
	return false
}

func (u Users) Subscribers() []string {
	return append([]string(nil), u[RoleSubscribers]...)
}

func (u Users) Clone() Users {
	out := make(Users, len(u))
	for role, members := range u {
		out[role] = append([]string(nil), members...)
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

// MonitoredThreads maps a polled thread to the number of comments already seen.
type MonitoredThreads map[string]int

func (m MonitoredThreads) Contains(id string) bool {
	_, ok := m[id]
	return ok
}

func (m MonitoredThreads) Add(id string, seen int) bool {
	if m.Contains(id) {
		return false
	}
	if seen < 0 {
		seen = 0
	}
	m[id] = seen
	return true
}

func (m MonitoredThreads) Remove(id string) bool {
	if !m.Contains(id) {
		return false
	}
	delete(m, id)
	return true
}

// Advance moves the offset forward; it never moves backwards and never
// re-creates a thread that was removed.
func (m MonitoredThreads) Advance(id string, seen int) bool {
	current, ok := m[id]
	if !ok || seen <= current {
		return false
	}
	m[id] = seen
	return true
}

func (m MonitoredThreads) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m MonitoredThreads) Clone() MonitoredThreads {
	out := make(MonitoredThreads, len(m))
	for id, seen := range m {
		out[id] = seen
	}
	return out
}

// Discussions holds the two disjoint discussion tables. An empty address means
// no push address is known yet.
type Discussions struct {
	Monitored   map[string]string
	Unmonitored map[string]string
}

func NewDiscussions() *Discussions {
	return &Discussions{
		Monitored:   map[string]string{},
		Unmonitored: map[string]string{},
	}
}

func (d *Discussions) IsMonitored(id string) bool {
	_, ok := d.Monitored[id]
	return ok
}

func (d *Discussions) IsUnmonitored(id string) bool {
	_, ok := d.Unmonitored[id]
	return ok
}

func (d *Discussions) Address(id string) (string, bool) {
	address, ok := d.Monitored[id]
	return address, ok
}

// Monitor arms a discussion, re-using the last known address when it was
// previously unmonitored.
func (d *Discussions) Monitor(id string) bool {
	if d.IsMonitored(id) {
		return false
	}
	address := d.Unmonitored[id]
	delete(d.Unmonitored, id)
	d.Monitored[id] = address
	return true
}

func (d *Discussions) Unmonitor(id string) bool {
	address, ok := d.Monitored[id]
	if !ok {
		return false
	}
	delete(d.Monitored, id)
	d.Unmonitored[id] = address
	return true
}

func (d *Discussions) SetAddress(id, address string) bool {
	current, ok := d.Monitored[id]
	if !ok || current == address {
		return false
	}
	d.Monitored[id] = address
	return true
}

func (d *Discussions) MonitoredIDs() []string {
	return sortedKeys(d.Monitored)
}

func (d *Discussions) UnmonitoredIDs() []string {
	return sortedKeys(d.Unmonitored)
}

func (d *Discussions) Validate() error {
	for id := range d.Monitored {
		if _, ok := d.Unmonitored[id]; ok {
			return fmt.Errorf("discussion %s is both monitored and unmonitored", id)
		}
	}
	return nil
}

func (d *Discussions) Clone() *Discussions {
	out := NewDiscussions()
	for id, address := range d.Monitored {
		out.Monitored[id] = address
	}
	for id, address := range d.Unmonitored {
		out.Unmonitored[id] = address
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
