package domain

type UpdateTarget int

const (
	TargetNone UpdateTarget = iota
	TargetUsers
	TargetThreads
	TargetDiscussions
	TargetCommands
)

func (t UpdateTarget) String() string {
	switch t {
	case TargetUsers:
		return "users"
	case TargetThreads:
		return "monitored_threads"
	case TargetDiscussions:
		return "monitored_discussions"
	case TargetCommands:
		return "commands"
	default:
		return "none"
	}
}

type UpdateMode int

const (
	ModeNone UpdateMode = iota
	ModeReload
	ModePersist
)

func (m UpdateMode) String() string {
	switch m {
	case ModeReload:
		return "reload"
	case ModePersist:
		return "persist"
	default:
		return "none"
	}
}

// UpdateSignal tells the pipeline which in-memory collection changed and how to reconcile it.
type UpdateSignal struct {
	Target UpdateTarget
	Mode   UpdateMode
}

var NoUpdate = UpdateSignal{}

func Persist(target UpdateTarget) UpdateSignal {
	return UpdateSignal{Target: target, Mode: ModePersist}
}

func Reload(target UpdateTarget) UpdateSignal {
	return UpdateSignal{Target: target, Mode: ModeReload}
}

func (u UpdateSignal) IsNone() bool {
	return u.Target == TargetNone || u.Mode == ModeNone
}
