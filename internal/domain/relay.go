package domain

// Action is the classifier's decision for one message.
type Action int

const (
	ActionIgnore Action = iota
	ActionAddNote
	ActionRunCommand
)

func (a Action) String() string {
	switch a {
	case ActionAddNote:
		return "add_note"
	case ActionRunCommand:
		return "run_command"
	default:
		return "ignore"
	}
}

// Classification is a tagged result: exactly one action, with the verb and
// payload already in executor form. For ActionAddNote the verb is the fixed
// literal "add" and the payload is the message text; for ActionRunCommand
// the full text is the verb and the payload is empty.
type Classification struct {
	Action  Action
	Verb    string
	Payload string
}

// Outcome reports whether the notes CLI accepted one invocation.
type Outcome struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error // timeout or start failure; nil on clean exit
}

// ReplaySummary counts one backlog replay. Processed and Deleted move
// together: a message counts only once its deletion went through.
type ReplaySummary struct {
	Processed int
	Deleted   int
}
