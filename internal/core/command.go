package core

// CommandKind describes what a connection asks the hub to do.
type CommandKind int

const (
	// CommandAttach creates the Client for a freshly accepted session.
	CommandAttach CommandKind = iota
	// CommandLine delivers one framed protocol line.
	CommandLine
	// CommandDetach reports that the transport lost the session.
	CommandDetach
	// CommandStats asks for a registry snapshot.
	CommandStats
)

// Command is a unit of work executed by the hub goroutine.
type Command struct {
	Kind    CommandKind
	Session Session
	Line    string
	Reason  string

	stats chan Stats
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Clients    int `json:"clients"`
	Registered int `json:"registered"`
	Channels   int `json:"channels"`
}
