package pipeline

// State is the pipeline lifecycle state.
type State int

const (
	// Idle: constructed, adapters not yet initialized.
	Idle State = iota
	// Initializing: adapters are being wired up.
	Initializing
	// Running: audio is flowing and captions are produced.
	Running
	// Reconfiguring: the recognition session is being restarted with a new
	// language. Audio capture keeps running.
	Reconfiguring
	// Stopping: a stop is in progress.
	Stopping
	// Stopped: initialized and ready to start.
	Stopped
	// Failed: an unrecoverable error occurred.
	Failed
)

var stateNames = [...]string{
	Idle:          "idle",
	Initializing:  "initializing",
	Running:       "running",
	Reconfiguring: "reconfiguring",
	Stopping:      "stopping",
	Stopped:       "stopped",
	Failed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
