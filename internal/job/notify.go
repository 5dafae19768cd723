package job

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/google/uuid"
)

// notification is one JSON line on the notification stream. Progress
// lines carry stage and message; the terminal line carries status,
// description and, on success, the result.
type notification struct {
	InvocationID string `json:"invocationId"`
	Kind         string `json:"kind"`
	Stage        string `json:"stage,omitempty"`
	Message      string `json:"message,omitempty"`
	Status       *int   `json:"status,omitempty"`
	Description  string `json:"description,omitempty"`
	Result       any    `json:"result,omitempty"`
}

// Notifier writes JSON-line notifications for one invocation. The
// terminal outcome is emitted at most once; later calls are dropped so a
// failure path can never follow a success line (or the reverse) onto the
// stream.
type Notifier struct {
	mu           sync.Mutex
	w            io.Writer
	invocationID string
	done         bool
}

// NewNotifier returns a notifier with a fresh invocation id.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w, invocationID: uuid.NewString()}
}

// InvocationID returns the id stamped on every line of this invocation.
func (n *Notifier) InvocationID() string { return n.invocationID }

// Progress emits one progress line. Progress after the terminal outcome
// is dropped.
func (n *Notifier) Progress(stage, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.done {
		return
	}
	n.emit(notification{
		InvocationID: n.invocationID,
		Kind:         "progress",
		Stage:        stage,
		Message:      message,
	})
}

// Succeed emits the terminal success outcome and returns exit status 0.
func (n *Notifier) Succeed(result any, description string) int {
	return n.terminal(0, description, result)
}

// Fail emits the terminal failure outcome with the given nonzero status
// and returns it. A zero status is coerced to 1 so a failure can never
// masquerade as success.
func (n *Notifier) Fail(status int, description string) int {
	if status == 0 {
		status = 1
	}
	return n.terminal(status, description, nil)
}

func (n *Notifier) terminal(status int, description string, result any) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.done {
		return status
	}
	n.done = true
	n.emit(notification{
		InvocationID: n.invocationID,
		Kind:         "result",
		Status:       &status,
		Description:  description,
		Result:       result,
	})
	return status
}

func (n *Notifier) emit(note notification) {
	line, err := json.Marshal(note)
	if err != nil {
		// Fall back to a bare line when the result cannot marshal.
		line = []byte(`{"invocationId":"` + n.invocationID + `","kind":"error","description":"notification marshal failed"}`)
	}
	n.w.Write(append(line, '\n'))
}
