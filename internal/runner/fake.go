package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is a scripted Runner for tests. Responses are keyed by the command
// line "name arg1 arg2"; unscripted commands fail with ErrNotFound.
type Fake struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	tools     map[string]bool
	calls     []string
}

type fakeResponse struct {
	result Result
	err    error
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]fakeResponse),
		tools:     make(map[string]bool),
	}
}

// Ensure Fake implements Runner.
var _ Runner = (*Fake)(nil)

// On scripts a successful response for the command line.
func (f *Fake) On(cmdline, stdout string) *Fake {
	return f.OnResult(cmdline, Result{Stdout: stdout}, nil)
}

// OnResult scripts an arbitrary result and error for the command line.
func (f *Fake) OnResult(cmdline string, res Result, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = fakeResponse{result: res, err: err}
	return f
}

// WithTools marks executables as present for LookPath.
func (f *Fake) WithTools(names ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.tools[n] = true
	}
	return f
}

// Run returns the scripted response for the command line.
func (f *Fake) Run(_ context.Context, _ string, name string, args ...string) (Result, error) {
	cmdline := strings.TrimSpace(name + " " + strings.Join(args, " "))

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmdline)
	resp, ok := f.responses[cmdline]
	if !ok {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrNotFound, cmdline)
	}
	return resp.result, resp.err
}

// LookPath reports whether the tool was registered with WithTools.
func (f *Fake) LookPath(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tools[name]
}

// Calls returns the command lines run so far.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
