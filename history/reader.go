package history

import (
	"fmt"

	"github.com/roasbeef/histedit/git"
)

// NewReader returns the Reader for backend. The CLI backend runs git
// through runner; the native backend ignores it.
func NewReader(backend Backend, runner git.Runner) (Reader, error) {
	switch backend {
	case BackendCLI, "":
		return NewCLIReader(runner), nil

	case BackendNative:
		return NewNativeReader(), nil

	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}
