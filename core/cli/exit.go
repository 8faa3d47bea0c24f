package cli

import (
	"errors"

	"github.com/emenda-labs/apicompat/core/changespec"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitBreaking = 1
	ExitError    = 2
)

// ExitCode maps a comparison result to the process exit code. Breaking
// changes fail the run only when failOnBreaking is set.
func ExitCode(r changespec.ComparisonResult, failOnBreaking bool) int {
	if failOnBreaking && r.HasBreakingChanges() {
		return ExitBreaking
	}
	return ExitOK
}

// ErrBreakingChanges is returned by run functions when --fail-on-breaking
// trips. The report has already been written.
var ErrBreakingChanges = errors.New("breaking changes found")

// ExitCodeOf maps a command error to the process exit code.
func ExitCodeOf(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrBreakingChanges):
		return ExitBreaking
	}
	return ExitError
}
