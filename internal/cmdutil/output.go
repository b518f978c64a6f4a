package cmdutil

import (
	"errors"
	"fmt"
	"io"

	oerrors "github.com/slfconversion/bpmigrate/internal/errors"
	"github.com/slfconversion/bpmigrate/internal/output"
	"github.com/slfconversion/bpmigrate/internal/plan"
)

// PrintValidationError prints a plan, config or snapshot error in a
// user-friendly format. DetailErrors print as a block to w; plan field
// errors print one line each.
func PrintValidationError(w io.Writer, msg string, err error) {
	var detail *oerrors.DetailError
	var fields *plan.ValidationErrors
	switch {
	case errors.As(err, &detail):
		output.Error(msg)
		fmt.Fprint(w, detail.Error())
	case errors.As(err, &fields):
		source := fields.Source
		if source == "" {
			source = "plan"
		}
		output.Error(fmt.Sprintf("%s: %s", msg, source))
		for _, f := range fields.Errors {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
		}
	default:
		output.Error(msg, "error", err)
	}
}

// Fail prints err and wraps it in an ExitError carrying the code derived
// from its sentinel.
func Fail(w io.Writer, msg string, err error) error {
	PrintValidationError(w, msg, err)
	return &oerrors.ExitError{Err: err, Code: oerrors.ExitCodeFromError(err), Printed: true}
}
