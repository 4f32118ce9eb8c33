package back

import "fmt"

// Error reports a failure inside a backend engine. Tool holds the
// external program name when the engine shells out, empty otherwise,
// and Output carries the tool's diagnostics verbatim.
type Error struct {
	Target  Target
	Tool    string
	Message string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s backend: %s", e.Target, e.Message)
	if e.Tool != "" {
		s = fmt.Sprintf("%s backend: %s: %s", e.Target, e.Tool, e.Message)
	}
	if e.Output != "" {
		s += "\n" + e.Output
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// UnsupportedTargetError reports a target with no registered engine,
// either because none exists or because its build tag was off.
type UnsupportedTargetError struct {
	Target Target
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("no backend registered for target %s", e.Target)
}
