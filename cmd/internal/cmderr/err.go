package cmderr

// CLIErr wraps an error produced by the pipeline itself, as opposed to a
// CLI argument-parsing error. Used to determine whether to print usage on
// failure.
type CLIErr struct {
	Err error
}

func (a CLIErr) Error() string {
	return a.Err.Error()
}

// github.com/pkg/errors causer interface
func (a CLIErr) Cause() error {
	return a.Err
}

// github.com/pkg/errors Unwrap interface
func (a CLIErr) Unwrap() error {
	return a.Err
}
