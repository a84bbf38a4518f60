package media

import "fmt"

// ResolutionError reports that a URL could not be turned into a playable file.
type ResolutionError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to resolve %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("unable to resolve %s: %s", e.URL, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

var _ error = (*ResolutionError)(nil)
