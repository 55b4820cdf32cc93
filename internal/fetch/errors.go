package fetch

import "fmt"

// ScraperError is what callers see when a fetch exhausts its retries. Source
// names the failing component ("parking", "congestion", "forecast") for
// diagnostics; raw transport errors never cross this boundary unwrapped.
type ScraperError struct {
	Source  string
	Message string
	Err     error
}

func (e *ScraperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *ScraperError) Unwrap() error {
	return e.Err
}
