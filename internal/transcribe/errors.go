package transcribe

import "fmt"

// TranscriptionError reports a backend failure after its retry budget ran out.
type TranscriptionError struct {
	Backend  string
	Attempts int
	Err      error
}

func (e *TranscriptionError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s transcription failed after %d attempts: %v", e.Backend, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s transcription failed: %v", e.Backend, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
