package post

// Result messages
const (
	MessageCompleted = "completed"
	MessageFailed    = "failed"
)

// Result is the record returned for every processed URL, successful or not
type Result struct {
	Success      bool   `json:"success"`
	ArtifactPath string `json:"artifactPath,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	Message      string `json:"message"`

	// Stage names the workflow step that failed; empty on success
	Stage string `json:"-"`
	// URL is the input the result belongs to
	URL string `json:"-"`
}

// Completed builds a successful result pointing at the derived artifact
func Completed(url, artifactPath string) Result {
	return Result{
		Success:      true,
		ArtifactPath: artifactPath,
		Message:      MessageCompleted,
		URL:          url,
	}
}

// Failed builds a failure result carrying the error text
func Failed(url, stage string, err error) Result {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Success:      false,
		ErrorMessage: msg,
		Message:      MessageFailed,
		Stage:        stage,
		URL:          url,
	}
}
