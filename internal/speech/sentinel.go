package speech

// Sentinel codes returned by Listen in place of recognized text. They
// are reserved words on the command channel: the dispatcher filters
// them before any trigger matching or LLM forwarding happens.
const (
	Timeout          = "timeout"
	AudioError       = "audio_error"
	RecognitionError = "recognition_error"
	NetworkError     = "network_error"
	Shutdown         = "shutdown"
)

func IsSentinel(s string) bool {
	switch s {
	case Timeout, AudioError, RecognitionError, NetworkError, Shutdown:
		return true
	}
	return false
}
