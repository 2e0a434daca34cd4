package domain

type CaptureState string

const (
	CaptureIdle   CaptureState = "idle"
	CaptureActive CaptureState = "active"
)

// CaptionPlaceholder is shown until the first description completes.
const CaptionPlaceholder = "Waiting for image analysis..."

// Snapshot is a read-only copy of the session state rendered by the dashboard.
type Snapshot struct {
	Listening bool         `json:"listening"`
	Muted     bool         `json:"muted"`
	Capture   CaptureState `json:"capture"`
	Loading   bool         `json:"loading"`
	Caption   string       `json:"caption"`
	Error     string       `json:"error,omitempty"`
}

func (s Snapshot) Capturing() bool {
	return s.Capture == CaptureActive
}

// StatusLine mirrors the header shown above the camera preview.
func (s Snapshot) StatusLine() string {
	voice := "Voice commands active"
	if !s.Listening {
		voice = "Voice commands disabled"
	}
	audio := "Audio enabled"
	if s.Muted {
		audio = "Audio muted"
	}
	return voice + " | " + audio
}

func (s Snapshot) CaptionText() string {
	if s.Caption == "" {
		return CaptionPlaceholder
	}
	return s.Caption
}
