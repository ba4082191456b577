package scan

// State is one of Camera, Analyzing, Result, Feedback or Closed.
type State interface {
	Name() string
	isState()
}

// Camera is the live viewfinder. Err carries the device message when the
// stream could not start; Live is false in that case.
type Camera struct {
	Live    bool   `json:"live"`
	Err     string `json:"error,omitempty"`
	ErrKind string `json:"errorKind,omitempty"`
}

// Analyzing means one frame is with the gateway and the stream is paused.
type Analyzing struct{}

// Result holds the description or the analysis error.
type Result struct {
	Info       string   `json:"info,omitempty"`
	Title      string   `json:"title,omitempty"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	VideoURL   string   `json:"videoUrl,omitempty"`
	Err        string   `json:"error,omitempty"`
}

// Failed reports whether the analysis failed.
func (r Result) Failed() bool { return r.Err != "" }

// Feedback is the rating form for a successful Result.
type Feedback struct {
	Result    Result `json:"result"`
	Rating    Rating `json:"rating,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Submitted bool   `json:"submitted"`
}

// Closed is terminal; the caller returns to the main screen.
type Closed struct{}

func (Camera) Name() string    { return "camera" }
func (Analyzing) Name() string { return "analyzing" }
func (Result) Name() string    { return "result" }
func (Feedback) Name() string  { return "feedback" }
func (Closed) Name() string    { return "closed" }

func (Camera) isState()    {}
func (Analyzing) isState() {}
func (Result) isState()    {}
func (Feedback) isState()  {}
func (Closed) isState()    {}

// Rating is the binary feedback score.
type Rating string

const (
	RatingGood Rating = "good"
	RatingBad  Rating = "bad"
)

// ParseRating accepts good or bad.
func ParseRating(value string) (Rating, bool) {
	switch Rating(value) {
	case RatingGood, RatingBad:
		return Rating(value), true
	}
	return "", false
}
