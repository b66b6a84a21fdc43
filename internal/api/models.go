package api

// Feature keys served by the API.
const (
	FeatureDefinitions = "definition-lookup"
	FeatureWriting     = "writing-review"
	FeatureReading     = "reading-session"
)

// DefineRequest asks for a short definition of one word.
type DefineRequest struct {
	Word string `json:"word" binding:"required"`
}

// DefineResponse carries the gate decision and, when allowed, the
// definition. Cached reports whether the lookup was served without a
// backend call (cache hits are not charged).
type DefineResponse struct {
	Decision   string `json:"decision"`
	Definition string `json:"definition,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
	Remaining  int64  `json:"remaining"`
}

// ReviewRequest submits writing for review.
type ReviewRequest struct {
	Text string `json:"text" binding:"required"`
}

// ReviewResponse carries the gate decision and, when allowed, the
// review verdict.
type ReviewResponse struct {
	Decision  string `json:"decision"`
	Status    string `json:"status,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
	Remaining int64  `json:"remaining"`
}

// IdeaResponse carries a generated writing prompt.
type IdeaResponse struct {
	Idea string `json:"idea"`
}

// FeatureStatus is the daily state of one feature for the caller.
type FeatureStatus struct {
	Feature              string `json:"feature"`
	Day                  string `json:"day"`
	Count                int64  `json:"count"`
	Max                  int64  `json:"max"`
	Remaining            int64  `json:"remaining"`
	Completion           string `json:"completion"`
	SecondsUntilRollover int    `json:"seconds_until_rollover"`
}

// TimerStartRequest optionally overrides the session duration.
type TimerStartRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

// TimerResponse reports the countdown state after a start or tick.
type TimerResponse struct {
	Feature          string `json:"feature"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Expired          bool   `json:"expired"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
