package models

// Phase names the coordinator state.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseReview Phase = "review"
)

// ReviewState holds everything the result view needs.
type ReviewState struct {
	Analysis     *AnalysisResult `json:"analysis" msgpack:"analysis"`
	OriginalFile *SelectedFile   `json:"originalFile" msgpack:"originalFile"`
	DownloadURL  string          `json:"downloadUrl" msgpack:"downloadUrl"`
}

// SessionState is a snapshot of a coordinator. Exactly one of Idle or Review
// applies, selected by Phase; Busy is only meaningful while idle.
type SessionState struct {
	ID     string       `json:"id" msgpack:"id"`
	Phase  Phase        `json:"phase" msgpack:"phase"`
	Busy   bool         `json:"busy" msgpack:"busy"`
	Review *ReviewState `json:"review,omitempty" msgpack:"review,omitempty"`
}

// InReview reports whether an analysis result is present.
func (s SessionState) InReview() bool {
	return s.Phase == PhaseReview && s.Review != nil && s.Review.Analysis != nil
}
