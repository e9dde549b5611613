package entity

import "time"

// CandidateSlot is a proposed meeting interval.
type CandidateSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s CandidateSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// UTC returns the slot converted to UTC for boundary output.
func (s CandidateSlot) UTC() CandidateSlot {
	return CandidateSlot{Start: s.Start.UTC(), End: s.End.UTC()}
}

// Verdict is one participant's answer for one slot.
type Verdict struct {
	UserID     string  `json:"user_id"`
	Available  bool    `json:"available"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// ScoredSlot is a candidate with every participant's verdict folded in.
type ScoredSlot struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Verdicts         []Verdict `json:"verdicts"`
	AvailableUsers   []string  `json:"available_users"`
	ConflictingUsers []string  `json:"conflicting_users"`
	Confidence       float64   `json:"confidence"`
	Reason           string    `json:"reason"`
}
