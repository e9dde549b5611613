package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"smartschedule/modules/matching/entity"
)

// Policy decides which partially free slots survive resolution.
type Policy string

const (
	// PolicyRequireAll keeps only slots every participant can attend.
	PolicyRequireAll Policy = "require_all"
	// PolicyMajority keeps slots more than half of the participants can attend.
	PolicyMajority Policy = "majority"
	// PolicyAny keeps every slot at least one participant can attend.
	PolicyAny Policy = "any"
)

func (p Policy) Valid() bool {
	switch p {
	case PolicyRequireAll, PolicyMajority, PolicyAny:
		return true
	}
	return false
}

func (p Policy) keeps(available, total int) bool {
	switch p {
	case PolicyMajority:
		return available*2 > total
	case PolicyAny:
		return available > 0
	}
	return available == total
}

const (
	highConfidence        = 0.7
	alternativeConfidence = 0.5
	alternativeFreeShare  = 0.7
	maxBestMutual         = 5
	maxAlternatives       = 10
	maxConflictHotspots   = 5

	defaultSuggestedMinutes = 60
	minSuggestedMinutes     = 15
	maxSuggestedMinutes     = 120
)

// ResolveParticipant is one user as the resolver sees them.
type ResolveParticipant struct {
	ID      string
	Events  []entity.CalendarEvent
	Profile Profile
}

type ResolveRequest struct {
	Candidates   []entity.CandidateSlot
	Participants []ResolveParticipant
	Policy       Policy
	MaxResults   int
}

type ParticipantConflicts struct {
	UserID    string `json:"user_id"`
	Conflicts int    `json:"conflicts"`
}

type ConflictHotspot struct {
	Time      entity.ClockTime `json:"time"`
	Conflicts int              `json:"conflicts"`
}

type ConflictAnalysis struct {
	TotalCandidates int                    `json:"total_candidates"`
	ByParticipant   []ParticipantConflicts `json:"by_participant"`
	Hotspots        []ConflictHotspot      `json:"hotspots"`
}

type Recommendations struct {
	BestMutual               []entity.ScoredSlot `json:"best_mutual"`
	Alternatives             []entity.ScoredSlot `json:"alternatives"`
	SuggestedDurationMinutes int                 `json:"suggested_duration_minutes"`
}

type Resolution struct {
	RankedSlots      []entity.ScoredSlot `json:"ranked_slots"`
	ConflictAnalysis ConflictAnalysis    `json:"conflict_analysis"`
	Recommendations  Recommendations     `json:"recommendations"`
}

// Resolver folds per-user verdicts into a ranked mutual list.
type Resolver struct {
	scorer *Scorer
}

func NewResolver(scorer *Scorer) *Resolver {
	if scorer == nil {
		scorer = NewScorer()
	}
	return &Resolver{scorer: scorer}
}

// Resolve scores every candidate for every participant, filters by policy and
// ranks by confidence descending then start ascending. Same input, same order.
func (r *Resolver) Resolve(req ResolveRequest) Resolution {
	if !req.Policy.Valid() {
		req.Policy = PolicyRequireAll
	}

	// 1. Score every candidate
	scored := make([]entity.ScoredSlot, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		scored = append(scored, r.scoreSlot(c, req.Participants))
	}

	// 2. Apply policy
	total := len(req.Participants)
	kept := make([]entity.ScoredSlot, 0, len(scored))
	for _, s := range scored {
		if total > 0 && req.Policy.keeps(len(s.AvailableUsers), total) {
			kept = append(kept, s)
		}
	}

	// 3. Rank
	slices.SortStableFunc(kept, compareScored)

	res := Resolution{
		ConflictAnalysis: analyzeConflicts(scored, req.Participants),
		Recommendations:  recommend(kept, req.Participants),
	}

	// 4. Truncate
	if req.MaxResults > 0 && len(kept) > req.MaxResults {
		kept = kept[:req.MaxResults]
	}
	res.RankedSlots = kept
	return res
}

func compareScored(a, b entity.ScoredSlot) int {
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	return a.Start.Compare(b.Start)
}

func (r *Resolver) scoreSlot(c entity.CandidateSlot, participants []ResolveParticipant) entity.ScoredSlot {
	s := entity.ScoredSlot{
		Start:            c.Start,
		End:              c.End,
		Verdicts:         make([]entity.Verdict, 0, len(participants)),
		AvailableUsers:   []string{},
		ConflictingUsers: []string{},
	}

	var confSum float64
	for _, p := range participants {
		v := r.scorer.IsAvailable(c, p.Events, p.Profile)
		v.UserID = p.ID
		s.Verdicts = append(s.Verdicts, v)
		if v.Available {
			s.AvailableUsers = append(s.AvailableUsers, p.ID)
			confSum += v.Confidence
		} else {
			s.ConflictingUsers = append(s.ConflictingUsers, p.ID)
		}
	}

	n, total := len(s.AvailableUsers), len(participants)
	if n > 0 {
		meanConf := confSum / float64(n)
		s.Confidence = round2(meanConf * float64(n) / float64(total))
	}
	s.Reason = slotReason(n, total, s.Confidence)
	return s
}

func slotReason(available, total int, confidence float64) string {
	if total > 0 && available == total {
		if confidence > highConfidence {
			return "all available, high confidence"
		}
		return "all available, good confidence"
	}
	return fmt.Sprintf("%d/%d users available", available, total)
}

func analyzeConflicts(scored []entity.ScoredSlot, participants []ResolveParticipant) ConflictAnalysis {
	perUser := make(map[string]int, len(participants))
	perClock := make(map[entity.ClockTime]int)
	for _, s := range scored {
		for _, id := range s.ConflictingUsers {
			perUser[id]++
		}
		if n := len(s.ConflictingUsers); n > 0 {
			perClock[entity.ClockOf(s.Start)] += n
		}
	}

	out := ConflictAnalysis{
		TotalCandidates: len(scored),
		ByParticipant:   make([]ParticipantConflicts, 0, len(participants)),
		Hotspots:        make([]ConflictHotspot, 0, maxConflictHotspots),
	}
	for _, p := range participants {
		out.ByParticipant = append(out.ByParticipant, ParticipantConflicts{UserID: p.ID, Conflicts: perUser[p.ID]})
	}

	for clock, n := range perClock {
		out.Hotspots = append(out.Hotspots, ConflictHotspot{Time: clock, Conflicts: n})
	}
	slices.SortFunc(out.Hotspots, func(a, b ConflictHotspot) int {
		if c := cmp.Compare(b.Conflicts, a.Conflicts); c != 0 {
			return c
		}
		return cmp.Compare(a.Time, b.Time)
	})
	if len(out.Hotspots) > maxConflictHotspots {
		out.Hotspots = out.Hotspots[:maxConflictHotspots]
	}
	return out
}

// recommend works on the ranked, untruncated list.
func recommend(ranked []entity.ScoredSlot, participants []ResolveParticipant) Recommendations {
	rec := Recommendations{
		BestMutual:               []entity.ScoredSlot{},
		Alternatives:             []entity.ScoredSlot{},
		SuggestedDurationMinutes: suggestedDuration(participants),
	}
	total := len(participants)
	for _, s := range ranked {
		if s.Confidence > highConfidence && len(s.ConflictingUsers) == 0 && len(rec.BestMutual) < maxBestMutual {
			rec.BestMutual = append(rec.BestMutual, s)
		}
		if total > 0 && s.Confidence > alternativeConfidence &&
			float64(len(s.AvailableUsers)) >= alternativeFreeShare*float64(total) &&
			len(rec.Alternatives) < maxAlternatives {
			rec.Alternatives = append(rec.Alternatives, s)
		}
	}
	return rec
}

// suggestedDuration is the mean length over every participant's historical
// meetings, so each participant's average is weighted by their booking count.
func suggestedDuration(participants []ResolveParticipant) int {
	var sum, weight float64
	for _, p := range participants {
		a := p.Profile.Analysis
		if a == nil || a.AvgDurationMinutes <= 0 {
			continue
		}
		w := float64(max(a.TotalBookings, 1))
		sum += a.AvgDurationMinutes * w
		weight += w
	}
	if weight == 0 {
		return defaultSuggestedMinutes
	}
	mins := int(math.Round(sum / weight))
	return min(max(mins, minSuggestedMinutes), maxSuggestedMinutes)
}
