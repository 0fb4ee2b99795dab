package adjudication

import (
	"debate-adjudicator/internal/schemas"
)

// Partial is the validated output of a single stage.
type Partial interface {
	Stage() Stage
	// missingKey names the required top-level key the model left out, if any.
	missingKey() string
	normalize()
}

type ScorecardPart struct {
	OverallWinner string                       `json:"overallWinner"`
	TeamRankings  []schemas.TeamRanking        `json:"teamRankings"`
	Scorecard     map[string]schemas.TeamScore `json:"scorecard"`
}

type ChainOfThoughtPart struct {
	ChainOfThought *schemas.ChainOfThought `json:"chainOfThought"`
}

type DetailedFeedbackPart struct {
	DetailedFeedback *schemas.DetailedFeedback `json:"detailedFeedback"`
}

func (*ScorecardPart) Stage() Stage        { return StageScorecard }
func (*ChainOfThoughtPart) Stage() Stage   { return StageChainOfThought }
func (*DetailedFeedbackPart) Stage() Stage { return StageDetailedFeedback }

func (p *ScorecardPart) missingKey() string {
	if p.OverallWinner == "" {
		return "overallWinner"
	}
	return ""
}

func (p *ChainOfThoughtPart) missingKey() string {
	if p.ChainOfThought == nil {
		return "chainOfThought"
	}
	return ""
}

func (p *DetailedFeedbackPart) missingKey() string {
	if p.DetailedFeedback == nil {
		return "detailedFeedback"
	}
	return ""
}

func (p *ScorecardPart) normalize()        { NormalizeScorecard(p.Scorecard) }
func (p *ChainOfThoughtPart) normalize()   { NormalizeChainOfThought(p.ChainOfThought) }
func (p *DetailedFeedbackPart) normalize() { NormalizeDetailedFeedback(p.DetailedFeedback) }

func newPartial(stage Stage) Partial {
	switch stage {
	case StageChainOfThought:
		return &ChainOfThoughtPart{}
	case StageDetailedFeedback:
		return &DetailedFeedbackPart{}
	default:
		return &ScorecardPart{}
	}
}

const (
	minScore  schemas.Score = 0
	maxScore  schemas.Score = 100
	minWeight schemas.Score = 1
	maxWeight schemas.Score = 99
)

func clamp(v, lo, hi schemas.Score) schemas.Score {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeScorecard clamps every team's matter, manner and method into
// [0,100]. The map is updated in place.
func NormalizeScorecard(card map[string]schemas.TeamScore) {
	for team, s := range card {
		s.Matter = clamp(s.Matter, minScore, maxScore)
		s.Manner = clamp(s.Manner, minScore, maxScore)
		s.Method = clamp(s.Method, minScore, maxScore)
		card[team] = s
	}
}

// NormalizeChainOfThought clamps every clash weight into [1,99].
func NormalizeChainOfThought(cot *schemas.ChainOfThought) {
	if cot == nil {
		return
	}
	for i := range cot.Clashes {
		cot.Clashes[i].Weight = clamp(cot.Clashes[i].Weight, minWeight, maxWeight)
	}
}

// NormalizeDetailedFeedback clamps speaker and reply scores into [0,100] and
// recomputes each speaker total from its parts; the model's total is never
// kept.
func NormalizeDetailedFeedback(fb *schemas.DetailedFeedback) {
	if fb == nil {
		return
	}
	for i := range fb.Speakers {
		sc := &fb.Speakers[i].Scores
		sc.Matter = clamp(sc.Matter, minScore, maxScore)
		sc.Manner = clamp(sc.Manner, minScore, maxScore)
		sc.Method = clamp(sc.Method, minScore, maxScore)
		sc.Total = sc.Matter + sc.Manner + sc.Method
	}
	if rs := fb.ReplySpeeches; rs != nil {
		for _, r := range []*schemas.ReplySpeech{rs.Proposition, rs.Opposition} {
			if r != nil {
				r.Score = clamp(r.Score, minScore, maxScore)
			}
		}
	}
}
