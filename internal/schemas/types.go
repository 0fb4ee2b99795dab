package schemas

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Score is a numeric field produced by the model. It accepts JSON numbers as
// well as numeric strings ("85", "85%") since the model does not always
// respect the requested types.
type Score float64

func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return fmt.Errorf("score: %s is neither a number nor a string", b)
		}
		str = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(str), "%"))
		f, err = strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("score: %q is not numeric", str)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("score: %v is not finite", f)
	}
	*s = Score(f)
	return nil
}

type TranscriptEntry struct {
	Speaker   string `json:"speaker"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

type Participant struct {
	Name string `json:"name"`
	IsAI bool   `json:"isAI"`
	Role string `json:"role"`
	Team string `json:"team"`
}

// --- adjudication documents ---

type TeamRanking struct {
	Rank  Score  `json:"rank"`
	Team  string `json:"team"`
	Score Score  `json:"score"`
}

type TeamScore struct {
	Matter Score  `json:"matter"`
	Manner Score  `json:"manner"`
	Method Score  `json:"method"`
	Color  string `json:"color"`
}

type Clash struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Weight  Score  `json:"weight"`
	Winner  string `json:"winner"`
	Summary string `json:"summary"`
}

type ChainOfThought struct {
	Title   string  `json:"title"`
	Clashes []Clash `json:"clashes"`
}

type ReplySpeech struct {
	Speaker string `json:"speaker"`
	Score   Score  `json:"score"`
	Summary string `json:"summary"`
}

type ReplySpeeches struct {
	Proposition *ReplySpeech `json:"proposition,omitempty"`
	Opposition  *ReplySpeech `json:"opposition,omitempty"`
}

type SpeakerScores struct {
	Matter Score `json:"matter"`
	Manner Score `json:"manner"`
	Method Score `json:"method"`
	Total  Score `json:"total"`
}

type TimestampedComment struct {
	Time    string `json:"time"`
	Comment string `json:"comment"`
}

type SpeakerFeedback struct {
	Name                string               `json:"name"`
	Team                string               `json:"team"`
	Scores              SpeakerScores        `json:"scores"`
	RoleFulfillment     string               `json:"roleFulfillment"`
	RhetoricalAnalysis  string               `json:"rhetoricalAnalysis"`
	TimestampedComments []TimestampedComment `json:"timestampedComments"`
}

type DetailedFeedback struct {
	ReplySpeeches *ReplySpeeches    `json:"replySpeeches,omitempty"`
	Speakers      []SpeakerFeedback `json:"speakers"`
}

// --- persisted entities ---

type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Session struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	DebateType     string            `json:"debateType"`
	Motion         string            `json:"motion"`
	UserID         string            `json:"user"`
	UserRole       string            `json:"userRole"`
	Participants   []Participant     `json:"participants"`
	Transcript     []TranscriptEntry `json:"transcript"`
	AdjudicationID *string           `json:"adjudication,omitempty"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

const (
	SourceSession = "session"
	SourceUpload  = "upload"
)

type Adjudication struct {
	ID               string               `json:"id"`
	SessionID        *string              `json:"sessionId,omitempty"`
	AdjudicatorID    string               `json:"adjudicatorId"`
	Session          *Session             `json:"session,omitempty"`
	Adjudicator      *User                `json:"adjudicator,omitempty"`
	FormatName       string               `json:"formatName"`
	Motion           string               `json:"motion,omitempty"`
	Teams            json.RawMessage      `json:"teams,omitempty"`
	TranscriptSource string               `json:"transcriptSource"`
	OriginalFileName string               `json:"originalFileName,omitempty"`
	TranscriptRef    string               `json:"transcriptRef,omitempty"`
	OverallWinner    string               `json:"overallWinner"`
	TeamRankings     []TeamRanking        `json:"teamRankings"`
	Scorecard        map[string]TeamScore `json:"scorecard"`
	ChainOfThought   *ChainOfThought      `json:"chainOfThought"`
	DetailedFeedback *DetailedFeedback    `json:"detailedFeedback"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

type Gamification struct {
	UserID    string    `json:"user"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LeaderboardEntry struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		FullName string `json:"fullName"`
	} `json:"user"`
	XP    int    `json:"xp"`
	Level int    `json:"level"`
	Name  string `json:"name"`
}

// --- requests ---

type CreateAdjudicationRequest struct {
	SessionID string `json:"sessionId"`
}

// UpdateAdjudicationRequest replaces only the fields that are present.
type UpdateAdjudicationRequest struct {
	FormatName       *string              `json:"formatName,omitempty"`
	Motion           *string              `json:"motion,omitempty"`
	Teams            json.RawMessage      `json:"teams,omitempty"`
	OverallWinner    *string              `json:"overallWinner,omitempty"`
	TeamRankings     []TeamRanking        `json:"teamRankings,omitempty"`
	Scorecard        map[string]TeamScore `json:"scorecard,omitempty"`
	ChainOfThought   *ChainOfThought      `json:"chainOfThought,omitempty"`
	DetailedFeedback *DetailedFeedback    `json:"detailedFeedback,omitempty"`
}

type CreateSessionRequest struct {
	Title      string `json:"title"`
	DebateType string `json:"debateType"`
	Motion     string `json:"motion"`
	UserRole   string `json:"userRole"`
}

type UpdateSessionRequest struct {
	Title        *string           `json:"title,omitempty"`
	Motion       *string           `json:"motion,omitempty"`
	Status       *string           `json:"status,omitempty"`
	Participants []Participant     `json:"participants,omitempty"`
	Transcript   []TranscriptEntry `json:"transcript,omitempty"`
}

type GenerateSpeechRequest struct {
	SessionID   string `json:"sessionId"`
	SpeakerRole string `json:"speakerRole"`
}

type GeneratePOIRequest struct {
	TargetSpeakerRole string `json:"targetSpeakerRole"`
	CurrentSpeech     string `json:"currentSpeech"`
	Motion            string `json:"motion"`
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type AddXPRequest struct {
	XP int `json:"xp"`
}

type SetXPRequest struct {
	UserID string `json:"userId"`
	XP     int    `json:"xp"`
}
