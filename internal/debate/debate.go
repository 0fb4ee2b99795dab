package debate

import (
	"context"
	"fmt"
	"strings"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
)

type Role struct {
	Role string `json:"role"`
	Team string `json:"team"`
}

// Formats maps a debate type to its speaking order.
var Formats = map[string][]Role{
	"AP": {
		{"Prime Minister", "Government"},
		{"Deputy Prime Minister", "Government"},
		{"Government Whip", "Government"},
		{"Leader of Opposition", "Opposition"},
		{"Deputy Leader of Opposition", "Opposition"},
		{"Opposition Whip", "Opposition"},
		{"Opposition Reply", "Opposition"},
	},
	"WS": {
		{"First Speaker (Gov)", "Government"},
		{"Second Speaker (Gov)", "Government"},
		{"Third Speaker (Gov)", "Government"},
		{"First Speaker (Opp)", "Opposition"},
		{"Second Speaker (Opp)", "Opposition"},
		{"Third Speaker (Opp)", "Opposition"},
	},
	"BP": {
		{"Prime Minister", "Opening Government"},
		{"Deputy Prime Minister", "Opening Government"},
		{"Leader of Opposition", "Opening Opposition"},
		{"Deputy Leader of Opposition", "Opening Opposition"},
		{"Member of Government", "Closing Government"},
		{"Government Whip", "Closing Government"},
		{"Member of Opposition", "Closing Opposition"},
		{"Opposition Whip", "Closing Opposition"},
	},
}

const (
	StatusPrep      = "prep"
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
)

func ValidStatus(s string) bool {
	return s == StatusPrep || s == StatusOngoing || s == StatusCompleted
}

// Participants seats the caller in userRole and fills every other role with
// an AI speaker named after the role.
func Participants(debateType, userRole, userName string) ([]schemas.Participant, error) {
	roles, ok := Formats[debateType]
	if !ok {
		return nil, apperr.New(apperr.Validation, "unsupported debate format %q", debateType)
	}
	if userName == "" {
		userName = "You"
	}
	out := make([]schemas.Participant, 0, len(roles))
	for _, r := range roles {
		p := schemas.Participant{Name: r.Role, IsAI: true, Role: r.Role, Team: r.Team}
		if r.Role == userRole {
			p.Name, p.IsAI = userName, false
		}
		out = append(out, p)
	}
	return out, nil
}

// Completer answers a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Writer produces AI speeches and points of information.
type Writer struct {
	LLM Completer
}

func SpeechPrompt(sess *schemas.Session, speakerRole string) string {
	history := make([]string, 0, len(sess.Transcript))
	for _, e := range sess.Transcript {
		history = append(history, e.Speaker+": "+e.Text)
	}
	return fmt.Sprintf(`You are an expert AI debater performing as %q in a %q debate.
The motion is: %q

Below is the transcript of the debate so far. Your task is to generate the next speech.
--- DEBATE HISTORY ---
%s
--- END HISTORY ---

Instructions:
- Your response must be only the speech text for %q.
- Directly address and rebut arguments made by the opposing team from the transcript.
- Advance your own team's case with new analysis or evidence.
- Maintain a formal, persuasive, and structured parliamentary tone.
- The speech should be approximately 850-950 words.
`, speakerRole, sess.DebateType, sess.Motion, strings.Join(history, "\n\n"), speakerRole)
}

func POIPrompt(req schemas.GeneratePOIRequest) string {
	return fmt.Sprintf(`You are an AI debater listening to the speech of %q in a parliamentary debate on the motion:
%q.

The speaker just said:
%q

Generate a short and sharp Point of Information (POI), a question or rebuttal that challenges the logic or assumptions of the argument. Keep it under 2 sentences. No explanation, just the POI itself.
`, req.TargetSpeakerRole, req.Motion, req.CurrentSpeech)
}

func (w *Writer) Speech(ctx context.Context, sess *schemas.Session, speakerRole string) (string, error) {
	if strings.TrimSpace(speakerRole) == "" {
		return "", apperr.New(apperr.Validation, "sessionId and speakerRole are required")
	}
	text, err := w.LLM.Complete(ctx, SpeechPrompt(sess, speakerRole))
	if err != nil {
		return "", apperr.Wrap(apperr.Upstream, err, "speech generation failed")
	}
	return text, nil
}

func (w *Writer) POI(ctx context.Context, req schemas.GeneratePOIRequest) (string, error) {
	if req.TargetSpeakerRole == "" || req.CurrentSpeech == "" || req.Motion == "" {
		return "", apperr.New(apperr.Validation, "required fields: targetSpeakerRole, currentSpeech, motion")
	}
	text, err := w.LLM.Complete(ctx, POIPrompt(req))
	if err != nil {
		return "", apperr.Wrap(apperr.Upstream, err, "POI generation failed")
	}
	return strings.TrimSpace(text), nil
}
