package adjudication

import (
	"encoding/json"
	"strings"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
)

const defaultMotion = "Motion not specified"

// Provenance records where the judged transcript came from.
type Provenance struct {
	Source           string
	SessionID        *string
	FormatName       string
	Motion           string
	Teams            json.RawMessage
	OriginalFileName string
	TranscriptRef    string
}

// SessionProvenance describes a transcript taken from a stored session. The
// session's debate type doubles as the format name.
func SessionProvenance(s *schemas.Session) Provenance {
	id := s.ID
	return Provenance{
		Source:     schemas.SourceSession,
		SessionID:  &id,
		FormatName: s.DebateType,
		Motion:     s.Motion,
	}
}

// UploadForm is the metadata sent alongside an uploaded transcript.
type UploadForm struct {
	FormatName string
	Motion     string
	Teams      string
}

// UploadProvenance validates the upload form. Teams, when present, must be
// a JSON document; it is checked here so a bad form never reaches the model.
func UploadProvenance(form UploadForm, filename string) (Provenance, error) {
	format := strings.TrimSpace(form.FormatName)
	if format == "" {
		return Provenance{}, apperr.New(apperr.Validation, "format name is required")
	}
	motion := strings.TrimSpace(form.Motion)
	if motion == "" {
		motion = defaultMotion
	}
	var teams json.RawMessage
	if t := strings.TrimSpace(form.Teams); t != "" {
		if !json.Valid([]byte(t)) {
			return Provenance{}, apperr.New(apperr.Validation, "teams must be valid JSON")
		}
		teams = json.RawMessage(t)
	}
	return Provenance{
		Source:           schemas.SourceUpload,
		FormatName:       format,
		Motion:           motion,
		Teams:            teams,
		OriginalFileName: filename,
	}, nil
}

// Assemble builds the record to persist from the three stage outputs. Every
// stage must be present; nothing partial is ever produced.
func Assemble(res *Result, adjudicatorID string, prov Provenance) (*schemas.Adjudication, error) {
	if adjudicatorID == "" {
		return nil, apperr.New(apperr.Validation, "adjudicator is required")
	}
	if res == nil || res.Scorecard == nil {
		return nil, apperr.New(apperr.Internal, "adjudication is missing the scorecard stage")
	}
	if res.ChainOfThought == nil {
		return nil, apperr.New(apperr.Internal, "adjudication is missing the chain of thought stage")
	}
	if res.DetailedFeedback == nil {
		return nil, apperr.New(apperr.Internal, "adjudication is missing the detailed feedback stage")
	}

	source := prov.Source
	if source == "" {
		source = schemas.SourceSession
	}
	return &schemas.Adjudication{
		SessionID:        prov.SessionID,
		AdjudicatorID:    adjudicatorID,
		FormatName:       prov.FormatName,
		Motion:           prov.Motion,
		Teams:            prov.Teams,
		TranscriptSource: source,
		OriginalFileName: prov.OriginalFileName,
		TranscriptRef:    prov.TranscriptRef,
		OverallWinner:    res.Scorecard.OverallWinner,
		TeamRankings:     res.Scorecard.TeamRankings,
		Scorecard:        res.Scorecard.Scorecard,
		ChainOfThought:   res.ChainOfThought,
		DetailedFeedback: res.DetailedFeedback,
	}, nil
}
