package adjudication

// Stage is one prompt/response cycle of an adjudication.
type Stage int

const (
	StageScorecard Stage = iota
	StageChainOfThought
	StageDetailedFeedback
)

// Stages lists the stages in the order they run.
var Stages = []Stage{StageScorecard, StageChainOfThought, StageDetailedFeedback}

func (s Stage) String() string {
	switch s {
	case StageScorecard:
		return "scorecard"
	case StageChainOfThought:
		return "chainOfThought"
	case StageDetailedFeedback:
		return "detailedFeedback"
	}
	return "unknown"
}

// Prompt returns the fixed instruction sent before the transcript.
func (s Stage) Prompt() string {
	switch s {
	case StageScorecard:
		return scorecardPrompt
	case StageChainOfThought:
		return chainOfThoughtPrompt
	case StageDetailedFeedback:
		return detailedFeedbackPrompt
	}
	return ""
}

const scorecardPrompt = `You are an adjudicator for a formal parliamentary debate (Asian/BP/World Schools format).
Given the full transcript of the debate, generate ONLY this partial adjudication JSON structure:
{
  "overallWinner": string,
  "teamRankings": [ { "rank": number, "team": string, "score": number } ],
  "scorecard": {
    [teamName: string]: {
      "matter": number,
      "manner": number,
      "method": number,
      "color": string
    }
  }
}

SCORING GUIDELINES:
- All scores (matter, manner, method, team rankings) must be out of 100 (0-100 range)
- Matter: Content, arguments, logic, evidence (0-100)
- Manner: Delivery, presentation, persuasiveness (0-100)
- Method: Structure, time management, teamwork (0-100)
- Team ranking scores should be the sum of individual speaker scores

Only return valid JSON. Do NOT include any commentary or markdown (like ` + "```" + `). Invalid JSON will break the application.`

const chainOfThoughtPrompt = `Now generate the chain of thought analysis in the following format. Name a winner for every clash; it must not be unclear:
{
  "chainOfThought": {
    "title": string,
    "clashes": [
      {
        "id": string,
        "title": string,
        "weight": number,
        "winner": string,
        "summary": string
      }
    ]
  }
}

CRITICAL WEIGHT REQUIREMENTS:
- Weight MUST be a number between 1 and 99 (inclusive)
- NO values above 99 are allowed
- NO percentages, just the raw number (e.g. use 85, NOT 85% or 8500)
- Weight represents relative importance:
  * 90-99: Absolutely crucial clash that determines the debate
  * 70-89: Very important clash with significant impact
  * 50-69: Important clash that affects the outcome
  * 30-49: Moderate clash with some relevance
  * 10-29: Minor clash with limited impact
  * 1-9: Minimal clash with very little significance

EXAMPLES OF CORRECT WEIGHTS: 85, 72, 45, 23, 8
EXAMPLES OF INCORRECT WEIGHTS: 8500, 90%, 150, 9000

Only return valid JSON. Do NOT include any commentary or markdown (like ` + "```" + `).`

const detailedFeedbackPrompt = `Now generate detailed feedback in the following structure:
{
  "detailedFeedback": {
    "replySpeeches": {
      "proposition": { "speaker": string, "score": number, "summary": string },
      "opposition": { "speaker": string, "score": number, "summary": string }
    },
    "speakers": [
      {
        "name": string,
        "team": string,
        "scores": {
          "matter": number,
          "manner": number,
          "method": number,
          "total": number
        },
        "roleFulfillment": string,
        "rhetoricalAnalysis": string,
        "timestampedComments": [ { "time": string, "comment": string } ]
      }
    ]
  }
}

SCORING GUIDELINES:
- All individual scores (matter, manner, method) must be out of 100 (0-100 range)
- Reply speech scores must be out of 100 (0-100 range)
- Total score should be the sum of matter + manner + method (0-300 range)
- Be consistent with the scores from the previous prompts

Only return valid JSON. No markdown, explanation, or commentary.`
