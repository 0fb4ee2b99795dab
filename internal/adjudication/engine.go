package adjudication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"syscall"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
)

const (
	maxAttempts    = 3
	attemptTimeout = 60 * time.Second
	sampleLen      = 200
)

// Generator is the narrow capability the engine needs from a language
// model: a fresh, stateless exchange that sends prompt and then input and
// returns the reply text.
type Generator interface {
	Generate(ctx context.Context, prompt, input string) (string, error)
}

// Engine runs the adjudication stages against a Generator with timeouts,
// retries and response validation.
type Engine struct {
	gen            Generator
	attempts       int
	attemptTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewEngine(gen Generator) *Engine {
	return &Engine{
		gen:            gen,
		attempts:       maxAttempts,
		attemptTimeout: attemptTimeout,
		sleep:          sleepCtx,
	}
}

// Result holds the validated output of all three stages.
type Result struct {
	Scorecard        *ScorecardPart
	ChainOfThought   *schemas.ChainOfThought
	DetailedFeedback *schemas.DetailedFeedback
}

// Run invokes every stage in order against the same transcript. The first
// failing stage aborts the run.
func (e *Engine) Run(ctx context.Context, transcript string) (*Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, apperr.New(apperr.Validation, "transcript is empty")
	}
	res := &Result{}
	for _, stage := range Stages {
		start := time.Now()
		p, err := e.Invoke(ctx, stage, transcript)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", stage, err)
		}
		slog.Info("adjudication stage complete", "stage", stage.String(), "duration_ms", time.Since(start).Milliseconds())
		switch v := p.(type) {
		case *ScorecardPart:
			res.Scorecard = v
		case *ChainOfThoughtPart:
			res.ChainOfThought = v.ChainOfThought
		case *DetailedFeedbackPart:
			res.DetailedFeedback = v.DetailedFeedback
		}
	}
	return res, nil
}

// Invoke runs one stage with up to e.attempts attempts.
func (e *Engine) Invoke(ctx context.Context, stage Stage, transcript string) (Partial, error) {
	for attempt := 1; attempt <= e.attempts; attempt++ {
		final := attempt == e.attempts

		raw, err := e.generate(ctx, stage, transcript)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("adjudication: %w", ctxErr)
			}
			slog.Warn("model request failed", "stage", stage.String(), "attempt", attempt, "error", err)

			var backoff time.Duration
			switch classify(err) {
			case failAuth:
				return nil, apperr.Wrap(apperr.UpstreamAuth, err, "invalid or missing model API key, check GEMINI_API_KEY")
			case failThrottled:
				return nil, apperr.Wrap(apperr.UpstreamThrottled, err, "model rate limit exceeded, try again later")
			case failTimeout:
				if final {
					return nil, apperr.Wrap(apperr.UpstreamTimeout, err, "model is taking too long to respond, try again later")
				}
				backoff = time.Duration(attempt) * 2 * time.Second
			case failNetwork:
				if final {
					return nil, apperr.Wrap(apperr.UpstreamUnavailable, err, "unable to connect to the model service")
				}
				backoff = time.Duration(attempt) * 3 * time.Second
			default:
				if final {
					return nil, apperr.Wrap(apperr.Upstream, err, "model service error")
				}
			}
			if backoff > 0 {
				if err := e.sleep(ctx, backoff); err != nil {
					return nil, fmt.Errorf("adjudication: %w", err)
				}
			}
			continue
		}

		p, err := decode(stage, raw)
		if err == nil {
			return p, nil
		}
		what := "was not valid JSON"
		if errors.Is(err, errSchemaMismatch) {
			what = "did not match the expected schema"
		}
		slog.Warn("unusable model response", "stage", stage.String(), "attempt", attempt, "error", err, "sample", truncate(raw, 500))
		if final {
			return nil, apperr.Wrap(apperr.MalformedOutput, err,
				"model response %s after %d attempts: %s...", what, e.attempts, truncate(raw, sampleLen))
		}
	}
	return nil, apperr.New(apperr.Internal, "adjudication: no attempts configured")
}

var errAttemptTimeout = errors.New("request timeout")

// generate races one exchange against the per-attempt deadline. The reply
// channel is buffered so an abandoned call can always finish.
func (e *Engine) generate(ctx context.Context, stage Stage, transcript string) (string, error) {
	actx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		text, err := e.gen.Generate(actx, stage.Prompt(), transcript)
		ch <- reply{text: text, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", errAttemptTimeout, e.attemptTimeout, r.err)
		}
		return strings.TrimSpace(r.text), r.err
	case <-actx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w after %s", errAttemptTimeout, e.attemptTimeout)
	}
}

type failure int

const (
	failOther failure = iota
	failAuth
	failThrottled
	failTimeout
	failNetwork
)

func classify(err error) failure {
	if errors.Is(err, errAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return failTimeout
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return failAuth
		case 429:
			return failThrottled
		case 504:
			return failTimeout
		case 502, 503:
			return failNetwork
		}
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return failAuth
		case codes.ResourceExhausted:
			return failThrottled
		case codes.DeadlineExceeded:
			return failTimeout
		case codes.Unavailable:
			return failNetwork
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"), strings.Contains(msg, "api_key"):
		return failAuth
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "resource_exhausted"):
		return failThrottled
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return failTimeout
	}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return failNetwork
	}

	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return failTimeout
	case strings.Contains(msg, "fetch failed"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection refused"), strings.Contains(msg, "connection reset"):
		return failNetwork
	}
	return failOther
}

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// stripFences removes a leading ```json (or ```) marker and a trailing ```.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// errSchemaMismatch marks a reply that parsed as JSON but did not have the
// shape the stage expects.
var errSchemaMismatch = errors.New("response does not match the expected schema")

func decode(stage Stage, raw string) (Partial, error) {
	cleaned := stripFences(raw)
	p := newPartial(stage)
	if err := json.Unmarshal([]byte(cleaned), p); err != nil {
		if json.Valid([]byte(cleaned)) {
			return nil, fmt.Errorf("%w: %v", errSchemaMismatch, err)
		}
		return nil, err
	}
	if key := p.missingKey(); key != "" {
		return nil, fmt.Errorf("%w: missing %q", errSchemaMismatch, key)
	}
	p.normalize()
	return p, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
