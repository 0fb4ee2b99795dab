package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"debate-adjudicator/internal/schemas"
)

func newSmokeCmd() *cobra.Command {
	var (
		base    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Register a user, debate a short round and adjudicate it against a running API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmoke(cmd.Context(), cmd.OutOrStdout(), base, timeout)
		},
	}
	cmd.Flags().StringVar(&base, "base", envOr("API_BASE_URL", "http://localhost:8000"), "API base URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 4*time.Minute, "Timeout for the adjudication request")
	return cmd
}

type registerResp struct {
	User     schemas.User `json:"user"`
	APIToken string       `json:"apiToken"`
}

func runSmoke(ctx context.Context, out io.Writer, base string, timeout time.Duration) error {
	c := &apiClient{http: &http.Client{Timeout: timeout}, base: base + "/api/v1"}
	suffix := uuid.NewString()[:8]

	// 1) Register
	var reg registerResp
	if err := c.do(ctx, http.MethodPost, "/users/register", map[string]string{
		"fullName": "Smoke Tester",
		"email":    "smoke-" + suffix + "@example.com",
		"username": "smoke-" + suffix,
	}, &reg); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	c.token = reg.APIToken
	fmt.Fprintf(out, "registered user %s\n", reg.User.Username)

	// 2) Create a session
	var sess schemas.Session
	if err := c.do(ctx, http.MethodPost, "/debates/", schemas.CreateSessionRequest{
		Title:      "Smoke round",
		DebateType: "AP",
		Motion:     "This House would ban zoos",
		UserRole:   "Prime Minister",
	}, &sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	fmt.Fprintf(out, "created session %s\n", sess.ID)

	// 3) Record a transcript
	status := "completed"
	if err := c.do(ctx, http.MethodPatch, "/debates/"+sess.ID, schemas.UpdateSessionRequest{
		Status:     &status,
		Transcript: smokeTranscript,
	}, &sess); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	fmt.Fprintf(out, "recorded %d speeches\n", len(sess.Transcript))

	// 4) Adjudicate
	var rec schemas.Adjudication
	if err := c.do(ctx, http.MethodPost, "/adjudications/", schemas.CreateAdjudicationRequest{SessionID: sess.ID}, &rec); err != nil {
		return fmt.Errorf("adjudicate: %w", err)
	}
	fmt.Fprintf(out, "adjudication %s winner=%s\n", rec.ID, rec.OverallWinner)

	// 5) Read it back
	var got schemas.Adjudication
	if err := c.do(ctx, http.MethodGet, "/adjudications/"+rec.ID, nil, &got); err != nil {
		return fmt.Errorf("get adjudication: %w", err)
	}
	if got.Session == nil || got.Session.ID != sess.ID {
		return fmt.Errorf("adjudication %s is not linked to session %s", got.ID, sess.ID)
	}
	fmt.Fprintln(out, compactJSON(got.Scorecard))
	fmt.Fprintf(out, "smoke run OK. adjudication=%s\n", rec.ID)
	return nil
}

var smokeTranscript = []schemas.TranscriptEntry{
	{Speaker: "Prime Minister", Type: "speech", Timestamp: "00:00", Text: "Zoos confine animals for entertainment. We would close them and move animals to sanctuaries."},
	{Speaker: "Leader of Opposition", Type: "speech", Timestamp: "07:10", Text: "Accredited zoos fund conservation and breed endangered species that would otherwise vanish."},
	{Speaker: "Deputy Prime Minister", Type: "speech", Timestamp: "14:20", Text: "Sanctuaries and habitat protection do conservation better, without the harm of captivity."},
	{Speaker: "Opposition Reply", Type: "speech", Timestamp: "21:30", Text: "Government never showed sanctuaries can scale. Conservation outcomes favour us."},
}

// --- helpers ---

type apiClient struct {
	http  *http.Client
	base  string
	token string
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s %s -> %d: %s", method, path, res.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func compactJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
