package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"debate-adjudicator/internal/adjudication"
	"debate-adjudicator/internal/config"
	"debate-adjudicator/internal/llm"
	"debate-adjudicator/internal/transcript"
)

func newAdjudicateCmd() *cobra.Command {
	var (
		file   string
		form   adjudication.UploadForm
		tmpDir string
	)
	cmd := &cobra.Command{
		Use:   "adjudicate",
		Short: "Adjudicate a local .txt or .pdf transcript and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			prov, err := adjudication.UploadProvenance(form, filepath.Base(file))
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Gemini.APIKey == "" {
				return errors.New("GEMINI_API_KEY is required")
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			st, err := f.Stat()
			if err != nil {
				return err
			}
			if tmpDir == "" {
				tmpDir = os.TempDir()
			}
			reader, err := transcript.NewReader(tmpDir)
			if err != nil {
				return err
			}
			ext, err := reader.FromUpload(f, transcript.Upload{
				Filename:    filepath.Base(file),
				ContentType: mime.TypeByExtension(filepath.Ext(file)),
				Size:        st.Size(),
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			gem, err := llm.NewGemini(ctx, cfg.Gemini)
			if err != nil {
				return err
			}
			defer gem.Close()

			res, err := adjudication.NewEngine(gem).Run(ctx, ext.Text)
			if err != nil {
				return err
			}
			rec, err := adjudication.Assemble(res, "local", prov)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the transcript (.txt or .pdf)")
	cmd.Flags().StringVar(&form.FormatName, "format", "", "Debate format name (required)")
	cmd.Flags().StringVar(&form.Motion, "motion", "", "Motion debated")
	cmd.Flags().StringVar(&form.Teams, "teams", "", "Teams as a JSON value")
	cmd.Flags().StringVar(&tmpDir, "tmp-dir", "", "Directory for temporary upload files")
	return cmd
}
