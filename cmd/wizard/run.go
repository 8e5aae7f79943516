package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"resume-wizard/internal/bootstrap"
	"resume-wizard/internal/generation"
	"resume-wizard/internal/resume"
	"resume-wizard/internal/shared/config"
	"resume-wizard/internal/shared/telemetry"
	"resume-wizard/internal/wizard"
)

var (
	runSessionID string
	runStore     string
	runDBPath    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start or resume a wizard session",
	Long: `Start or resume a wizard session in the terminal.

Answers are checkpointed after every change. Passing --session with an
existing id reloads the stored document; omitting it starts a new session.`,
	RunE: runWizardCommand,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSessionID, "session", "s", "", "Session id to resume (default: new session)")
	runCmd.Flags().StringVar(&runStore, "store", "sqlite", "Session store: sqlite, postgres, redis, object, memory")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "SQLite file (default: SQLITE_PATH or ./resumeBuilder.db)")
}

func runWizardCommand(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(runStore))
	if runDBPath != "" {
		cfg.SQLitePath = runDBPath
	}
	// One interactive user; a long pause at a prompt must not end the session.
	cfg.SessionIdleTTL = 0
	// Keep log lines off the prompt area unless asked for.
	telemetry.Init(valueOr(os.Getenv("LOG_LEVEL"), "error"), "console")
	defer telemetry.Sync()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer app.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runWizard(ctx, app.WizardService, surveyDriver{}, cmd.OutOrStdout(), runSessionID)
	if errors.Is(err, errAborted) {
		return nil
	}
	return err
}

// Menu actions.
const (
	actionEdit     = "Edit this section"
	actionNext     = "Next"
	actionBack     = "Back"
	actionGenerate = "Generate resume"
	actionShow     = "Show generated resume"
	actionReset    = "Start over"
	actionQuit     = "Save and quit"
)

var templateChoices = []string{resume.DefaultTemplate, "modern", "minimal", "creative"}

var personalFields = []string{"name", "email", "phone", "location", "summary"}

var recordFields = map[resume.Section][]string{
	resume.SectionExperience: {"company", "title", "startDate", "endDate", "description"},
	resume.SectionEducation:  {"school", "degree", "field", "graduationDate"},
}

// runWizard drives one session until the user quits. The session is ended
// on return; its document stays in the store.
func runWizard(ctx context.Context, svc *wizard.Service, d promptDriver, out io.Writer, sessionID string) error {
	view, err := svc.Start(ctx, sessionID)
	if err != nil {
		return err
	}
	defer func() { _ = svc.End(view.SessionID) }()

	fmt.Fprintf(out, "Session %s\n", view.SessionID)

	for {
		fmt.Fprintf(out, "\nStep %d/%d: %s\n", int(view.Step)+1, wizard.StepCount, view.StepLabel)
		if view.LastError != "" {
			fmt.Fprintf(out, "Last generation failed: %s\n", view.LastError)
		}

		action, err := d.Select(ctx, "What next?", actionsFor(view), "")
		if err != nil {
			return err
		}

		var next wizard.View
		switch action {
		case actionEdit:
			next, err = editSection(ctx, svc, d, view)
		case actionNext:
			next, err = svc.Advance(ctx, view.SessionID)
		case actionBack:
			next, err = svc.Retreat(ctx, view.SessionID)
		case actionGenerate:
			fmt.Fprintln(out, "Generating...")
			next, err = svc.Submit(ctx, view.SessionID)
			if err == nil && next.ATSScore != nil {
				fmt.Fprintf(out, "ATS score: %.0f\n", *next.ATSScore)
			}
		case actionShow:
			next = view
			err = printArtifact(out, view)
		case actionReset:
			ok, cerr := d.Confirm(ctx, "Discard every answer and start over?", false)
			if cerr != nil {
				return cerr
			}
			if !ok {
				continue
			}
			next, err = svc.Reset(ctx, view.SessionID)
		case actionQuit:
			fmt.Fprintf(out, "Saved. Resume with: wizard run --session %s\n", view.SessionID)
			return nil
		default:
			return fmt.Errorf("unknown action %q", action)
		}

		if err != nil {
			if !recoverable(err) {
				return err
			}
			fmt.Fprintf(out, "Error: %s\n", describe(err))
		}
		if next.SessionID != "" {
			view = next
		}
	}
}

func actionsFor(v wizard.View) []string {
	var actions []string
	if _, ok := v.Step.Section(); ok {
		actions = append(actions, actionEdit)
	}
	switch v.Step {
	case wizard.StepTemplate:
		actions = append(actions, actionGenerate)
	case wizard.StepPreview:
		actions = append(actions, actionShow)
	default:
		actions = append(actions, actionNext)
	}
	if v.Step != wizard.StepPersonal {
		actions = append(actions, actionBack)
	}
	return append(actions, actionReset, actionQuit)
}

func editSection(ctx context.Context, svc *wizard.Service, d promptDriver, v wizard.View) (wizard.View, error) {
	section, ok := v.Step.Section()
	if !ok {
		return v, nil
	}

	var value any
	var err error
	switch section {
	case resume.SectionPersonal:
		value, err = askRecord(ctx, d, personalFields, v.Document.Personal)
	case resume.SectionExperience:
		value, err = askRecords(ctx, d, "experience", recordFields[section], v.Document.Experience)
	case resume.SectionEducation:
		value, err = askRecords(ctx, d, "education", recordFields[section], v.Document.Education)
	case resume.SectionSkills:
		value, err = askSkills(ctx, d, v.Document.Skills)
	case resume.SectionTemplate:
		value, err = d.Select(ctx, "Template", templateChoices, v.Document.TemplateID())
	}
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return v, err
	}
	return svc.Update(ctx, v.SessionID, section, raw)
}

func askRecord(ctx context.Context, d promptDriver, fields []string, current map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(current))
	for k, val := range current {
		out[k] = val
	}
	for _, field := range fields {
		def, _ := current[field].(string)
		answer, err := d.Input(ctx, field, def)
		if err != nil {
			return nil, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			delete(out, field)
			continue
		}
		out[field] = answer
	}
	return out, nil
}

// askRecords keeps existing entries the user confirms and appends new ones.
func askRecords(ctx context.Context, d promptDriver, label string, fields []string, current []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(current))
	for i, rec := range current {
		keep, err := d.Confirm(ctx, fmt.Sprintf("Keep %s entry %d (%s)?", label, i+1, summarize(rec, fields)), true)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, rec)
		}
	}
	for {
		more, err := d.Confirm(ctx, fmt.Sprintf("Add a %s entry?", label), len(out) == 0)
		if err != nil {
			return nil, err
		}
		if !more {
			return out, nil
		}
		rec, err := askRecord(ctx, d, fields, nil)
		if err != nil {
			return nil, err
		}
		if len(rec) > 0 {
			out = append(out, rec)
		}
	}
}

func askSkills(ctx context.Context, d promptDriver, current []any) ([]any, error) {
	existing := make([]string, 0, len(current))
	for _, s := range current {
		existing = append(existing, fmt.Sprint(s))
	}
	answer, err := d.Input(ctx, "Skills (comma separated)", strings.Join(existing, ", "))
	if err != nil {
		return nil, err
	}
	out := []any{}
	for _, part := range strings.Split(answer, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

func summarize(rec map[string]any, fields []string) string {
	var parts []string
	for _, f := range fields[:min(2, len(fields))] {
		if s, ok := rec[f].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "untitled"
	}
	return strings.Join(parts, ", ")
}

func printArtifact(out io.Writer, v wizard.View) error {
	if v.Artifact == nil {
		fmt.Fprintln(out, "No resume generated yet.")
		return nil
	}
	body, err := json.MarshalIndent(v.Artifact, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", body)
	return nil
}

// recoverable reports whether the loop should show err and keep going.
func recoverable(err error) bool {
	switch {
	case errors.Is(err, generation.ErrGenerationUnavailable),
		errors.Is(err, generation.ErrMalformedResponse),
		errors.Is(err, wizard.ErrInvalidStep),
		errors.Is(err, wizard.ErrSubmitRequired),
		errors.Is(err, wizard.ErrNotSubmitStep),
		errors.Is(err, wizard.ErrSubmitInFlight),
		errors.Is(err, wizard.ErrSubmitSuperseded),
		errors.Is(err, resume.ErrInvalidSectionValue):
		return true
	default:
		return false
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, generation.ErrGenerationUnavailable):
		return "the generator is unavailable; try again"
	case errors.Is(err, generation.ErrMalformedResponse):
		return "the generator returned an unusable resume; try again"
	default:
		return err.Error()
	}
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
