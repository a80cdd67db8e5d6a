package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mercator-hq/stormwatch/pkg/advisor"
	"mercator-hq/stormwatch/pkg/api"
	"mercator-hq/stormwatch/pkg/api/types"
	"mercator-hq/stormwatch/pkg/cli"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/scenario"
	"mercator-hq/stormwatch/pkg/server"
)

var evaluateFlags struct {
	pretty     bool
	hashOnly   bool
	noEvidence bool
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [file...]",
	Short: "Evaluate scenario files",
	Long: `Evaluate one or more scenario JSON documents and print the response.

With no file, or with "-", the scenario is read from stdin. Each response is
written as one JSON document. A document that is not a JSON object is
reported with the invalid_input escalation flag and the command exits with
status 2.

Examples:
  # Evaluate a file
  stormwatch evaluate storm.json --pretty

  # Read from stdin
  cat storm.json | stormwatch evaluate

  # Print only the deterministic hash
  stormwatch evaluate storm.json --hash-only`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().BoolVar(&evaluateFlags.pretty, "pretty", false, "indent JSON output")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.hashOnly, "hash-only", false, "print only the deterministic hash")
	evaluateCmd.Flags().BoolVar(&evaluateFlags.noEvidence, "no-evidence", false, "do not record evaluations in the evidence store")
}

// evaluator is the part of advisor.Service the CLI uses.
type evaluator interface {
	Evaluate(ctx context.Context, in scenario.Input, meta advisor.Meta) *engine.Response
}

type document struct {
	name string
	data []byte
}

type outputOptions struct {
	pretty   bool
	hashOnly bool
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	docs, err := readDocuments(cmd.InOrStdin(), args)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if evaluateFlags.noEvidence {
		cfg.Evidence.Enabled = false
	}

	tel, err := newTelemetry(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer tel.Shutdown(context.Background())

	app, err := server.NewApp(cfg, tel)
	if err != nil {
		return cli.NewCommandError("evaluate", err)
	}
	defer app.Close()

	return evaluateDocuments(cmd.Context(), cmd.OutOrStdout(), app.Service, docs, outputOptions{
		pretty:   evaluateFlags.pretty,
		hashOnly: evaluateFlags.hashOnly,
	})
}

func readDocuments(stdin io.Reader, args []string) ([]document, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	docs := make([]document, 0, len(args))
	for _, name := range args {
		var (
			data []byte
			err  error
		)
		if name == "-" {
			data, err = io.ReadAll(stdin)
			name = "stdin"
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		docs = append(docs, document{name: name, data: data})
	}
	return docs, nil
}

// evaluateDocuments evaluates every document in order. It returns an
// InputError for the first document that could not be parsed.
func evaluateDocuments(ctx context.Context, w io.Writer, svc evaluator, docs []document, opts outputOptions) error {
	var firstErr error
	for _, doc := range docs {
		if err := evaluateDocument(ctx, w, svc, doc, opts, len(docs) > 1); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func evaluateDocument(ctx context.Context, w io.Writer, svc evaluator, doc document, opts outputOptions, named bool) error {
	in, err := api.ParseScenario(doc.data)
	if err != nil {
		var reqErr *api.RequestError
		if !errors.As(err, &reqErr) {
			return cli.NewInputError(doc.name, err)
		}
		if writeErr := writeJSON(w, types.NewInvalidInput(reqErr.Detail()), opts.pretty); writeErr != nil {
			return writeErr
		}
		return cli.NewInputError(doc.name, err)
	}

	resp := svc.Evaluate(ctx, in, advisor.Meta{RequestID: uuid.NewString(), Source: evidence.SourceCLI})

	if opts.hashOnly {
		if named {
			_, err := fmt.Fprintf(w, "%s  %s\n", resp.Meta.DeterministicHash, doc.name)
			return err
		}
		_, err := fmt.Fprintln(w, resp.Meta.DeterministicHash)
		return err
	}
	return writeJSON(w, resp, opts.pretty)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	return (&cli.JSONFormatter{Indent: pretty}).FormatTo(w, v)
}
