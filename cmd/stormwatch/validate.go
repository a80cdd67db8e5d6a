package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/stormwatch/pkg/api"
	"mercator-hq/stormwatch/pkg/cli"
	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/scenario"
)

var validateFlags struct {
	scenarios []string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and scenario files",
	Long: `Validate the configuration and, optionally, scenario documents.

The configuration is loaded the same way as by "stormwatch run": defaults,
then the config file, then STORMWATCH_* environment overrides. Every invalid
field is reported.

Scenario documents are normalized without being evaluated. Data quality
warnings from normalization are listed for each file.

Examples:
  # Validate a config file
  stormwatch validate --config /etc/stormwatch/config.yaml

  # Also check scenario documents
  stormwatch validate --scenario storm.json --scenario flood.json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringSliceVar(&validateFlags.scenarios, "scenario", nil, "scenario file to check (repeatable)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if err := validateConfigFile(out, cfgFile); err != nil {
		return err
	}

	var firstErr error
	for _, path := range validateFlags.scenarios {
		if err := validateScenarioFile(out, path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func validateConfigFile(w io.Writer, path string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return cli.NewConfigError("", err.Error())
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return cli.NewConfigError("", err.Error())
	}

	if err := config.Validate(cfg); err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				fmt.Fprintf(w, "✗ %s\n", fe.Error())
			}
			return cli.NewConfigError("", fmt.Sprintf("%d invalid fields", len(verr.Errors)))
		}
		return cli.NewConfigError("", err.Error())
	}

	name := path
	if name == "" {
		name = "defaults"
	}
	fmt.Fprintf(w, "✓ Configuration valid (%s)\n", name)
	return nil
}

func validateScenarioFile(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "✗ %s: %v\n", path, err)
		return cli.NewCommandError("validate", err)
	}

	in, err := api.ParseScenario(data)
	if err != nil {
		fmt.Fprintf(w, "✗ %s: %v\n", path, err)
		return cli.NewInputError(path, err)
	}

	s, warnings := scenario.Normalize(in)
	fmt.Fprintf(w, "✓ %s: scenario %s (%s, %s), %d warnings\n", path, s.ScenarioID, s.HazardType, s.Phase, len(warnings))
	for _, warning := range warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
	return nil
}
