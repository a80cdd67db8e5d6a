/*
Package cli provides command-line helpers for the stormwatch command.

Output Formatting:

Command results are written as text, JSON or CSV. Results that implement
Table render as rows in text and CSV:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

Long exports report progress on stderr:

	progress := cli.NewProgressReporter(os.Stderr, "Exporting")
	progress.Start(total)
	progress.Update(n)
	progress.Finish()

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for rejected scenario
input (InputError), 3 for configuration errors (ConfigError) and 1 for
anything else.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
