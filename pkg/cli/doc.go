/*
Package cli provides command-line helpers for the relayscrub command.

The cli package includes output formatters, a progress reporter for event
streams, exit code mapping and signal handling.

Output Formatting:

Reports and lint results can be rendered as text or JSON:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stderr, report); err != nil {
		return err
	}

Values implementing fmt.Stringer control their own text rendering.

Progress Reporting:

For event streams whose length is not known upfront, start the reporter
with a total of 0; it then reports counts and rates only:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(0)
	for scanner.Scan() {
		// Scrub one event
		progress.Increment()
	}
	progress.Finish()

Exit Codes:

ExitCode maps command errors to process exit codes, so that a rejected
event is distinguishable from a broken configuration.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
