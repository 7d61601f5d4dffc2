/*
Package cli provides helpers shared by the epicorbridge commands: output
formatting (text, JSON and CSV), typed command and configuration errors
with their exit codes, and signal handling.

Commands render results through a Formatter:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}

Results implementing Table can also be written as CSV or as tab-separated
text.
*/
package cli
