package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "sniff",
	Short: "Sniff - magic-byte media type detection",
	Long: `Sniff identifies what files and streams contain by matching magic bytes
at known offsets, regardless of their names or extensions.

Compressed content (gzip, zstd, xz, bzip2, lz4, snappy) is unwrapped so the
payload is identified as well.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(signaturesCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logf writes a progress line to stderr unless --quiet is set.
func logf(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// debugf writes a line to stderr only with --verbose.
func debugf(cmd *cobra.Command, format string, args ...any) {
	if !verbose || quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// warnf writes a warning to stderr. Warnings are shown even with --quiet.
func warnf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: "+format+"\n", args...)
}
