package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/praetorian-inc/sniff/pkg/store"
	"github.com/spf13/cobra"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <a.db> <b.db> [more.db...]",
	Short: "Combine scan datastores into one",
	Long: `Copy the detections of several scan datastores into one output datastore,
for example to join scans of different machines before running report.

A path stored in more than one datastore keeps its most recent detection.
The output may already exist; it is merged into, never truncated.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Datastore to merge into")
}

func runMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Source\tRead\tWritten\n")
	for _, src := range stats.Sources {
		fmt.Fprintf(w, "%s\t%d\t%d\n", src.Path, src.Read, src.Merged)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d of %d sources merged into %s (%d detections)\n",
		stats.SourcesProcessed, len(args), mergeOutput, stats.Total)

	s, err := store.New(store.Config{Path: mergeOutput})
	if err != nil {
		return fmt.Errorf("opening %s: %w", mergeOutput, err)
	}
	defer s.Close()
	return outputMediaTypeSummary(cmd, s)
}
