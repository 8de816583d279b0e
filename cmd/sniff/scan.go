package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/praetorian-inc/sniff"
	"github.com/praetorian-inc/sniff/pkg/enum"
	"github.com/praetorian-inc/sniff/pkg/sarif"
	"github.com/praetorian-inc/sniff/pkg/store"
	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/spf13/cobra"
)

var (
	scanSignaturesPath    string
	scanSignaturesInclude string
	scanSignaturesExclude string
	scanOutputPath        string
	scanOutputFormat      string
	scanMaxFileSize       int64
	scanIncludeHidden     bool
	scanFollowSymlinks    bool
	scanIncremental       bool
	scanWorkers           int
	scanMaxDepth          int
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Detect the media type of every file under a target",
	Long: `Walk a file or directory, detect the media type of each file and store
the results in a datastore for later reporting.

.gitignore rules at the root of the target are honoured.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanSignaturesPath, "signatures", "", "Path to custom signatures file or directory")
	scanCmd.Flags().StringVar(&scanSignaturesInclude, "signatures-include", "", "Include signatures matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanSignaturesExclude, "signatures-exclude", "", "Exclude signatures matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "sniff.db", "Output database path (:memory: for no database)")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: json, sarif, human")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 0, "Skip files larger than this many bytes (0 for no limit)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().BoolVar(&scanFollowSymlinks, "follow-symlinks", false, "Follow symbolic links to files")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip files already stored with the same size")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Files read in parallel (0 for one per CPU)")
	scanCmd.Flags().IntVar(&scanMaxDepth, "max-depth", sniff.DefaultMaxDepth, "Compression layers to unwrap (0 to disable)")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	// Validate target exists
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("target does not exist: %s", target)
	}

	switch scanOutputFormat {
	case "human", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}

	sigs, err := loadSignatures(scanSignaturesPath, scanSignaturesInclude, scanSignaturesExclude)
	if err != nil {
		return err
	}

	detector, err := newDetector(cmd, sigs, scanMaxDepth)
	if err != nil {
		return err
	}

	// Create store
	s, err := store.New(store.Config{
		Path: scanOutputPath,
	})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	var fileCount, identifiedCount, skippedCount atomic.Int64

	config := enum.Config{
		Root:           target,
		IncludeHidden:  scanIncludeHidden,
		MaxFileSize:    scanMaxFileSize,
		FollowSymlinks: scanFollowSymlinks,
		Workers:        scanWorkers,
	}
	if scanIncremental {
		config.Skip = func(e enum.Entry) bool {
			exists, err := s.DetectionExists(e.Path, e.Size)
			if err != nil {
				warnf(cmd, "checking %s: %v", e.Path, err)
				return false
			}
			if exists {
				skippedCount.Add(1)
				debugf(cmd, "skipping %s (unchanged)", e.Path)
			}
			return exists
		}
	}

	enumerator := enum.NewFilesystemEnumerator(config)
	err = enumerator.Enumerate(context.Background(), func(ctx context.Context, entry enum.Entry, r io.Reader) error {
		d, err := detector.DetectReader(r)
		if err != nil {
			return fmt.Errorf("detecting %s: %w", entry.Path, err)
		}
		d.Path = entry.Path
		d.Size = entry.Size

		if err := s.AddDetection(d); err != nil {
			return fmt.Errorf("storing detection: %w", err)
		}

		fileCount.Add(1)
		if d.Matched() {
			identifiedCount.Add(1)
		}
		debugf(cmd, "%s: %s", entry.Path, d.LayerString())
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	if scanIncremental {
		logf(cmd, "Scan complete: %d files, %d identified (%d skipped)", fileCount.Load(), identifiedCount.Load(), skippedCount.Load())
	} else {
		logf(cmd, "Scan complete: %d files, %d identified", fileCount.Load(), identifiedCount.Load())
	}
	if scanOutputPath != ":memory:" {
		logf(cmd, "Results stored in: %s", scanOutputPath)
	}

	detections, err := s.GetDetections()
	if err != nil {
		return fmt.Errorf("retrieving detections: %w", err)
	}

	switch scanOutputFormat {
	case "json":
		return outputDetectionsJSON(cmd, detections)
	case "sarif":
		return outputSARIF(cmd, sigs, detections)
	default:
		return outputMediaTypeSummary(cmd, s)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// outputSARIF outputs detections in SARIF 2.1.0 format
func outputSARIF(cmd *cobra.Command, sigs []*types.Signature, detections []*types.Detection) error {
	report := sarif.NewReport()

	for _, sig := range sigs {
		report.AddRule(sig)
	}
	for _, d := range detections {
		report.AddResult(d)
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}

	_, err = cmd.OutOrStdout().Write(append(jsonBytes, '\n'))
	if err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

// outputMediaTypeSummary prints detection counts per outermost media type.
func outputMediaTypeSummary(cmd *cobra.Command, s store.Store) error {
	counts, err := s.CountByMediaType()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(counts) == 0 {
		fmt.Fprintf(out, "\nNo files.\n")
		return nil
	}

	fmt.Fprintf(out, "\nMedia types:\n")
	for _, mt := range sortedMediaTypes(counts) {
		fmt.Fprintf(out, "  %6d  %s\n", counts[mt], mt)
	}
	return nil
}
