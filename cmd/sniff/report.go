package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/praetorian-inc/sniff/pkg/store"
	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	reportDatastore      string
	reportFormat         string
	reportColor          string
	reportSignaturesPath string
)

// styles holds color formatters for the human report
type styles struct {
	title     *color.Color
	mediaType *color.Color
	count     *color.Color
	heading   *color.Color
	path      *color.Color
	metadata  *color.Color
}

// newStyles creates color formatters for report output
// enabled=false respects --color=never and the NO_COLOR env var
func newStyles(enabled bool) *styles {
	s := &styles{
		title:     color.New(color.Bold, color.FgHiWhite),
		mediaType: color.New(color.Bold, color.FgHiBlue),
		count:     color.New(color.FgHiGreen),
		heading:   color.New(color.Bold),
		path:      color.New(color.FgYellow),
		metadata:  color.New(color.FgHiBlack),
	}

	if !enabled {
		s.title.DisableColor()
		s.mediaType.DisableColor()
		s.count.DisableColor()
		s.heading.DisableColor()
		s.path.DisableColor()
		s.metadata.DisableColor()
	}

	return s
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Read detections from a datastore and output a report grouped by media type",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "sniff.db", "Path to datastore file")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	reportCmd.Flags().StringVar(&reportSignaturesPath, "signatures", "", "Path to custom signatures file or directory (SARIF rule metadata)")
}

func runReport(cmd *cobra.Command, args []string) error {
	storePath := reportDatastore

	// Check if it's :memory: (invalid for report)
	if storePath == ":memory:" {
		return fmt.Errorf("cannot report from in-memory store")
	}

	if _, err := os.Stat(storePath); err != nil {
		return fmt.Errorf("datastore not found: %s", storePath)
	}

	s, err := store.New(store.Config{
		Path: storePath,
	})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	detections, err := s.GetDetections()
	if err != nil {
		return fmt.Errorf("retrieving detections: %w", err)
	}

	// Output based on format
	switch reportFormat {
	case "json":
		return outputDetectionsJSON(cmd, detections)
	case "sarif":
		sigs, err := loadSignatures(reportSignaturesPath, "", "")
		if err != nil {
			return err
		}
		return outputSARIF(cmd, sigs, detections)
	case "human":
		return outputReportHuman(cmd, detections, storePath)
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// colorEnabled resolves the --color flag.
func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		// Check if stdout is a TTY and NO_COLOR is not set
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

func outputReportHuman(cmd *cobra.Command, detections []*types.Detection, datastorePath string) error {
	out := cmd.OutOrStdout()

	enabled := colorEnabled(reportColor)
	color.NoColor = !enabled
	s := newStyles(enabled)

	groups := make(map[string][]*types.Detection)
	counts := make(map[string]int)
	identified := 0
	for _, d := range detections {
		mt := d.MediaType.String()
		groups[mt] = append(groups[mt], d)
		counts[mt]++
		if d.Matched() {
			identified++
		}
	}

	fmt.Fprintf(out, "%s\n", s.title.Sprint("=== Sniff Report ==="))
	fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Datastore:"), datastorePath)
	fmt.Fprintf(out, "%s %d\n", s.heading.Sprint("Total files:"), len(detections))
	fmt.Fprintf(out, "%s %d\n", s.heading.Sprint("Identified:"), identified)

	for _, mt := range sortedMediaTypes(counts) {
		fmt.Fprintf(out, "\n%s (%s)\n", s.mediaType.Sprint(mt), s.count.Sprint(counts[mt]))
		for _, d := range groups[mt] {
			fmt.Fprintf(out, "  %s", s.path.Sprint(d.Path))
			if d.Inner != nil {
				fmt.Fprintf(out, " %s", s.metadata.Sprintf("[%s]", d.LayerString()))
			}
			fmt.Fprintf(out, " %s\n", s.metadata.Sprintf("(%d bytes)", d.Size))
		}
	}

	return nil
}

// sortedMediaTypes orders media types by descending count, then name, with
// the unidentified bucket last.
func sortedMediaTypes(counts map[string]int) []string {
	mts := make([]string, 0, len(counts))
	for mt := range counts {
		mts = append(mts, mt)
	}
	octet := types.OctetStream.String()
	sort.Slice(mts, func(i, j int) bool {
		a, b := mts[i], mts[j]
		if (a == octet) != (b == octet) {
			return b == octet
		}
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})
	return mts
}
