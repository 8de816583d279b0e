package main

import (
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/sniff"
	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/spf13/cobra"
)

var (
	detectSignaturesPath    string
	detectSignaturesInclude string
	detectSignaturesExclude string
	detectFormat            string
	detectMaxDepth          int
)

var detectCmd = &cobra.Command{
	Use:   "detect [file|-]...",
	Short: "Detect the media type of files or stdin",
	Long: `Detect the media type of each file argument, or of stdin for "-".
With no arguments, stdin is read.

Only the head of each input is read, so detect works on pipes and large files.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectSignaturesPath, "signatures", "", "Path to custom signatures file or directory")
	detectCmd.Flags().StringVar(&detectSignaturesInclude, "signatures-include", "", "Include signatures matching regex pattern (comma-separated)")
	detectCmd.Flags().StringVar(&detectSignaturesExclude, "signatures-exclude", "", "Exclude signatures matching regex pattern (comma-separated)")
	detectCmd.Flags().StringVar(&detectFormat, "format", "human", "Output format: human, json")
	detectCmd.Flags().IntVar(&detectMaxDepth, "max-depth", sniff.DefaultMaxDepth, "Compression layers to unwrap (0 to disable)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	if detectFormat != "human" && detectFormat != "json" {
		return fmt.Errorf("unknown output format: %s", detectFormat)
	}

	sigs, err := loadSignatures(detectSignaturesPath, detectSignaturesInclude, detectSignaturesExclude)
	if err != nil {
		return err
	}

	detector, err := newDetector(cmd, sigs, detectMaxDepth)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	var detections []*types.Detection
	failed := 0
	for _, arg := range args {
		d, err := detectInput(cmd, detector, arg)
		if err != nil {
			warnf(cmd, "%v", err)
			failed++
			continue
		}
		detections = append(detections, d)
	}

	switch detectFormat {
	case "json":
		if err := outputDetectionsJSON(cmd, detections); err != nil {
			return err
		}
	default:
		outputDetectionsLines(cmd, detections)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs could not be read", failed, len(args))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// newDetector builds a detector for the selected signatures.
func newDetector(cmd *cobra.Command, sigs []*types.Signature, maxDepth int) (*sniff.Detector, error) {
	if len(sigs) == 0 {
		warnf(cmd, "no signatures selected; every input will be reported as %s", types.OctetStream)
	}

	detector, err := sniff.NewDetector(sniff.WithSignatures(sigs), sniff.WithMaxDepth(maxDepth))
	if err != nil {
		return nil, fmt.Errorf("creating detector: %w", err)
	}
	for _, id := range detector.TruncatedSignatures() {
		warnf(cmd, "signature %s reaches past %d bytes and only matches within them", id, detector.ReadLimit())
	}
	debugf(cmd, "loaded %d signatures (read limit %d bytes, max depth %d)", detector.SignatureCount(), detector.ReadLimit(), detector.MaxDepth())
	return detector, nil
}

func detectInput(cmd *cobra.Command, detector *sniff.Detector, arg string) (*types.Detection, error) {
	if arg != "-" {
		return detector.DetectFile(arg)
	}

	d, err := detector.DetectReader(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("detecting stdin: %w", err)
	}
	d.Path = "-"
	return d, nil
}

func outputDetectionsLines(cmd *cobra.Command, detections []*types.Detection) {
	out := cmd.OutOrStdout()
	for _, d := range detections {
		fmt.Fprintf(out, "%s\t%s\t%s\n", d.Path, d.LayerString(), deepestSignatureID(d))
	}
}

// deepestSignatureID returns the signature of the innermost layer that
// matched, or "-" when nothing did.
func deepestSignatureID(d *types.Detection) string {
	id := "-"
	for cur := d; cur != nil; cur = cur.Inner {
		if cur.SignatureID != "" {
			id = cur.SignatureID
		}
	}
	return id
}

func outputDetectionsJSON(cmd *cobra.Command, detections []*types.Detection) error {
	if detections == nil {
		detections = []*types.Detection{}
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(detections)
}
