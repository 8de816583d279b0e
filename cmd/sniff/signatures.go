package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/praetorian-inc/sniff/pkg/signature"
	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/spf13/cobra"
)

var (
	signaturesPath   string
	signaturesFormat string
)

var signaturesCmd = &cobra.Command{
	Use:   "signatures",
	Short: "Manage detection signatures",
	Long:  "Commands for listing and validating magic-byte signatures",
}

var signaturesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available signatures",
	Long:  "Display all available signatures with their IDs, media types and offsets",
	RunE:  runSignaturesList,
}

var signaturesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate signatures",
	Long: `Build every signature and check it against its examples.

Positive examples must be detected as the signature's media type; negative
examples must not.`,
	RunE: runSignaturesValidate,
}

func init() {
	signaturesCmd.AddCommand(signaturesListCmd)
	signaturesCmd.AddCommand(signaturesValidateCmd)
	signaturesCmd.PersistentFlags().StringVar(&signaturesPath, "signatures", "", "Path to custom signatures file or directory")
	signaturesListCmd.Flags().StringVar(&signaturesFormat, "format", "table", "Output format: table, json")
}

func runSignaturesList(cmd *cobra.Command, args []string) error {
	sigs, err := loadSignatures(signaturesPath, "", "")
	if err != nil {
		return err
	}

	// Output based on format
	switch signaturesFormat {
	case "json":
		return outputSignaturesJSON(cmd, sigs)
	case "table":
		return outputSignaturesTable(cmd, sigs)
	default:
		return fmt.Errorf("unknown output format: %s", signaturesFormat)
	}
}

func runSignaturesValidate(cmd *cobra.Command, args []string) error {
	sigs, err := loadSignatures(signaturesPath, "", "")
	if err != nil {
		return err
	}

	if err := signature.ValidateSignatures(sigs); err != nil {
		return fmt.Errorf("invalid signatures:\n%w", err)
	}

	examples := 0
	for _, s := range sigs {
		examples += len(s.Examples) + len(s.NegativeExamples)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d signatures valid (%d examples checked)\n", len(sigs), examples)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadSignatures loads builtin or custom signatures and applies the
// include/exclude filters.
func loadSignatures(path, include, exclude string) ([]*types.Signature, error) {
	loader := signature.NewLoader()

	var sigs []*types.Signature
	var err error

	if path != "" {
		sigs, err = loader.LoadSignaturePath(path)
		if err != nil {
			return nil, fmt.Errorf("loading signatures from %s: %w", path, err)
		}
	} else {
		sigs, err = loader.LoadBuiltinSignatures()
		if err != nil {
			return nil, fmt.Errorf("loading builtin signatures: %w", err)
		}
	}

	// Apply filtering if patterns specified
	if include != "" || exclude != "" {
		config := signature.FilterConfig{
			Include: signature.ParsePatterns(include),
			Exclude: signature.ParsePatterns(exclude),
		}
		sigs, err = signature.Filter(sigs, config)
		if err != nil {
			return nil, fmt.Errorf("filtering signatures: %w", err)
		}
	}

	return sigs, nil
}

// signatureJSON is the listing form of a signature, with bytes in hex.
type signatureJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MediaType   string   `json:"media_type"`
	Pattern     string   `json:"pattern"`
	Mask        string   `json:"mask,omitempty"`
	OffsetBegin int64    `json:"offset_begin"`
	OffsetEnd   int64    `json:"offset_end"`
	Priority    int      `json:"priority"`
	Description string   `json:"description,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

func outputSignaturesJSON(cmd *cobra.Command, sigs []*types.Signature) error {
	out := make([]signatureJSON, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, signatureJSON{
			ID:          s.ID,
			Name:        s.Name,
			MediaType:   s.MediaType.String(),
			Pattern:     hex.EncodeToString(s.Pattern),
			Mask:        hex.EncodeToString(s.Mask),
			OffsetBegin: s.OffsetBegin,
			OffsetEnd:   s.OffsetEnd,
			Priority:    s.Priority,
			Description: s.Description,
			Categories:  s.Categories,
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func outputSignaturesTable(cmd *cobra.Command, sigs []*types.Signature) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tMedia Type\tOffset\tPriority\tName\n")
	fmt.Fprintf(w, "--\t----------\t------\t--------\t----\n")

	for _, s := range sigs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.MediaType, formatOffset(s.OffsetBegin, s.OffsetEnd), s.Priority, s.Name)
	}

	return nil
}

func formatOffset(begin, end int64) string {
	if begin == end {
		return fmt.Sprintf("%d", begin)
	}
	return fmt.Sprintf("%d:%d", begin, end)
}
