package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/praetorian-inc/sniff/pkg/signature"
	"github.com/praetorian-inc/sniff/pkg/unwrap"
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and capability information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	sigs, err := signature.NewLoader().LoadBuiltinSignatures()
	if err != nil {
		return fmt.Errorf("loading builtin signatures: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "sniff %s (commit %s)\n", version, commit)
	fmt.Fprintf(w, "  built with: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  signatures: %d builtin\n", len(sigs))
	fmt.Fprintf(w, "  unwraps:    %s\n", strings.Join(unwrap.MediaTypes(), ", "))
	return nil
}
