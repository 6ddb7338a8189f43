package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"faultline/internal/fingerprint"
)

var hashesCmd = &cobra.Command{
	Use:   "hashes",
	Short: "List hash algorithms available for fingerprints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range fingerprint.HashNames() {
			mark := ""
			if name == fingerprint.DefaultHash {
				mark = " (default)"
			}
			fmt.Fprintf(out, "%s%s\n", name, mark)
		}
		return nil
	},
}

var fingerprintHash string

func init() {
	fingerprintCmd.Flags().StringVar(&fingerprintHash, "hash", fingerprint.DefaultHash,
		"hash algorithm ("+strings.Join(fingerprint.HashNames(), "|")+")")
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [parts...]",
	Short: "Compute the fingerprint of the given parts",
	Long: `fingerprint joins the parts with NUL bytes, hashes them and prints the
resulting identifier, exactly as the pipeline does for a report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := fingerprint.LookupHash(fingerprintHash)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fingerprint.Sum(h, args))
		return nil
	},
}
