package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"faultline/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "faultline",
	Short: "Error capture and fingerprinting toolkit",
	Long:  `faultline reports failures with source context, locals and stable fingerprints`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return err
		}
		return applyColorMode(mode)
	},
	SilenceUsage: true,
}

func init() {
	// версия для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(hashesCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(serveCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

// main executes the root command. A failing command exits with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyColorMode sets fatih/color's global switch. Tracebacks go to stderr,
// so auto follows stderr.
func applyColorMode(mode string) error {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stderr)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
