package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tdmedia-cli",
	Short: "TD Media CLI - operational tooling for the media service",
	Long: `tdmedia-cli is the command-line companion for the TD Media service.

It covers operator workflows that do not need a running server: checking
host prerequisites, minting and checking stream grants, and probing media
files the way the derivation worker does.

Examples:
  # Check that ffmpeg/ffprobe are installed
  tdmedia-cli doctor

  # Mint a signed stream URL for debugging
  tdmedia-cli grant sign --media-id td_01jf... --requester dev-user

  # Probe a local file for its duration
  tdmedia-cli probe ./clip.mp4`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(deriveCmd)
}
