package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/mediatools"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check host prerequisites for media derivation",
	Long: `Check that the external tools the derivation worker shells out to are
installed and on PATH. Missing tools are not fatal for the service; uploads
still succeed and derivation falls back to placeholder artwork.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().String("ffmpeg", "ffmpeg", "ffmpeg binary to check")
	doctorCmd.Flags().String("ffprobe", "ffprobe", "ffprobe binary to check")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ffmpegPath, _ := cmd.Flags().GetString("ffmpeg")
	ffprobePath, _ := cmd.Flags().GetString("ffprobe")

	fmt.Println("Checking media tool availability...")
	fmt.Println()

	missing := 0
	for _, status := range mediatools.CheckMediaTools(ffmpegPath, ffprobePath) {
		if status.Available {
			fmt.Printf("  ✓ %-8s %s (%s)\n", status.Name, status.Command, status.Description)
			continue
		}
		missing++
		fmt.Printf("  ✗ %-8s %s\n", status.Name, status.Detail)
	}

	fmt.Println()
	if missing == 0 {
		fmt.Println("All media tools available.")
		return nil
	}
	fmt.Printf("%d tool(s) missing. Uploads will still work; thumbnails and durations\n", missing)
	fmt.Println("degrade to placeholders until the tools are installed.")
	return nil
}
