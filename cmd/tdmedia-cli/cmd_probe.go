package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbnobed/tdmedia-sub001/internal/domain/derivation"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/media"
	"github.com/tbnobed/tdmedia-sub001/internal/infrastructure/mediatools"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Probe a media file the way the derivation worker does",
	Long: `Run ffprobe against a local file and report what the service would
derive from it: the classified kind, the container duration, and the label
that would be shown in the catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().String("ffprobe", "ffprobe", "ffprobe binary to use")
	probeCmd.Flags().Duration("timeout", 30*time.Second, "Probe timeout")
}

func runProbe(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	kind, err := media.Classify(path, "")
	if err != nil {
		fmt.Printf("kind:     unsupported (%v)\n", err)
	} else {
		fmt.Printf("kind:     %s\n", kind)
	}

	binary, _ := cmd.Flags().GetString("ffprobe")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	prober := mediatools.NewFFprobe(binary, timeout)

	result, err := prober.Inspect(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	seconds := result.DurationSeconds()
	fmt.Printf("duration: %.2fs\n", seconds)
	fmt.Printf("label:    %s\n", derivation.FormatDuration(seconds))
	fmt.Printf("video streams: %d\n", result.VideoStreamCount())
	return nil
}
