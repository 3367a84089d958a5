package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var deriveCmd = &cobra.Command{
	Use:   "derive <media-id>",
	Short: "Re-run derivation for an asset on a running server",
	Long: `Ask a running TD Media server to re-derive an asset's thumbnail and
duration. Runs synchronously; the refreshed metadata is printed on success.

Examples:
  tdmedia-cli derive td_01jf... --server http://localhost:8285
  tdmedia-cli derive td_01jf... --token "$TOKEN"`,
	Args: cobra.ExactArgs(1),
	RunE: runDerive,
}

func init() {
	deriveCmd.Flags().String("server", "http://localhost:8285", "Server base URL")
	deriveCmd.Flags().String("token", "", "Bearer token when auth is enabled")
	deriveCmd.Flags().Duration("timeout", 2*time.Minute, "Request timeout (derivation shells out to ffmpeg)")
}

func runDerive(cmd *cobra.Command, args []string) error {
	mediaID := args[0]
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	target := strings.TrimRight(server, "/") + "/v1/media/" + mediaID + "/derive"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, target, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var asset struct {
		ID            string `json:"id"`
		Kind          string `json:"kind"`
		DurationLabel string `json:"duration_label"`
		ThumbnailURL  string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(body, &asset); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("✓ derived %s (%s)\n", asset.ID, asset.Kind)
	fmt.Printf("  duration:  %s\n", asset.DurationLabel)
	fmt.Printf("  thumbnail: %s\n", asset.ThumbnailURL)
	return nil
}
