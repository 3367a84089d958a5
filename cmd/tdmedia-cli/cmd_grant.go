package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
)

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Mint and check stream grants",
	Long: `Work with signed stream grants offline. Useful for debugging playback
problems: mint a grant with the same secret the server runs with, or check
why a reported URL is being rejected.`,
}

var grantSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Mint a signed stream URL",
	RunE:  runGrantSign,
}

var grantVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a grant's signature and age",
	RunE:  runGrantVerify,
}

func init() {
	grantCmd.AddCommand(grantSignCmd)
	grantCmd.AddCommand(grantVerifyCmd)

	grantCmd.PersistentFlags().String("secret", "", "Signing secret (default: STREAM_SIGNING_SECRET env)")
	grantCmd.PersistentFlags().Duration("ttl", 600*time.Second, "Grant validity window")

	grantSignCmd.Flags().String("media-id", "", "Media asset id (required)")
	grantSignCmd.Flags().String("requester", "", "Requester subject the grant is bound to (required)")

	grantVerifyCmd.Flags().String("media-id", "", "Media asset id (required)")
	grantVerifyCmd.Flags().String("requester", "", "Requester subject presenting the grant (required)")
	grantVerifyCmd.Flags().Int64("timestamp", 0, "Grant timestamp in epoch milliseconds (required)")
	grantVerifyCmd.Flags().String("signature", "", "Grant signature in hex (required)")
	grantVerifyCmd.Flags().Duration("skew", 0, "Tolerated clock skew for future timestamps")
}

func streamServiceFromFlags(cmd *cobra.Command) (*streaming.Service, error) {
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = os.Getenv("STREAM_SIGNING_SECRET")
	}
	if secret == "" {
		return nil, fmt.Errorf("no signing secret: pass --secret or set STREAM_SIGNING_SECRET")
	}
	ttl, _ := cmd.Flags().GetDuration("ttl")
	skew, _ := cmd.Flags().GetDuration("skew")

	cfg := &config.Config{
		StreamSigningSecret: secret,
		StreamGrantTTL:      ttl,
		StreamClockSkew:     skew,
	}
	return streaming.NewService(cfg, zerolog.Nop()), nil
}

func runGrantSign(cmd *cobra.Command, args []string) error {
	mediaID, _ := cmd.Flags().GetString("media-id")
	requester, _ := cmd.Flags().GetString("requester")
	if mediaID == "" || requester == "" {
		return fmt.Errorf("--media-id and --requester are required")
	}

	svc, err := streamServiceFromFlags(cmd)
	if err != nil {
		return err
	}

	grant := svc.Issue(mediaID, requester)
	ttl, _ := cmd.Flags().GetDuration("ttl")

	fmt.Println(grant.StreamPath())
	fmt.Fprintf(os.Stderr, "expires: %s\n", grant.IssuedAt.Add(ttl).Format(time.RFC3339))
	return nil
}

func runGrantVerify(cmd *cobra.Command, args []string) error {
	mediaID, _ := cmd.Flags().GetString("media-id")
	requester, _ := cmd.Flags().GetString("requester")
	timestamp, _ := cmd.Flags().GetInt64("timestamp")
	signature, _ := cmd.Flags().GetString("signature")
	if mediaID == "" || requester == "" || timestamp == 0 || signature == "" {
		return fmt.Errorf("--media-id, --requester, --timestamp and --signature are required")
	}

	svc, err := streamServiceFromFlags(cmd)
	if err != nil {
		return err
	}

	if err := svc.Verify(mediaID, requester, timestamp, signature); err != nil {
		fmt.Printf("✗ grant rejected: %s\n", rejectionReason(err))
		return nil
	}
	fmt.Println("✓ grant valid")
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, streaming.ErrSignatureMismatch):
		return "signature mismatch (wrong secret, wrong requester, or tampered URL)"
	case errors.Is(err, streaming.ErrGrantExpired):
		return "expired"
	case errors.Is(err, streaming.ErrGrantFromFuture):
		return "timestamp is in the future (check clocks)"
	case errors.Is(err, streaming.ErrMalformedGrant):
		return "malformed parameters"
	default:
		return err.Error()
	}
}
