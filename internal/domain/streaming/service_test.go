package streaming_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
	"github.com/tbnobed/tdmedia-sub001/internal/domain/streaming"
)

func newTestService(t *testing.T, now *time.Time) *streaming.Service {
	t.Helper()
	cfg := &config.Config{
		StreamSigningSecret: "0123456789abcdef0123456789abcdef",
		StreamGrantTTL:      600 * time.Second,
		StreamClockSkew:     0,
	}
	return streaming.NewService(cfg, zerolog.Nop(), streaming.WithClock(func() time.Time {
		return *now
	}))
}

func TestIssueAndVerify(t *testing.T) {
	now := time.UnixMilli(1724400000000)
	svc := newTestService(t, &now)

	grant := svc.Issue("td_01abc", "user-1")
	if grant.MediaID != "td_01abc" {
		t.Errorf("grant.MediaID = %q", grant.MediaID)
	}
	if !grant.IssuedAt.Equal(now) {
		t.Errorf("grant.IssuedAt = %v, want %v", grant.IssuedAt, now)
	}
	if err := svc.Verify("td_01abc", "user-1", grant.IssuedAt.UnixMilli(), grant.Signature); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func TestGrantBoundToRequester(t *testing.T) {
	now := time.UnixMilli(1724400000000)
	svc := newTestService(t, &now)

	grant := svc.Issue("td_01abc", "user-1")

	// The same grant presented by a different authenticated session must
	// fail: the verifier folds the session requester into the message.
	err := svc.Verify("td_01abc", "user-2", grant.IssuedAt.UnixMilli(), grant.Signature)
	if !errors.Is(err, streaming.ErrSignatureMismatch) {
		t.Fatalf("Verify() with stolen grant = %v, want ErrSignatureMismatch", err)
	}
}

func TestGrantExpiry(t *testing.T) {
	issued := time.UnixMilli(1724400000000)
	now := issued
	svc := newTestService(t, &now)
	grant := svc.Issue("td_01abc", "user-1")

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "immediately", at: issued, wantErr: nil},
		{name: "just inside window", at: issued.Add(600*time.Second - time.Millisecond), wantErr: nil},
		{name: "exactly at window", at: issued.Add(600 * time.Second), wantErr: nil},
		{name: "just past window", at: issued.Add(600*time.Second + time.Millisecond), wantErr: streaming.ErrGrantExpired},
		{name: "long past window", at: issued.Add(24 * time.Hour), wantErr: streaming.ErrGrantExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = tt.at
			err := svc.Verify("td_01abc", "user-1", grant.IssuedAt.UnixMilli(), grant.Signature)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() at %v = %v, want %v", tt.at, err, tt.wantErr)
			}
		})
	}
}

func TestGrantFromFutureRejected(t *testing.T) {
	issued := time.UnixMilli(1724400000000)
	now := issued.Add(time.Minute) // clock ahead so the grant is minted "in the future"
	svc := newTestService(t, &now)
	grant := svc.Issue("td_01abc", "user-1")

	now = issued
	err := svc.Verify("td_01abc", "user-1", grant.IssuedAt.UnixMilli(), grant.Signature)
	if !errors.Is(err, streaming.ErrGrantFromFuture) {
		t.Fatalf("Verify() with future timestamp = %v, want ErrGrantFromFuture", err)
	}
}

func TestGrantTamper(t *testing.T) {
	now := time.UnixMilli(1724400000000)
	svc := newTestService(t, &now)
	grant := svc.Issue("td_01abc", "user-1")

	tests := []struct {
		name      string
		mediaID   string
		issuedAt  int64
		signature string
	}{
		{name: "different media id", mediaID: "td_01abd", issuedAt: grant.IssuedAt.UnixMilli(), signature: grant.Signature},
		{name: "shifted timestamp", mediaID: "td_01abc", issuedAt: grant.IssuedAt.UnixMilli() + 1, signature: grant.Signature},
		{name: "flipped signature digit", mediaID: "td_01abc", issuedAt: grant.IssuedAt.UnixMilli(), signature: flipHexDigit(grant.Signature)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Verify(tt.mediaID, "user-1", tt.issuedAt, tt.signature)
			if !errors.Is(err, streaming.ErrSignatureMismatch) {
				t.Errorf("Verify() = %v, want ErrSignatureMismatch", err)
			}
		})
	}
}

func TestFieldBoundariesDoNotCollide(t *testing.T) {
	now := time.UnixMilli(1724400000000)
	svc := newTestService(t, &now)

	// Shifting characters between fields must never reproduce the same
	// signature; the canonical message is length-prefixed.
	grant := svc.Issue("td_a", "1:user")
	err := svc.Verify("td_a:1", "user", grant.IssuedAt.UnixMilli(), grant.Signature)
	if !errors.Is(err, streaming.ErrSignatureMismatch) {
		t.Fatalf("Verify() with shifted field boundary = %v, want ErrSignatureMismatch", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	now := time.UnixMilli(1724400000000)
	svc := newTestService(t, &now)

	if err := svc.Verify("td_01abc", "user-1", now.UnixMilli(), "  "); !errors.Is(err, streaming.ErrMalformedGrant) {
		t.Errorf("Verify() with blank signature = %v, want ErrMalformedGrant", err)
	}
}

func TestStreamPath(t *testing.T) {
	now := time.UnixMilli(1724400000000)
	svc := newTestService(t, &now)
	grant := svc.Issue("td_01abc", "user-1")

	want := fmt.Sprintf("/v1/stream/td_01abc?timestamp=%d&signature=%s", now.UnixMilli(), grant.Signature)
	if got := grant.StreamPath(); got != want {
		t.Errorf("StreamPath() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(grant.StreamPath(), "/v1/stream/") {
		t.Errorf("StreamPath() = %q, want /v1/stream/ prefix", grant.StreamPath())
	}
}
