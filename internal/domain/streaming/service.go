package streaming

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
)

// Grant rejection reasons. Externally every one of these is the same opaque
// 403; the distinction exists for logs and metrics only.
var (
	ErrSignatureMismatch = errors.New("stream grant signature mismatch")
	ErrGrantExpired      = errors.New("stream grant expired")
	ErrGrantFromFuture   = errors.New("stream grant timestamp is in the future")
	ErrMalformedGrant    = errors.New("stream grant parameters are malformed")
)

// Grant is a short-lived, signed permission to stream one asset. It carries
// the asset id, the issue instant and the signature, and deliberately omits
// the requester: the verifier re-derives the requester from the
// authenticated session, so a copied grant dies with its copier.
type Grant struct {
	MediaID   string    `json:"media_id"`
	IssuedAt  time.Time `json:"issued_at"`
	Signature string    `json:"signature"`
}

// StreamPath renders the grant as a relative stream URL.
func (g Grant) StreamPath() string {
	return fmt.Sprintf("/v1/stream/%s?timestamp=%d&signature=%s",
		url.PathEscape(g.MediaID), g.IssuedAt.UnixMilli(), g.Signature)
}

// Service issues and verifies stream grants. Stateless apart from the
// secret; safe for concurrent use.
type Service struct {
	secret []byte
	ttl    time.Duration
	skew   time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// Option adjusts Service construction.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(cfg *config.Config, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		secret: []byte(cfg.StreamSigningSecret),
		ttl:    cfg.StreamGrantTTL,
		skew:   cfg.StreamClockSkew,
		now:    time.Now,
		log:    log.With().Str("component", "stream-access").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured grant validity window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue mints a grant binding (mediaID, now, requesterID) under the service
// secret. The requester is folded into the signature but never exposed in
// the grant itself.
func (s *Service) Issue(mediaID, requesterID string) Grant {
	now := s.now()
	grant := Grant{
		MediaID:   mediaID,
		IssuedAt:  now,
		Signature: Sign(s.secret, canonicalMessage(mediaID, now.UnixMilli(), requesterID)),
	}
	s.log.Debug().
		Str("media_id", mediaID).
		Int64("issued_at", now.UnixMilli()).
		Msg("stream grant issued")
	return grant
}

// Verify checks a presented grant against the session requester. Checks run
// in a fixed order: signature, then age, then clock sanity. Expiry is
// evaluated only after the signature holds so a forged timestamp cannot
// probe the window.
func (s *Service) Verify(mediaID, requesterID string, issuedAtMilli int64, signature string) error {
	if strings.TrimSpace(signature) == "" {
		return ErrMalformedGrant
	}
	message := canonicalMessage(mediaID, issuedAtMilli, requesterID)
	if !VerifySignature(s.secret, message, signature) {
		return ErrSignatureMismatch
	}

	issuedAt := time.UnixMilli(issuedAtMilli)
	now := s.now()
	if elapsed := now.Sub(issuedAt); elapsed > s.ttl {
		return ErrGrantExpired
	}
	// A timestamp ahead of our clock would otherwise buy itself extra
	// lifetime; reject it outright.
	if issuedAt.After(now.Add(s.skew)) {
		return ErrGrantFromFuture
	}
	return nil
}

// canonicalMessage binds the three grant fields with length prefixes.
// Identifiers here are free text (ULIDs, JWT subjects), so a plain
// delimiter join would let two different field triples render identically;
// explicit lengths make the encoding unambiguous.
func canonicalMessage(mediaID string, issuedAtMilli int64, requesterID string) []byte {
	ts := strconv.FormatInt(issuedAtMilli, 10)
	var b strings.Builder
	b.Grow(len("v1:") + len(mediaID) + len(ts) + len(requesterID) + 24)
	b.WriteString("v1:")
	writeField(&b, mediaID)
	writeField(&b, ts)
	writeField(&b, requesterID)
	return []byte(b.String())
}

func writeField(b *strings.Builder, field string) {
	b.WriteString(strconv.Itoa(len(field)))
	b.WriteByte(':')
	b.WriteString(field)
	b.WriteByte(':')
}
