package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind is the coarse media category an asset is filed under. It decides the
// storage prefix and whether the derivation worker runs.
type Kind string

const (
	KindDocument     Kind = "document"
	KindImage        Kind = "image"
	KindVideo        Kind = "video"
	KindPresentation Kind = "presentation"
	KindAudio        Kind = "audio"
)

var (
	// ErrUnsupportedType rejects files whose extension matches no known kind.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrKindMismatch rejects uploads whose declared kind contradicts the
	// extension classification.
	ErrKindMismatch = errors.New("declared kind does not match file type")
)

var extensionKinds = map[string]Kind{
	"pdf":  KindDocument,
	"doc":  KindDocument,
	"docx": KindDocument,
	"txt":  KindDocument,
	"rtf":  KindDocument,

	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"gif":  KindImage,
	"svg":  KindImage,
	"webp": KindImage,

	"mp4":  KindVideo,
	"webm": KindVideo,
	"mov":  KindVideo,
	"avi":  KindVideo,
	"mkv":  KindVideo,

	"ppt":  KindPresentation,
	"pptx": KindPresentation,
	"key":  KindPresentation,
	"odp":  KindPresentation,

	"mp3":  KindAudio,
	"wav":  KindAudio,
	"ogg":  KindAudio,
	"aac":  KindAudio,
	"flac": KindAudio,
	"m4a":  KindAudio,
}

var storagePrefixes = map[Kind]string{
	KindDocument:     "documents/",
	KindImage:        "images/",
	KindVideo:        "videos/",
	KindPresentation: "presentations/",
	KindAudio:        "audio/",
}

// Classify maps a filename to its kind via the extension table. A non-empty
// declared kind that disagrees with the table is rejected rather than
// silently reclassified. Classification happens before any storage write.
func Classify(filename string, declared Kind) (Kind, error) {
	ext := NormalizedExt(filename)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedType, filename)
	}
	kind, ok := extensionKinds[ext]
	if !ok {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
	if declared != "" && declared != kind {
		return "", fmt.Errorf("%w: file is %s, declared %s", ErrKindMismatch, kind, declared)
	}
	return kind, nil
}

// ParseKind validates a client-supplied kind string.
func ParseKind(raw string) (Kind, error) {
	if raw == "" {
		return "", nil
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := storagePrefixes[kind]; !ok {
		return "", fmt.Errorf("%w: unknown kind %q", ErrUnsupportedType, raw)
	}
	return kind, nil
}

// NormalizedExt returns the lowercase extension without the leading dot.
func NormalizedExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// StoragePrefix returns the deterministic placement prefix for the kind.
func (k Kind) StoragePrefix() string {
	return storagePrefixes[k]
}

// Derivable reports whether the derivation worker applies to this kind.
func (k Kind) Derivable() bool {
	return k == KindVideo || k == KindAudio
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := storagePrefixes[k]
	return ok
}
