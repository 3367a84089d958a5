package requests

import (
	"io"
	"strings"

	"github.com/tbnobed/tdmedia-sub001/internal/domain/media"
)

// IngestForm carries the optional multipart fields accompanying an upload.
type IngestForm struct {
	Title string `form:"title"`
	Kind  string `form:"kind"`
	Tags  string `form:"tags"`
}

// ToDomain builds the domain ingest request from the form fields plus the
// uploaded file.
func (f *IngestForm) ToDomain(fileName string, size int64, content io.Reader, requesterID string) (media.IngestRequest, error) {
	declared, err := parseDeclaredKind(f.Kind)
	if err != nil {
		return media.IngestRequest{}, err
	}

	title := strings.TrimSpace(f.Title)
	if title == "" {
		title = fileName
	}

	return media.IngestRequest{
		FileName:     fileName,
		Title:        title,
		DeclaredKind: declared,
		Tags:         splitTags(f.Tags),
		RequesterID:  requesterID,
		Size:         size,
		Content:      content,
	}, nil
}

// parseDeclaredKind maps the optional kind field; empty means "classify from
// the extension alone".
func parseDeclaredKind(value string) (media.Kind, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	return media.ParseKind(value)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
