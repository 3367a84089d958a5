package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbnobed/tdmedia-sub001/internal/config"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	cfg := &config.Config{LocalStoragePath: t.TempDir()}
	ls, err := NewLocalStorage(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	return ls
}

func TestNewLocalStorageRequiresPath(t *testing.T) {
	cfg := &config.Config{LocalStoragePath: "   "}
	if _, err := NewLocalStorage(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	body := "mp4 payload"
	if err := ls.Upload(ctx, "videos/td_abc.mp4", strings.NewReader(body), int64(len(body)), "video/mp4"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	reader, contentType, err := ls.Download(ctx, "videos/td_abc.mp4")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != body {
		t.Errorf("round trip = %q, want %q", data, body)
	}
	if contentType != "video/mp4" {
		t.Errorf("content type = %q, want video/mp4", contentType)
	}
}

func TestDownloadMissing(t *testing.T) {
	ls := newTestStorage(t)
	if _, _, err := ls.Download(context.Background(), "videos/nope.mp4"); err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	if err := ls.Upload(ctx, "thumbnails/thumb_td_a_1.jpg", strings.NewReader("x"), 1, "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if err := ls.Delete(ctx, "thumbnails/thumb_td_a_1.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := ls.Delete(ctx, "thumbnails/thumb_td_a_1.jpg"); err != nil {
		t.Fatalf("second Delete() error = %v, want nil", err)
	}
	if _, _, err := ls.Download(ctx, "thumbnails/thumb_td_a_1.jpg"); err == nil {
		t.Fatal("object still downloadable after delete")
	}
}

func TestListByPrefix(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	uploads := []string{
		"thumbnails/thumb_td_a_100.jpg",
		"thumbnails/thumb_td_a_200.jpg",
		"thumbnails/thumb_td_b_100.jpg",
		"videos/td_a.mp4",
	}
	for _, key := range uploads {
		if err := ls.Upload(ctx, key, strings.NewReader("x"), 1, "application/octet-stream"); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := ls.List(ctx, "thumbnails/thumb_td_a_")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	sort.Strings(keys)
	want := []string{"thumbnails/thumb_td_a_100.jpg", "thumbnails/thumb_td_a_200.jpg"}
	if len(keys) != len(want) {
		t.Fatalf("List() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestListMissingPrefixDir(t *testing.T) {
	ls := newTestStorage(t)
	keys, err := ls.List(context.Background(), "thumbnails/thumb_td_x_")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List() = %v, want empty", keys)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	cfg := &config.Config{LocalStoragePath: filepath.Join(base, "store")}
	ls, err := NewLocalStorage(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	secret := filepath.Join(base, "secret.txt")
	if err := os.WriteFile(secret, []byte("keep out"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := ls.Download(context.Background(), "../secret.txt"); err == nil {
		t.Fatal("traversal key must not resolve outside the base directory")
	}
}

func TestHealth(t *testing.T) {
	ls := newTestStorage(t)
	if err := ls.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
}

func TestContentTypeFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "videos/a.mp4", want: "video/mp4"},
		{key: "thumbnails/thumb_td_a_1.png", want: "image/png"},
		{key: "thumbnails/thumb_td_a_1.jpg", want: "image/jpeg"},
		{key: "audio/a.mp3", want: "audio/mpeg"},
		{key: "documents/a.pdf", want: "application/pdf"},
		{key: "misc/a.bin", want: "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentTypeFromKey(tt.key); got != tt.want {
			t.Errorf("contentTypeFromKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
