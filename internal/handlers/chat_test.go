package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
)

func headers(n int, size int64) []*multipart.FileHeader {
	out := make([]*multipart.FileHeader, n)
	for i := range out {
		out[i] = &multipart.FileHeader{Filename: "file.png", Size: size}
	}
	return out
}

func TestValidateAttachmentsLimit(t *testing.T) {
	if err := validateAttachments(headers(maxAttachments, 1024)); err != nil {
		t.Fatalf("five attachments should pass: %v", err)
	}
	if err := validateAttachments(headers(maxAttachments+1, 1024)); err == nil {
		t.Fatal("sixth attachment should reject the whole send")
	}
	if err := validateAttachments(nil); err != nil {
		t.Fatalf("no attachments should pass: %v", err)
	}
}

func TestValidateAttachmentsSize(t *testing.T) {
	if err := validateAttachments(headers(1, maxAttachmentSize+1)); err == nil {
		t.Fatal("oversized attachment should be rejected")
	}
}

func TestBuildMetadataFillsDefaults(t *testing.T) {
	sender := uuid.New()
	raw := buildMetadata("", sender, "Mozilla/5.0")

	var meta map[string]interface{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata not valid json: %v", err)
	}
	if meta["sender_id"] != sender.String() {
		t.Fatalf("sender_id missing, got %v", meta["sender_id"])
	}
	if meta["user_agent"] != "Mozilla/5.0" {
		t.Fatalf("user_agent missing, got %v", meta["user_agent"])
	}
	if _, ok := meta["client_timestamp"]; !ok {
		t.Fatal("client_timestamp missing")
	}
}

func TestBuildMetadataKeepsClientValuesButPinsSender(t *testing.T) {
	sender := uuid.New()
	client := `{"client_timestamp":"2026-01-01T00:00:00Z","sender_id":"spoofed"}`
	raw := buildMetadata(client, sender, "ua")

	var meta map[string]interface{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatal(err)
	}
	if meta["client_timestamp"] != "2026-01-01T00:00:00Z" {
		t.Fatalf("client timestamp overwritten: %v", meta["client_timestamp"])
	}
	// sender id always comes from the session, never the payload
	if meta["sender_id"] != sender.String() {
		t.Fatalf("spoofed sender id survived: %v", meta["sender_id"])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 120); got != "short" {
		t.Fatalf("short string changed: %q", got)
	}
	long := strings.Repeat("a", 200)
	got := truncate(long, 120)
	if len([]rune(got)) != 121 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected truncation: %d runes", len([]rune(got)))
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	long := strings.Repeat("日本語テキスト", 40)
	got := truncate(long, 120)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if n := len([]rune(got)); n != 121 {
		t.Fatalf("expected 120 runes plus ellipsis, got %d", n)
	}
}
