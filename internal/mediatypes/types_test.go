package mediatypes

import "testing"

func TestGetMediaType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want MediaType
	}{
		{".mp4", MediaTypeVideo},
		{".mkv", MediaTypeVideo},
		{".webm", MediaTypeVideo},
		{".jpg", MediaTypeImage},
		{".webp", MediaTypeImage},
		{".mp3", MediaTypeAudio},
		{".flac", MediaTypeAudio},
		{".txt", MediaTypeOther},
		{".exe", MediaTypeOther},
		{"", MediaTypeOther},
		{"mp4", MediaTypeOther}, // missing leading dot
	}

	for _, tt := range tests {
		if got := GetMediaType(tt.ext); got != tt.want {
			t.Errorf("GetMediaType(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestGetMimeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".mp4", "video/mp4"},
		{".mkv", "video/x-matroska"},
		{".jpg", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".flac", "audio/flac"},
		{".unknown", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := GetMimeType(tt.ext); got != tt.want {
			t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestIsMediaFile(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".mp4", ".jpg", ".mp3"} {
		if !IsMediaFile(ext) {
			t.Errorf("IsMediaFile(%q) should be true", ext)
		}
	}
	for _, ext := range []string{".txt", ".db", ""} {
		if IsMediaFile(ext) {
			t.Errorf("IsMediaFile(%q) should be false", ext)
		}
	}
}

func TestExtensionSetsMatchMimeTable(t *testing.T) {
	t.Parallel()

	// Every recognized extension must have a MIME type and vice versa.
	for _, set := range []map[string]bool{VideoExtensions, ImageExtensions, AudioExtensions} {
		for ext := range set {
			if _, ok := MimeTypes[ext]; !ok {
				t.Errorf("Extension %q has no MIME type", ext)
			}
		}
	}
	for ext := range MimeTypes {
		if !IsMediaFile(ext) {
			t.Errorf("MIME table lists unrecognized extension %q", ext)
		}
	}
}
