package mediatypes

// MediaType classifies a catalog entry by its container format.
type MediaType string

const (
	// MediaTypeVideo represents a video file.
	MediaTypeVideo MediaType = "video"
	// MediaTypeImage represents an image file.
	MediaTypeImage MediaType = "image"
	// MediaTypeAudio represents an audio file.
	MediaTypeAudio MediaType = "audio"
	// MediaTypeOther represents an unknown or unsupported file type.
	MediaTypeOther MediaType = "other"
)

// VideoExtensions maps file extensions to whether they are recognized video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// ImageExtensions maps file extensions to whether they are recognized image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// AudioExtensions maps file extensions to whether they are recognized audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",

	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",

	// Audio
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
}

// GetMediaType returns the MediaType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns MediaTypeOther if the extension is not recognized.
func GetMediaType(ext string) MediaType {
	if VideoExtensions[ext] {
		return MediaTypeVideo
	}
	if ImageExtensions[ext] {
		return MediaTypeImage
	}
	if AudioExtensions[ext] {
		return MediaTypeAudio
	}
	return MediaTypeOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the extension represents a recognized media file.
func IsMediaFile(ext string) bool {
	return GetMediaType(ext) != MediaTypeOther
}
