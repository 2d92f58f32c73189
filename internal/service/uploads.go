package service

import (
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Upload is a file received from a multipart form.
type Upload struct {
	Filename string
	Data     []byte
}

// Allowed content types keyed by sniffed MIME type, with the extension used
// for the stored object.
var (
	receiptTypes = map[string]string{
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"image/webp":      ".webp",
		"image/gif":       ".gif",
		"application/pdf": ".pdf",
	}
	imageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
)

// sniff detects the content type of data from its leading bytes. The
// client-supplied type and file name are not trusted.
func sniff(data []byte, allowed map[string]string) (contentType, ext string, ok bool) {
	contentType = http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok = allowed[contentType]
	return contentType, ext, ok
}

// objectKey builds "{prefix}/{scope}/{uuid}{ext}".
func objectKey(prefix, scope, ext string) string {
	return path.Join(prefix, scope, uuid.NewString()+ext)
}

// safeFilename keeps the base name of a client-supplied file name.
func safeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "file"
	}
	return name
}
