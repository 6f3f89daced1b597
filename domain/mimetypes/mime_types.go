package mimetypes

import (
	"mime"
	"path"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	Unknown         MIME = "unknown"
	TextPlain       MIME = "text/plain"
	TextHTML        MIME = "text/html"
	TextCSS         MIME = "text/css"
	TextJavaScript  MIME = "text/javascript"
	ApplicationJSON MIME = "application/json"
	ImagePNG        MIME = "image/png"
	ImageSVG        MIME = "image/svg+xml"
	OctetStream     MIME = "application/octet-stream"
)

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// ForAsset resolves the Content-Type of an embedded asset.
// The extension wins because sniffing reports JS and CSS as text/plain.
// Without a known extension the content is sniffed.
func ForAsset(name string, content []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	if len(content) == 0 {
		return string(OctetStream)
	}
	return mimetype.Detect(content).String()
}
