// Package files classifies uploaded artifacts (text, image, other binary),
// derives the text that gets scanned for each, and maintains the ignore file.
package files

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Kind is the coarse type of an artifact.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "binary"
	}
}

const sniffLen = 512

// Sniff classifies data by extension first, then by content.
func Sniff(name string, data []byte) (Kind, string) {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		if strings.HasPrefix(ct, "image/") {
			return KindImage, stripParams(ct)
		}
	}
	ct := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage, stripParams(ct)
	case looksBinary(data):
		return KindBinary, stripParams(ct)
	}
	if ext := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ext != "" {
		return KindText, stripParams(ext)
	}
	return KindText, stripParams(ct)
}

func stripParams(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		return strings.TrimSpace(ct[:i])
	}
	return ct
}

func looksBinary(b []byte) bool {
	n := min(len(b), sniffLen)
	return bytes.IndexByte(b[:n], 0) >= 0
}

// ScanText returns the text to scan for an artifact. Text is scanned as-is.
// Images are described by their metadata instead of their pixels. ok is false
// for other binary content, which is not scanned.
func ScanText(name string, data []byte) (text, fileType string, ok bool) {
	kind, ct := Sniff(name, data)
	switch kind {
	case KindText:
		return string(data), ct, true
	case KindImage:
		return DescribeImage(name, ct, int64(len(data))), ct, true
	default:
		return "", ct, false
	}
}

// DescribeImage builds the metadata text scanned in place of image content.
func DescribeImage(name, contentType string, size int64) string {
	format := contentType
	if i := strings.IndexByte(format, '/'); i >= 0 {
		format = format[i+1:]
	}
	format = strings.TrimSuffix(strings.ToUpper(format), "+XML")
	var b strings.Builder
	b.WriteString("Image Analysis Results:\n")
	fmt.Fprintf(&b, "File: %s\n", filepath.Base(name))
	fmt.Fprintf(&b, "Type: %s\n", contentType)
	fmt.Fprintf(&b, "Size: %.2f KB\n", float64(size)/1024)
	fmt.Fprintf(&b, "Format: %s\n", format)
	return b.String()
}
