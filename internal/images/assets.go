package images

import (
	"fmt"
	"strings"
)

// Subject names what an image belongs to; it prefixes the storage key.
type Subject string

const (
	SubjectAnime Subject = "anime"
	SubjectUser  Subject = "user"
)

// defaultExt is used when a source URL carries no usable suffix. The
// upstream catalog always serves covers with an extension, so this only
// guards malformed input.
const defaultExt = "jpg"

// FileExt derives the file extension from the final path segment of a URL:
// everything after the last '.'. Query strings are ignored.
func FileExt(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	seg := rawURL
	if i := strings.LastIndex(rawURL, "/"); i >= 0 {
		seg = rawURL[i+1:]
	}
	i := strings.LastIndex(seg, ".")
	if i < 0 || i == len(seg)-1 {
		return defaultExt
	}
	return seg[i+1:]
}

// ContentType maps an extension to a MIME type the way the upstream assets
// warrant: anything jpeg-ish is image/jpeg, everything else is taken
// literally. This is deliberately not a real MIME sniff.
func ContentType(ext string) string {
	if strings.Contains(ext, "jp") {
		return "image/jpeg"
	}
	return "image/" + ext
}

// Key is the deterministic storage key for a subject's image.
func Key(subject Subject, id int, ext string) string {
	return fmt.Sprintf("assets/images/%s_%d.%s", subject, id, ext)
}

// URLBuilder computes public asset URLs from the configured base.
type URLBuilder struct {
	Base string
}

// Public returns the durable URL an asset is reachable at once
// materialized. It is computed up front so rows can reference the asset
// before the upload finishes.
func (b URLBuilder) Public(subject Subject, id int, ext string) string {
	return strings.TrimRight(b.Base, "/") + "/" + Key(subject, id, ext)
}
