package s3

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// uriPattern matches s3://bucket/key addresses. The key portion is taken
// verbatim, separators included, since S3 has no directory concept.
var uriPattern = regexp.MustCompile(`^[sS]3://([a-z0-9.-]{3,})/?(.*)$`)

// Location addresses an object by an explicit bucket/key pair or by a single
// s3:// URI. Exactly one addressing mode must be populated; Resolve rejects
// conflicting or empty locations.
type Location struct {
	Bucket string
	Key    string
	URI    string
}

// At addresses an object by bucket and key.
func At(bucket, key string) Location {
	return Location{Bucket: bucket, Key: key}
}

// URI addresses an object by an s3://bucket/key string.
func URI(uri string) Location {
	return Location{URI: uri}
}

// Resolve normalizes the location into a bucket and key. It fails with
// ErrInvalidLocation when both addressing modes are supplied, neither is,
// or the URI is malformed.
func (l Location) Resolve() (bucket, key string, err error) {
	return l.resolve(true)
}

func (l Location) resolve(requireKey bool) (bucket, key string, err error) {
	switch {
	case l.URI != "" && (l.Bucket != "" || l.Key != ""):
		return "", "", fmt.Errorf("%w: both a URI and a bucket/key pair were supplied", ErrInvalidLocation)
	case l.URI != "":
		var ok bool
		bucket, key, ok = SplitURI(l.URI)
		if !ok {
			return "", "", fmt.Errorf("%w: cannot parse URI %q", ErrInvalidLocation, l.URI)
		}
	case l.Bucket != "":
		bucket, key = l.Bucket, l.Key
	default:
		return "", "", fmt.Errorf("%w: no bucket, key, or URI supplied", ErrInvalidLocation)
	}

	if requireKey && key == "" {
		return "", "", fmt.Errorf("%w: an object key is required", ErrInvalidLocation)
	}
	return bucket, key, nil
}

// String renders the location as an s3:// URI when possible.
func (l Location) String() string {
	if l.URI != "" {
		return l.URI
	}
	if l.Bucket != "" {
		return JoinURI(l.Bucket, l.Key)
	}
	return ""
}

// SplitURI splits an s3:// URI into its bucket and key. ok is false when the
// value is not a recognizable S3 URI.
func SplitURI(uri string) (bucket, key string, ok bool) {
	m := uriPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// JoinURI composes a bucket and key path segments into an s3:// URI,
// ignoring leading slashes on each component.
func JoinURI(bucket string, keyPaths ...string) string {
	parts := make([]string, 0, len(keyPaths)+1)
	parts = append(parts, strings.TrimPrefix(bucket, "/"))
	for _, p := range keyPaths {
		parts = append(parts, strings.TrimPrefix(p, "/"))
	}
	return "s3://" + path.Join(parts...)
}

// Basename returns the trailing file name of a key or URI, mirroring
// path.Base semantics for slash-separated names.
func Basename(keyOrURI string) string {
	if i := strings.LastIndexByte(keyOrURI, '/'); i >= 0 {
		return keyOrURI[i+1:]
	}
	return keyOrURI
}

// BasenameSplit returns the trailing file name of a key or URI split into
// its stem and extension.
func BasenameSplit(keyOrURI string) (stem, ext string) {
	base := Basename(keyOrURI)
	ext = path.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}
