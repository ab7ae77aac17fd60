package store

import (
	"errors"
	"path"
	"strings"
)

// ImagePrefix is the leading segment of every stored image reference; the
// router serves references under /images/.
const ImagePrefix = "images/"

var ErrInvalidImageRef = errors.New("invalid image reference")

// ImageRef returns the reference stored on a post for an object name.
func ImageRef(name string) string {
	return ImagePrefix + name
}

// ImageName extracts the object name from a reference, rejecting anything
// that would escape the image namespace.
func ImageName(ref string) (string, error) {
	name := strings.TrimPrefix(strings.TrimPrefix(ref, "/"), ImagePrefix)
	if name == "" || name == "." || name == ".." || path.Base(name) != name || strings.Contains(name, `\`) {
		return "", ErrInvalidImageRef
	}
	return name, nil
}
