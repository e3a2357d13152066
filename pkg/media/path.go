package media

import (
	"path"
	"regexp"
	"strings"
)

// Root is the logical top-level folder for one kind of attachment.
type Root string

const (
	Icons  Root = "icons"
	Photos Root = "photos"
	Sounds Root = "sounds"
)

// BuildPath joins root, the owning record's name and the filename into the
// media-relative storage path. It is pure: the same inputs always give the same path.
func BuildPath(root Root, instanceName, filename string) string {
	return path.Join(string(root), instanceName, filename)
}

// InstanceDir is the per-record directory holding the record's attachment.
func InstanceDir(root Root, instanceName string) string {
	return BuildPath(root, instanceName, "")
}

var invalidFilenameChars = regexp.MustCompile(`[^-\p{L}\p{N}_.]`)

// ValidFilename reduces an uploaded filename to a safe base name: directory
// parts are dropped, spaces become underscores and other punctuation is removed.
func ValidFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = invalidFilenameChars.ReplaceAllString(name, "")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}
