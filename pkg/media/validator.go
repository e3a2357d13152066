package media

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// Code identifies why a file was rejected.
type Code string

const (
	CodeTooLarge        Code = "max_size"
	CodeTooSmall        Code = "min_size"
	CodeUnsupportedType Code = "content_type"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrTooSmall        = errors.New("file too small")
	ErrUnsupportedType = errors.New("unsupported file type")
)

var messages = map[Code]string{
	CodeTooLarge:        "Ensure this file size is not greater than %(max_size)s. Your file size is %(size)s.",
	CodeTooSmall:        "Ensure this file size is not less than %(min_size)s. Your file size is %(size)s.",
	CodeUnsupportedType: "Files of type %(content_type)s are not supported.",
}

// ValidationError carries the rejection kind and the values to render for the
// person who uploaded the file.
type ValidationError struct {
	Code   Code
	Params map[string]string
}

func (e *ValidationError) Error() string {
	msg := messages[e.Code]
	for k, v := range e.Params {
		msg = strings.ReplaceAll(msg, "%("+k+")s", v)
	}
	return msg
}

// Is lets callers match with errors.Is(err, ErrTooLarge) and friends.
func (e *ValidationError) Is(target error) bool {
	switch e.Code {
	case CodeTooLarge:
		return target == ErrTooLarge
	case CodeTooSmall:
		return target == ErrTooSmall
	case CodeUnsupportedType:
		return target == ErrUnsupportedType
	}
	return false
}

// Upload is a candidate file. Content must be positioned anywhere; validation
// always inspects it from the start and leaves it rewound.
type Upload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker

	closer io.Closer
}

// Close releases the underlying file when the upload was opened from a filesystem.
func (u *Upload) Close() error {
	if u.closer == nil {
		return nil
	}
	return u.closer.Close()
}

// FileValidator checks size bounds and the sniffed content type of uploads.
// Zero bounds and an empty allow-list disable the respective check.
type FileValidator struct {
	MaxSize      int64
	MinSize      int64
	ContentTypes []string
}

// Equal reports whether both validators enforce identical rules.
func (v FileValidator) Equal(other FileValidator) bool {
	return v.MaxSize == other.MaxSize &&
		v.MinSize == other.MinSize &&
		slices.Equal(v.ContentTypes, other.ContentTypes)
}

// Validate returns a *ValidationError when u breaks one of the rules, checked
// in the order max size, min size, content type.
func (v FileValidator) Validate(u *Upload) error {
	if v.MaxSize > 0 && u.Size > v.MaxSize {
		return &ValidationError{Code: CodeTooLarge, Params: map[string]string{
			"max_size": humanize.IBytes(uint64(v.MaxSize)),
			"size":     humanize.IBytes(uint64(u.Size)),
		}}
	}
	if v.MinSize > 0 && u.Size < v.MinSize {
		return &ValidationError{Code: CodeTooSmall, Params: map[string]string{
			"min_size": humanize.IBytes(uint64(v.MinSize)),
			"size":     humanize.IBytes(uint64(max(u.Size, 0))),
		}}
	}
	if len(v.ContentTypes) == 0 {
		return nil
	}

	mt, err := Sniff(u.Content)
	if err != nil {
		return fmt.Errorf("sniff %q: %w", u.Filename, err)
	}
	for _, ct := range v.ContentTypes {
		if mt.Is(ct) {
			return nil
		}
	}
	return &ValidationError{Code: CodeUnsupportedType, Params: map[string]string{
		"content_type": mt.String(),
	}}
}

// Sniff detects the MIME type of r from its leading bytes, reading from the
// start and rewinding afterwards.
func Sniff(r io.ReadSeeker) (*mimetype.MIME, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	mt, err := mimetype.DetectReader(r)
	if _, serr := r.Seek(0, io.SeekStart); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return nil, err
	}
	return mt, nil
}

// SoundValidator accepts MPEG audio, WAV and OGG up to 50 MiB.
var SoundValidator = FileValidator{
	MaxSize:      52428800,
	ContentTypes: []string{"audio/mpeg", "audio/vnd.wave", "audio/ogg"},
}

// ImageValidator accepts the raster formats used for icons and photos.
var ImageValidator = FileValidator{
	ContentTypes: []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/bmp", "image/tiff"},
}
