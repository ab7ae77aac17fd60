package feed

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/ayush/feed-api/internal/apperr"
	"github.com/ayush/feed-api/internal/respond"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

var errNoImage = errors.New("no valid image")

// postForm is the decoded body of a create or edit request.
type postForm struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageRef string `json:"image"`

	file *multipart.FileHeader
	form *multipart.Form
}

// cleanup releases temp files held by a multipart form.
func (f *postForm) cleanup() {
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

// parsePostForm reads multipart/form-data or JSON bodies. Only multipart
// bodies can carry an image file, under the "image" field.
func parsePostForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*postForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	f := &postForm{}

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
				return nil, apperr.Validation("Upload too large.", nil)
			}
			return nil, apperr.Validation("Invalid request body.", nil)
		}
		f.form = r.MultipartForm
		f.Title = r.FormValue("title")
		f.Content = r.FormValue("content")
		f.ImageRef = r.FormValue("image")
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			f.file = files[0]
		}
	default:
		if err := respond.DecodeJSON(r, f); err != nil {
			return nil, apperr.Validation("Invalid request body.", nil)
		}
	}

	f.Title = strings.TrimSpace(f.Title)
	f.Content = strings.TrimSpace(f.Content)
	f.ImageRef = strings.TrimPrefix(strings.TrimSpace(f.ImageRef), "/")
	return f, nil
}

// image is an accepted upload ready to be stored.
type image struct {
	header      *multipart.FileHeader
	name        string
	contentType string
}

// inspectImage checks both the declared part type and the sniffed content
// against the allowed image types.
func inspectImage(fh *multipart.FileHeader) (*image, error) {
	if fh == nil {
		return nil, errNoImage
	}
	declared, _, _ := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if !allowedImageTypes[declared] {
		return nil, errNoImage
	}

	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, err
	}
	if !detected.Is("image/png") && !detected.Is("image/jpeg") {
		return nil, errNoImage
	}

	return &image{
		header:      fh,
		name:        imageName(fh.Filename),
		contentType: detected.String(),
	}, nil
}

// imageName is "<uuid>-<original base name>".
func imageName(original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Join(strings.Fields(base), "-")
	if base == "" || base == "." || base == "/" || base == ".." {
		base = "image"
	}
	return uuid.NewString() + "-" + base
}
