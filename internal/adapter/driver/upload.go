package driver

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/alorle/iptv-catalog/internal/application"
)

// upload is the content submitted to an import endpoint, either as the
// "file" field of a multipart form or as the raw request body.
type upload struct {
	name   string
	body   io.ReadCloser
	isFile bool
}

func openUpload(w http.ResponseWriter, r *http.Request, defaultName string) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return upload{name: defaultName, body: r.Body}, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, fmt.Errorf("%w: missing file field: %w", application.ErrRead, err)
	}
	return upload{name: header.Filename, body: file, isFile: true}, nil
}
