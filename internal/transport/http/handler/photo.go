package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/vehicle-market-api/internal/domain"
)

// maxPhotoBytes caps uploaded profile photos.
const maxPhotoBytes = 5 << 20

var errNoPhoto = errors.New("no photo in request")

// photoPart is an image read from a multipart form.
type photoPart struct {
	Filename    string
	ContentType string
	Body        io.Reader
	file        multipart.File
}

func (p *photoPart) Close() error { return p.file.Close() }

// isMultipart reports whether r carries a multipart/form-data body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readPhoto extracts the image in form field name. The content type is sniffed
// from the bytes rather than trusted from the client. Returns errNoPhoto when the
// field is absent.
func readPhoto(w http.ResponseWriter, r *http.Request, name string) (*photoPart, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+maxBodyBytes)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", domain.ErrBadRequest)
	}
	file, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, errNoPhoto
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, domain.ErrBadRequest)
	}
	if header.Size > maxPhotoBytes {
		file.Close()
		return nil, fmt.Errorf("photo exceeds 5MB: %w", domain.ErrBadRequest)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("read %s: %w", name, domain.ErrBadRequest)
	}
	head = head[:n]
	ct := http.DetectContentType(head)
	if !strings.HasPrefix(ct, "image/") {
		file.Close()
		return nil, fmt.Errorf("photo must be an image: %w", domain.ErrBadRequest)
	}
	return &photoPart{
		Filename:    header.Filename,
		ContentType: ct,
		Body:        io.MultiReader(bytes.NewReader(head), file),
		file:        file,
	}, nil
}
