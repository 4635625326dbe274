package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/jglobalproperties/estate_api/internal/delivery/http/response"
)

// multipartOverhead leaves room for form fields and part headers on top of the file itself
const multipartOverhead = 1 << 20

// imageForm is a parsed multipart request carrying a single file
type imageForm struct {
	file     multipart.File
	filename string
	form     *multipart.Form
}

// readImageForm parses a multipart upload of at most maxBytes in field.
// On failure it has already written the error response.
func readImageForm(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*imageForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "File too large")
			return nil, false
		}
		response.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		response.Error(w, http.StatusBadRequest, "Missing file")
		return nil, false
	}

	if header.Size > maxBytes {
		file.Close()
		_ = r.MultipartForm.RemoveAll()
		response.Error(w, http.StatusRequestEntityTooLarge, "File too large")
		return nil, false
	}

	return &imageForm{file: file, filename: header.Filename, form: r.MultipartForm}, true
}

// Close releases the file and any temporary files of the form
func (f *imageForm) Close() {
	f.file.Close()
	_ = f.form.RemoveAll()
}
