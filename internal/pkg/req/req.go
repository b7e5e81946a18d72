/*
Package req provides helper functions for HTTP request parsing and data binding.

It parses JSON and multipart bodies, enforces size limits and converts failures into
errs.CustomError values the handlers can send back directly.
*/
package req

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"bucketfront/internal/pkg/errs"
)

const (
	// MaxFormMemory is the amount of multipart data ParseMultipartForm keeps in memory;
	// larger file parts spill to temporary files.
	MaxFormMemory int64 = 32 << 20 // 32 MB

	// MaxRequestFileSize caps the entire upload request body, enforced via http.MaxBytesReader.
	MaxRequestFileSize int64 = 100 << 20 // 100 MB

	// MaxJSONBodySize caps JSON request bodies.
	MaxJSONBodySize int64 = 1 << 20 // 1 MB
)

// BindJSON decodes the JSON request body into dst, rejecting unknown fields and trailing data.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// SetupMultipart limits the request body and parses it as a multipart form.
func SetupMultipart(w http.ResponseWriter, r *http.Request) *errs.CustomError {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestFileSize)

	if err := r.ParseMultipartForm(MaxFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}

		return errs.NewError(errs.ErrFormParseFailed)
	}

	return nil
}

// FormFiles returns the file parts submitted under field, after SetupMultipart succeeded.
func FormFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}
