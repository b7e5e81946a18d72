package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"bucketfront/internal/app/files"
	"bucketfront/internal/app/storage"
	"bucketfront/internal/pkg/errs"
	"bucketfront/internal/pkg/randx"
	"bucketfront/internal/pkg/req"
	"bucketfront/internal/pkg/resp"
)

// UploadFieldName is the multipart field carrying the uploaded files.
const UploadFieldName = "files"

// UploadResultOutput is the per-file entry of an upload response.
type UploadResultOutput struct {
	FileName string `json:"fileName"`
	FileKey  string `json:"fileKey,omitempty"`
	URL      string `json:"url,omitempty"`
	Code     int    `json:"code"`
	Message  string `json:"message,omitempty"`
}

// CopyFileInput defines the JSON input for copying or moving an object.
type CopyFileInput struct {
	DestBucket string `json:"destBucket"`
	SourceKey  string `json:"sourceKey"`
	DestKey    string `json:"destKey"`
	Move       bool   `json:"move"`
}

// storageError converts a files/storage error into the client-facing error.
func storageError(err error, fileName string) *errs.CustomError {
	switch {
	case errors.Is(err, randx.ErrMissingExtension):
		return errs.NewError(errs.ErrFileNameInvalid, fileName)
	case errors.Is(err, files.ErrInvalidArgument), errors.Is(err, storage.ErrInvalidRequest):
		return errs.NewError(errs.ErrInvalidParams)
	case errors.Is(err, storage.ErrNotFound):
		return errs.NewError(errs.ErrFileNotFound)
	default:
		return errs.NewError(errs.ErrFileStorageFailed)
	}
}

// contentTypeOf prefers the part's declared type, then the extension, then octet-stream.
func contentTypeOf(declared, fileName string) string {
	if declared != "" {
		return declared
	}
	if byExt := mime.TypeByExtension(randx.Extension(fileName)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

// HandleUploadFiles stores every file of a multipart request and reports one result per file.
// Partial failures answer with ErrPartialUpload and still carry the successful URLs.
func HandleUploadFiles(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		headers := req.FormFiles(r, UploadFieldName)
		if len(headers) == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrNoFilesProvided))
			return
		}

		inputs := make([]files.FileInput, 0, len(headers))
		for _, fh := range headers {
			fh := fh
			inputs = append(inputs, files.FileInput{
				Name:        fh.Filename,
				ContentType: contentTypeOf(fh.Header.Get("Content-Type"), fh.Filename),
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}

		results := deps.Files.Upload(r.Context(), inputs)

		outputs := make([]UploadResultOutput, 0, len(results))
		for _, res := range results {
			out := UploadResultOutput{FileName: res.Name}
			if res.Err != nil {
				ce := storageError(res.Err, res.Name)
				out.Code = ce.Code
				out.Message = ce.Message
			} else {
				out.FileKey = res.Key
				out.URL = res.URL
			}
			outputs = append(outputs, out)
		}

		data := map[string]any{
			"urls":    files.URLs(results),
			"results": outputs,
		}

		if failed := files.Failed(results); failed > 0 {
			resp.RespondErrorWithData(w, r, errs.NewError(errs.ErrPartialUpload, failed, len(results)), data)
			return
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleListFiles returns every key in the bucket.
func HandleListFiles(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := deps.Files.ListKeys(r.Context())
		if err != nil {
			resp.RespondError(w, r, storageError(err, ""))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"bucket": deps.Files.Bucket(),
			"keys":   keys,
			"count":  len(keys),
		})
	}
}

// HandleGetFileURL returns the URL for the key given in query parameter "k".
// The object is not checked for existence.
func HandleGetFileURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{
			"fileKey": fileKey,
			"url":     deps.Files.URL(fileKey),
		})
	}
}

// HandleResolveFileKey recovers the key from a URL produced by this service.
func HandleResolveFileKey(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawURL := r.URL.Query().Get("url")
		if rawURL == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		fileKey, ok := deps.Files.ResolveKey(rawURL)
		if !ok || fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileURLInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{
			"fileKey": fileKey,
			"url":     rawURL,
		})
	}
}

// HandleDeleteFile deletes the key given in query parameter "k".
func HandleDeleteFile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Files.Delete(r.Context(), fileKey); err != nil {
			resp.RespondError(w, r, storageError(err, fileKey))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"fileKey": fileKey,
			"deleted": true,
		})
	}
}

// HandleCopyFile copies (or, with "move", relocates) an object of the bucket to another bucket/key.
func HandleCopyFile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CopyFileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.DestBucket = strings.TrimSpace(input.DestBucket)
		if input.DestBucket == "" || input.SourceKey == "" || input.DestKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		op := deps.Files.Copy
		if input.Move {
			op = deps.Files.Move
		}

		if err := op(r.Context(), input.DestBucket, input.SourceKey, input.DestKey); err != nil {
			resp.RespondError(w, r, storageError(err, input.SourceKey))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"sourceBucket": deps.Files.Bucket(),
			"sourceKey":    input.SourceKey,
			"destBucket":   input.DestBucket,
			"destKey":      input.DestKey,
			"moved":        input.Move,
		})
	}
}

// HandleGetObject serves public objects straight from deps.Objects.
func HandleGetObject(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bucket := chi.URLParam(r, "bucket")
		key := chi.URLParam(r, "*")
		if unescaped, err := url.PathUnescape(key); err == nil {
			key = unescaped
		}

		obj, err := deps.Objects.Get(r.Context(), bucket, key)
		if err != nil || obj.Visibility != storage.VisibilityPublicRead {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", contentTypeOf(obj.ContentType, obj.Key))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, obj.Key, obj.LastModified, bytes.NewReader(obj.Data))
	}
}
