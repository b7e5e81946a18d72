/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: File and Object Errors
	ErrNoFilesProvided: {Code: ErrNoFilesProvided, Message: "No files were provided.", Status: http.StatusBadRequest},
	ErrFileNameInvalid: {Code: ErrFileNameInvalid, Message: "File name %q has no extension.", Status: http.StatusBadRequest},
	ErrFileNotFound:    {Code: ErrFileNotFound, Message: "File not found.", Status: http.StatusNotFound},
	ErrFileURLInvalid:  {Code: ErrFileURLInvalid, Message: "URL does not point into this bucket.", Status: http.StatusBadRequest},

	// 3xxx: Authorization Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File storage operation failed. Please try again.", Status: http.StatusBadGateway},
	ErrPartialUpload:     {Code: ErrPartialUpload, Message: "%d of %d files could not be uploaded.", Status: http.StatusMultiStatus},
}
