/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific request, authorization, or storage
errors both internally within the server and in responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: File and Object Errors
const (
	// ErrNoFilesProvided indicates that an upload request carried no file parts.
	ErrNoFilesProvided = 2101

	// ErrFileNameInvalid indicates that an uploaded file name has no usable extension.
	ErrFileNameInvalid = 2102

	// ErrFileNotFound indicates that the requested object key does not exist in the bucket.
	ErrFileNotFound = 2103

	// ErrFileURLInvalid indicates that a URL does not belong to the configured bucket.
	ErrFileURLInvalid = 2104
)

// 3xxx: Authorization Errors
const (
	// ErrUnauthorized indicates that the request requires a valid bearer token.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates that the object storage backend rejected or failed an operation.
	ErrFileStorageFailed = 5001

	// ErrPartialUpload indicates that some, but not all, files in an upload request were stored.
	ErrPartialUpload = 5002
)
