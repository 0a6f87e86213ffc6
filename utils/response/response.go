package response

import (
	"errors"
	"net/http"

	"taikoweb/services"

	"github.com/gin-gonic/gin"
)

// Error sends a standardized error response
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// Success sends a standardized success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// ValidationError sends a response for validation errors
func ValidationError(c *gin.Context, errors map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": errors})
}

// Failure sends the response matching an ingestion error's condition
func Failure(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{
		"error": Message(err),
		"kind":  services.KindOf(err),
	})
}

// StatusFor maps an ingestion error to its HTTP status
func StatusFor(err error) int {
	switch services.Condition(err) {
	case services.ErrNotAuthenticated, services.ErrInsufficientPrivilege, services.ErrUnknownUser:
		return http.StatusForbidden
	case services.ErrEmptyUpload, services.ErrArchiveCorrupt, services.ErrPathTraversal:
		return http.StatusBadRequest
	case services.ErrUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case services.ErrArchiveTooLarge:
		return http.StatusRequestEntityTooLarge
	case services.ErrMissingChartAsset, services.ErrMissingAudioAsset:
		return http.StatusUnprocessableEntity
	case services.ErrDuplicateIdentity:
		return http.StatusConflict
	case services.ErrStoreUnavailable:
		return http.StatusServiceUnavailable
	case services.ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var messages = map[error]string{
	services.ErrNotAuthenticated:      "Not logged in",
	services.ErrInsufficientPrivilege: "Insufficient privileges",
	services.ErrUnknownUser:           "Insufficient privileges",
	services.ErrUnsupportedFileType:   "Only .zip archives are accepted",
	services.ErrEmptyUpload:           "No selected file",
	services.ErrArchiveCorrupt:        "The archive could not be read",
	services.ErrPathTraversal:         "The archive contains unsafe paths",
	services.ErrMissingChartAsset:     "No chart (.tja) found in the archive",
	services.ErrMissingAudioAsset:     "No audio (.ogg) found in the archive",
	services.ErrDuplicateIdentity:     "Song identifier already in use",
	services.ErrStoreUnavailable:      "Catalog store unavailable",
	services.ErrArchiveTooLarge:       "The archive is too large",
	services.ErrTimeout:               "Upload processing timed out",
}

// Message returns the client facing text for an ingestion error. Causes are
// logged, not echoed, so paths and driver errors never reach the client.
func Message(err error) string {
	cond := services.Condition(err)
	if msg, ok := messages[cond]; ok {
		return msg
	}
	if errors.Is(err, services.ErrIOFailure) {
		return "Internal error while processing the upload"
	}
	return "Internal server error"
}
