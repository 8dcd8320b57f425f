package types

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stooppolitics/stoop-cms/internal/services/auth"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/inbox"
	"github.com/stooppolitics/stoop-cms/internal/services/public"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

// Handler utility functions to reduce duplication across handlers

// ParseIDParam extracts a UUID path parameter
// Returns the canonical string and sends error response if parsing fails
func ParseIDParam(c *gin.Context, paramName string) (string, bool) {
	id, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		SendBadRequest(c, "Invalid "+paramName)
		return "", false
	}
	return id.String(), true
}

// BindJSONOrError attempts to bind JSON request body to target struct
// Returns false and sends error response if binding fails
func BindJSONOrError(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Status:  StatusError,
			Message: "Invalid request body",
			Error:   string(apperrors.ErrCodeValidation),
			Details: err.Error(),
		})
		return false
	}
	return true
}

// FormFile opens an optional multipart file; a nil header means the field was not sent
func FormFile(c *gin.Context, field string) (multipart.File, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return file, header, nil
}

// SendBadRequest sends a standardized bad request response
func SendBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Status: StatusError, Message: message, Error: string(apperrors.ErrCodeValidation)})
}

// SendNotFound sends a standardized not found response
func SendNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Status: StatusError, Message: message, Error: string(apperrors.ErrCodeNotFound)})
}

// SendInternalError sends a standardized internal server error response
func SendInternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Status: StatusError, Message: message, Error: string(apperrors.ErrCodeInternal)})
}

// SendSuccess sends a standardized success response with data
func SendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendCreated sends a standardized created response with data
func SendCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendAppError writes err as an ErrorResponse with the matching status code
func SendAppError(c *gin.Context, err error) {
	status, resp := ErrorFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, resp)
}

// ErrorFor translates service errors into an HTTP status and body
func ErrorFor(err error) (int, ErrorResponse) {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.GetHTTPCode(), ErrorResponse{
			Status:  StatusError,
			Message: appErr.Message,
			Error:   string(appErr.Code),
			Details: detailsOrNil(appErr.Details),
		}
	}

	status, code, message := http.StatusInternalServerError, apperrors.ErrCodeInternal, "Internal server error"
	switch {
	case errors.Is(err, episodes.ErrEpisodeNotFound),
		errors.Is(err, transcripts.ErrEpisodeNotFound):
		status, code, message = http.StatusNotFound, apperrors.ErrCodeNotFound, "Episode not found"
	case errors.Is(err, transcripts.ErrNodeNotFound):
		status, code, message = http.StatusNotFound, apperrors.ErrCodeNotFound, "Transcript node not found"
	case errors.Is(err, inbox.ErrMessageNotFound):
		status, code, message = http.StatusNotFound, apperrors.ErrCodeNotFound, "Message not found"
	case errors.Is(err, public.ErrNotPublished):
		status, code, message = http.StatusNotFound, apperrors.ErrCodeNotFound, "Episode not found"
	case errors.Is(err, episodes.ErrAlreadyPublished):
		status, code, message = http.StatusConflict, apperrors.ErrCodeConflict, "Episode is already published"
	case errors.Is(err, episodes.ErrInvalidInput),
		errors.Is(err, transcripts.ErrInvalidInput),
		errors.Is(err, inbox.ErrInvalidInput),
		errors.Is(err, episodes.ErrInvalidField),
		errors.Is(err, transcripts.ErrInvalidField):
		status, code, message = http.StatusBadRequest, apperrors.ErrCodeValidation, err.Error()
	case errors.Is(err, transcripts.ErrEmptyTranscript):
		status, code, message = http.StatusBadRequest, apperrors.ErrCodeValidation, "Caption file has no cues"
	case errors.Is(err, transcription.ErrNoAudio):
		status, code, message = http.StatusConflict, apperrors.ErrCodeConflict, "Episode has no stored audio to transcribe"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, code, message = http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Invalid email or password"
	case errors.Is(err, auth.ErrUnauthorized):
		status, code, message = http.StatusForbidden, apperrors.ErrCodePermissionDenied, "Access denied"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		status, code, message = http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Invalid or expired token"
	}

	return status, ErrorResponse{Status: StatusError, Message: message, Error: string(code)}
}

func detailsOrNil(details map[string]interface{}) interface{} {
	if len(details) == 0 {
		return nil
	}
	return details
}
