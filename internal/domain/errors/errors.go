package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access to the task is forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidToken       = errors.New("invalid token")

	ErrUsernameTaken = fmt.Errorf("%w: username is already taken", ErrUserAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("%w: email is already in use", ErrUserAlreadyExists)

	ErrInvalidTaskID   = errors.New("invalid task id")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidPaging   = errors.New("invalid page or size")

	ErrArchiveDisabled = errors.New("export archive is not configured")

	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value")

	ErrGzipCompressionFailed = errors.New("gzip compression failed")
	ErrInvalidGzipRequest    = errors.New("invalid gzip request body")
)
