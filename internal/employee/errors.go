package employee

import (
	"errors"

	"github.com/jalh2/healthyubackend/internal/apperror"
)

var (
	ErrMissingFields     = apperror.Validation("All fields must be filled")
	ErrInvalidUserType   = apperror.Validation("Invalid user type")
	ErrUserTypeExists    = apperror.Validation("This user type already exists")
	ErrUnknownUserType   = apperror.Auth("Invalid user type")
	ErrIncorrectPassword = apperror.Auth("Incorrect password")
)

// Store level failures returned by repositories.
var (
	ErrNotFound          = errors.New("employee not found")
	ErrDuplicateUserType = errors.New("user type already exists")
)
