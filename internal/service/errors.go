package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/school-admin-api/pkg/database"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

var conflictMessages = map[string]string{
	"teachers_username_active_key":      "username already exists",
	"teachers_email_active_key":         "email already exists",
	"student_logins_username_key":       "username already exists",
	"student_logins_student_active_key": "student already has an active login",
	"students_student_id_active_key":    "student id already exists",
}

// storageError classifies a repository failure. Unique violations become CONFLICT and pool or
// deadline failures become STORAGE_UNAVAILABLE; anything else is INTERNAL_ERROR with message.
func storageError(err error, message string) error {
	switch {
	case database.IsUniqueViolation(err):
		msg, ok := conflictMessages[database.ConstraintName(err)]
		if !ok {
			msg = appErrors.ErrConflict.Message
		}
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, msg)
	case database.IsUnavailable(err):
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

// notFoundOr maps sql.ErrNoRows and ids that cannot name a row to NOT_FOUND with notFound, and
// classifies anything else.
func notFoundOr(err error, notFound, message string) error {
	if errors.Is(err, sql.ErrNoRows) || database.IsInvalidInput(err) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return storageError(err, message)
}
