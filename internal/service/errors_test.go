package service

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-admin-api/pkg/database"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

func TestNotFoundOrClassifiesStorageErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    string
		status  int
		message string
	}{
		{"no rows", fmt.Errorf("find class: %w", sql.ErrNoRows), appErrors.ErrNotFound.Code, http.StatusNotFound, "class not found"},
		{"malformed uuid", fmt.Errorf("find class: %w", &pq.Error{Code: "22P02"}), appErrors.ErrNotFound.Code, http.StatusNotFound, "class not found"},
		{"unique violation", &pq.Error{Code: "23505", Constraint: "students_student_id_active_key"}, appErrors.ErrConflict.Code, http.StatusConflict, "student id already exists"},
		{"pool exhausted", database.ErrStorageUnavailable, appErrors.ErrStorageUnavailable.Code, http.StatusServiceUnavailable, appErrors.ErrStorageUnavailable.Message},
		{"unexpected", errors.New("connection reset"), appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to load class"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := appErrors.FromError(notFoundOr(tc.err, "class not found", "failed to load class"))
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.message, got.Message)
		})
	}
}
