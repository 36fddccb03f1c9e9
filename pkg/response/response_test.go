package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	customError "github.com/segyhp/rental-engine/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestBusinessError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody string
		hiddenText   string
	}{
		{
			name:         "conflict",
			err:          customError.WrapCapacityExceeded(4, 2, 5),
			expectedCode: http.StatusConflict,
			expectedBody: customError.ErrCodeCapacityExceeded,
		},
		{
			name:         "not found",
			err:          customError.WrapRentalNotFound("abc"),
			expectedCode: http.StatusNotFound,
			expectedBody: "abc",
		},
		{
			name:         "internal",
			err:          customError.WrapDatabaseError(errors.New("dial tcp 10.0.0.3:5432")),
			expectedCode: http.StatusInternalServerError,
			expectedBody: customError.ErrCodeDatabaseError,
			hiddenText:   "10.0.0.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			BusinessError(w, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			if tt.hiddenText != "" {
				assert.NotContains(t, w.Body.String(), tt.hiddenText)
			}

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
		})
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
