package updateprofile

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/quitters/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateProfile(ctx context.Context, userID string, req models.DummyProfile) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUpdateProfileHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const userID = "user-1"
	quit := calendar.MustParse("2024-03-01")

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "новая дата отказа",
			body: `{"quit_date":"2024-03-01"}`,
			setupMock: func(m *MockService) {
				m.On("UpdateProfile", mock.Anything, userID, mock.MatchedBy(func(req models.DummyProfile) bool {
					return req.QuitDate != nil && *req.QuitDate == "2024-03-01" && req.Username == nil
				})).Return(&models.User{ID: userID, Username: "quitter", QuitDate: &quit}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"quit_date":"2024-03-01"`,
		},
		{
			name: "занятое имя",
			body: `{"username":"taken"}`,
			setupMock: func(m *MockService) {
				m.On("UpdateProfile", mock.Anything, userID, mock.Anything).Return(nil, storage.ErrUserExists).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"user already exists"`,
		},
		{
			name:           "короткое имя",
			body:           `{"username":"ab"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Username must be at least 3 characters long`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"is_public":"yes"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewBufferString(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), userID, "quitter"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
