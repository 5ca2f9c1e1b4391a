package read

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/quitters/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/services"
	"github.com/magabrotheeeer/quitters/internal/storage"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, viewerID, id string) (*models.TrackingEntry, error) {
	args := m.Called(ctx, viewerID, id)
	if res := args.Get(0); res != nil {
		return res.(*models.TrackingEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const viewer = "viewer-1"

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение записи",
			id:   "e1",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, viewer, "e1").
					Return(&models.TrackingEntry{ID: "e1", UserID: viewer, Date: calendar.MustParse("2024-02-29"), Type: models.EntryTypeVaped}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"type":"vaped"`,
		},
		{
			name: "чужая приватная запись",
			id:   "e2",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, viewer, "e2").Return(nil, services.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"access denied"}`,
		},
		{
			name: "запись не найдена",
			id:   "e3",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, viewer, "e3").Return(nil, storage.ErrEntryNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"entry not found"}`,
		},
		{
			name: "ошибка сервиса чтения",
			id:   "e4",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, viewer, "e4").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not read entry"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/entries/"+tt.id, nil)
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUser(ctx, viewer, "viewer"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

func TestReadHandler_Unauthorized(t *testing.T) {
	handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), new(MockService))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/entries/e1", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
