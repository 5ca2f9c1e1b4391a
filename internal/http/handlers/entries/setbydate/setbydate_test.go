package setbydate

import (
	"bytes"
	"context"
	"fmt"
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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SetForDate(ctx context.Context, userID, rawDate, rawType string) (*models.TrackingEntry, bool, error) {
	args := m.Called(ctx, userID, rawDate, rawType)
	if res := args.Get(0); res != nil {
		return res.(*models.TrackingEntry), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func TestSetByDateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const owner = "owner-1"
	entry := &models.TrackingEntry{ID: "e1", UserID: owner, Date: calendar.MustParse("2024-03-10"), Type: models.EntryTypeVaped}

	tests := []struct {
		name           string
		date           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "запись создана",
			date: "2024-03-10",
			body: `{"type":"vaped"}`,
			setupMock: func(m *MockService) {
				m.On("SetForDate", mock.Anything, owner, "2024-03-10", "vaped").Return(entry, true, nil).Once()
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"created":true`,
		},
		{
			name: "вид изменён",
			date: "2024-03-10",
			body: `{"type":"vaped"}`,
			setupMock: func(m *MockService) {
				m.On("SetForDate", mock.Anything, owner, "2024-03-10", "vaped").Return(entry, false, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"created":false`,
		},
		{
			name: "некорректная дата в пути",
			date: "10-03-2024",
			body: `{"type":"vaped"}`,
			setupMock: func(m *MockService) {
				m.On("SetForDate", mock.Anything, owner, "10-03-2024", "vaped").
					Return(nil, false, fmt.Errorf("tracking.SetForDate: %w: bad date", services.ErrInvalidInput)).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"invalid input: bad date"`,
		},
		{
			name:           "вид не указан",
			date:           "2024-03-10",
			body:           `{}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Type is a required field`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPut, "/entries/date/"+tt.date, bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("date", tt.date)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithUser(ctx, owner, "owner"))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
