// Package list реализует HTTP-обработчик выборки записей пользователя.
//
// С параметрами year и month возвращаются записи за календарный месяц,
// без них возвращаются все записи. Идентификатор "me" означает
// текущего пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quitters/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quitters/internal/http/response"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/models"
)

// Handler обрабатывает запросы на выборку записей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выборки записей трекинга.
type Service interface {
	ListMonth(ctx context.Context, viewerID, ownerID string, year int, month time.Month) ([]*models.TrackingEntry, error)
	ListAll(ctx context.Context, viewerID, ownerID string) ([]*models.TrackingEntry, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Записи пользователя
// @Description Возвращает записи пользователя от новых к старым: за месяц (не больше 100) или все.
// @Tags Entries
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя или me"
// @Param year query int false "Год"
// @Param month query int false "Месяц 1-12"
// @Success 200 {object} response.Response "Список записей"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Профиль скрыт"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{id}/entries [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entries.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	viewerID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	ownerID := chi.URLParam(r, "id")
	if ownerID == "me" {
		ownerID = viewerID
	}

	q := r.URL.Query()
	rawYear, rawMonth := q.Get("year"), q.Get("month")

	var (
		entries []*models.TrackingEntry
		err     error
	)
	switch {
	case rawYear == "" && rawMonth == "":
		entries, err = h.service.ListAll(r.Context(), viewerID, ownerID)
	case rawYear == "" || rawMonth == "":
		log.Warn("incomplete month query", slog.String("year", rawYear), slog.String("month", rawMonth))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("both year and month are required"))
		return
	default:
		year, errY := strconv.Atoi(rawYear)
		month, errM := strconv.Atoi(rawMonth)
		if errY != nil || errM != nil {
			log.Warn("failed to parse month query", slog.String("year", rawYear), slog.String("month", rawMonth))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("year and month must be integers"))
			return
		}
		entries, err = h.service.ListMonth(r.Context(), viewerID, ownerID, year, time.Month(month))
	}
	if err != nil {
		status, msg := response.StatusFor(err, "could not list entries")
		log.Error("failed to list entries", sl.UserID(ownerID), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Debug("entries listed", sl.UserID(ownerID), slog.Int("count", len(entries)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"entries": entries,
	}))
}
