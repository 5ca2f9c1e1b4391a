// Package setbydate реализует HTTP-обработчик установки записи на дату.
//
// Если на дату записи нет, она создаётся и ответ имеет статус 201.
// Если запись есть, у неё меняется вид и ответ имеет статус 200.
package setbydate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/quitters/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quitters/internal/http/response"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/models"
)

// Handler обрабатывает запросы установки записи на дату.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики установки записи на дату.
type Service interface {
	SetForDate(ctx context.Context, userID, rawDate, rawType string) (*models.TrackingEntry, bool, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Установить запись на дату
// @Description Создает запись на дату или меняет вид существующей.
// @Tags Entries
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param date path string true "Дата в формате YYYY-MM-DD"
// @Param request body models.DummyEntryType true "Вид записи"
// @Success 200 {object} response.Response "Запись изменена"
// @Success 201 {object} response.Response "Запись создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entries/date/{date} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entries.setbydate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.DummyEntryType
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	date := chi.URLParam(r, "date")
	entry, created, err := h.service.SetForDate(r.Context(), userID, date, req.Type)
	if err != nil {
		status, msg := response.StatusFor(err, "could not set entry")
		log.Error("failed to set entry for date", slog.String("date", date), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	if created {
		render.Status(r, http.StatusCreated)
	}
	log.Info("entry set for date", sl.EntryID(entry.ID), slog.Bool("created", created))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"entry":   entry,
		"created": created,
	}))
}
