// Package removebydate реализует HTTP-обработчик удаления записи на дату.
package removebydate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/quitters/internal/http/middlewarectx"
	"github.com/magabrotheeeer/quitters/internal/http/response"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	RemoveForDate(ctx context.Context, userID, rawDate string) (*models.TrackingEntry, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить запись на дату
// @Tags Entries
// @Produce  json
// @Security BearerAuth
// @Param date path string true "Дата в формате YYYY-MM-DD"
// @Success 200 {object} response.Response "Удаленная запись"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "На дату нет записи"
// @Failure 422 {object} response.ErrorResponse "Некорректная дата"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /entries/date/{date} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entries.removebydate"
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

	date := chi.URLParam(r, "date")
	removed, err := h.service.RemoveForDate(r.Context(), userID, date)
	if err != nil {
		status, msg := response.StatusFor(err, "could not delete entry")
		log.Error("failed to delete entry for date", slog.String("date", date), sl.Err(err))
		render.Status(r, status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	log.Info("entry deleted", sl.EntryID(removed.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"entry": removed,
	}))
}
