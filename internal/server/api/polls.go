// HTTP-хендлеры опросов: создание из формы, листинг, просмотр и голосование
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/IvanChernomyrdin/go-polls/internal/server/middleware"
	serr "github.com/IvanChernomyrdin/go-polls/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/models"
)

// Поля формы создания опроса
const (
	FormQuestion = "question"
	FormOption   = "option"
)

// HeaderCache показывает, пришёл ли листинг из кэша (HIT/MISS).
const HeaderCache = "X-Cache"

// CreatePoll принимает форму создания опроса.
//
// Тело ответа всегда CreatePollResult, статус зависит от исхода.
//
// @Summary      Create poll
// @Description  Creates a poll from form fields "question" and repeated "option"
// @Tags         polls
// @Accept       x-www-form-urlencoded,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        question formData string true "Poll question"
// @Param        option formData []string true "Poll option" collectionFormat(multi)
// @Success      201 {object} models.CreatePollResult
// @Failure      303 "Anonymous request, redirect to sign-in"
// @Failure      400 {object} models.CreatePollResult "Validation failed"
// @Failure      500 {object} models.CreatePollResult "Store failure"
// @Router       /polls [post]
func (h *Handler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, models.CreatePollResult{Error: serr.ErrUnauthorized.Error()})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody())
	form, err := h.parsePollForm(r)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, models.CreatePollResult{Error: serr.ErrBadForm.Error()})
		return
	}

	res, err := h.Svc.Polls.Create(r.Context(), userID, form.Get(FormQuestion), form[FormOption])
	WriteJSON(w, createStatus(err), res)
}

// parsePollForm принимает и multipart/form-data, и x-www-form-urlencoded.
func (h *Handler) parsePollForm(r *http.Request) (url.Values, error) {
	err := r.ParseMultipartForm(h.maxBody())
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	case err != nil:
		return nil, err
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		return r.MultipartForm.Value, nil
	}
	return r.PostForm, nil
}

func createStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, serr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, serr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		// *PersistenceError и ErrUnknown
		return http.StatusInternalServerError
	}
}

// ListPolls отдаёт опросы от новых к старым.
//
// Ответ кэшируется по limit/offset и сбрасывается при создании опроса или голосе.
//
// @Summary      List polls
// @Tags         polls
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {object} models.ListPollsResponse
// @Failure      400 {object} ErrorResponse "Bad limit or offset"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /polls [get]
func (h *Handler) ListPolls(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		WriteError(w, http.StatusBadRequest, serr.ErrInvalidInput)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		WriteError(w, http.StatusBadRequest, serr.ErrInvalidInput)
		return
	}

	key := listingKey(r.URL.Path, limit, offset)
	if body, ok, err := h.Listing.Get(r.Context(), key); err != nil {
		h.Log.Sugar().Warnw("listing cache get failed", "key", key, "error", err)
	} else if ok {
		w.Header().Set(HeaderCache, "HIT")
		writeRaw(w, http.StatusOK, body)
		return
	}

	// версию берём до чтения из БД, иначе инвалидация между List и Set потеряется
	version, verErr := h.Listing.Version(r.Context())
	if verErr != nil {
		h.Log.Sugar().Warnw("listing cache version failed", "error", verErr)
	}

	polls, err := h.Svc.Polls.List(r.Context(), limit, offset)
	if err != nil {
		h.Log.Sugar().Errorw("list polls failed", "error", err)
		WriteError(w, http.StatusInternalServerError, serr.ErrInternal)
		return
	}
	if polls == nil {
		polls = []models.PollSummary{}
	}

	body, err := json.Marshal(models.ListPollsResponse{Polls: polls})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, serr.ErrInternal)
		return
	}
	if verErr == nil {
		if err := h.Listing.Set(r.Context(), key, body, version); err != nil {
			h.Log.Sugar().Warnw("listing cache set failed", "key", key, "error", err)
		}
	}

	w.Header().Set(HeaderCache, "MISS")
	writeRaw(w, http.StatusOK, body)
}

// GetPoll отдаёт опрос с вариантами и счётчиками.
//
// @Summary      Get poll
// @Tags         polls
// @Produce      json
// @Param        id path string true "Poll ID"
// @Success      200 {object} models.Poll
// @Failure      404 {object} ErrorResponse "Poll not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /polls/{id} [get]
func (h *Handler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	poll, err := h.Svc.Polls.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			WriteError(w, http.StatusNotFound, serr.ErrNotFound)
			return
		}
		h.Log.Sugar().Errorw("get poll failed", "poll_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, serr.ErrInternal)
		return
	}

	WriteJSON(w, http.StatusOK, poll)
}

// Vote засчитывает голос за вариант опроса.
//
// @Summary      Vote
// @Tags         polls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Poll ID"
// @Param        request body models.VoteRequest true "Vote request"
// @Success      200 {object} models.VoteResponse
// @Failure      400 {object} ErrorResponse "Invalid input or bad JSON"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      404 {object} ErrorResponse "Poll or option not found"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /polls/{id}/votes [post]
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.VoteRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, serr.ErrBadJSON)
		return
	}

	resp, err := h.Svc.Polls.Vote(r.Context(), id, req.OptionID)
	if err != nil {
		switch {
		case errors.Is(err, serr.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, serr.ErrInvalidInput)
		case errors.Is(err, serr.ErrNotFound):
			WriteError(w, http.StatusNotFound, serr.ErrNotFound)
		default:
			h.Log.Sugar().Errorw("vote failed", "poll_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, serr.ErrInternal)
		}
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// queryInt читает неотрицательное целое из query. Пустое значение даёт 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, serr.ErrInvalidInput
	}
	return n, nil
}

// listingKey — ключ кэша только по limit и offset.
func listingKey(path string, limit, offset int) string {
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = "/polls"
	}
	return fmt.Sprintf("%s?limit=%d&offset=%d", path, limit, offset)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set(ContentType, JsonContentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
