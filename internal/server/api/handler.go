// Package api реализует HTTP-слой сервера опросов.
//
// Пакет отвечает за:
//   - обработку входящих запросов и формирование ответов (JSON, статусы);
//   - маппинг доменных ошибок (service/repository) в HTTP-коды и сообщения;
//   - кэширование ответа листинга опросов.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/IvanChernomyrdin/go-polls/internal/server/cache"
	"github.com/IvanChernomyrdin/go-polls/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-polls/internal/server/service"
	"github.com/IvanChernomyrdin/go-polls/internal/shared/logger"
)

// Каждый метод если будет возвращать ответ то будет это делать в JSON
// Вынес Content-Type и JSON для удобства
const (
	JsonContentType string = "application/json"
	ContentType     string = "Content-Type"
)

const defaultMaxBodyBytes int64 = 1 << 20

// Handler агрегирует зависимости HTTP-слоя и предоставляет методы-хендлеры.
//
// Handler содержит:
//   - Svc: сервисный слой (бизнес-логика);
//   - Log: логгер для записи событий и ошибок;
//   - Verifier: компонент проверки JWT и middleware авторизации;
//   - Listing: кэш ответа GET /polls.
type Handler struct {
	Svc          *service.Services
	Log          *logger.HTTPLogger
	Verifier     *middleware.JWTVerifier
	Listing      cache.ListingCache
	MaxBodyBytes int64
}

// NewHandler создаёт экземпляр Handler с переданными зависимостями.
// listing == nil отключает кэш листинга.
func NewHandler(svc *service.Services, log *logger.HTTPLogger, verifier *middleware.JWTVerifier, listing cache.ListingCache) *Handler {
	if listing == nil {
		listing = cache.Nop{}
	}
	return &Handler{
		Svc:          svc,
		Log:          log,
		Verifier:     verifier,
		Listing:      listing,
		MaxBodyBytes: defaultMaxBodyBytes,
	}
}

// ErrorResponse стандартный формат ошибки API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Вспомогательная функция вывода ошибки
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, ErrorResponse{Error: err.Error()})
}

// WriteJSON пишет v как JSON с указанным статусом.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(ContentType, JsonContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON читает тело не больше MaxBodyBytes.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody())
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *Handler) maxBody() int64 {
	if h.MaxBodyBytes <= 0 {
		return defaultMaxBodyBytes
	}
	return h.MaxBodyBytes
}
