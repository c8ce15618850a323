package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/LeventeLantos/kram/internal/phone"
	"github.com/LeventeLantos/kram/internal/repo"
	"github.com/LeventeLantos/kram/internal/service"
)

// StatusValidation is the status returned for rejected input.
const StatusValidation = 442

const (
	msgTextLength   = "Message to long"
	msgInvalidPhone = "Invalid phone number."
	msgDuplicate    = "Phone number already registered."
	msgDatabase     = "Database error"
	msgInvalidBody  = "Invalid request body."

	maxBodyBytes = 16 << 10
)

type KramService interface {
	Submit(ctx context.Context, in service.KramInput) (service.KramResult, error)
	Register(ctx context.Context, raw string) (service.ReceiverResult, error)
}

type StatusReporter interface {
	IsRunning() bool
	LastRun() time.Time
}

type Handler struct {
	svc      KramService
	stats    StatusReporter
	validate *validator.Validate
}

func NewHandler(svc KramService, stats StatusReporter) *Handler {
	return &Handler{svc: svc, stats: stats, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type kramRequest struct {
	Name     *string `json:"name"`
	Text     string  `json:"text" validate:"required,max=160"`
	Receiver *string `json:"receiver" validate:"omitempty,max=32"`
}

type kramResponse struct {
	Message        string   `json:"message"`
	Len            int      `json:"len"`
	SentimentScore *float64 `json:"sentiment_score"`
	ThankYouMsg    string   `json:"thank_you_msg"`
}

type receiverRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=32"`
}

type receiverResponse struct {
	PhoneNumber string    `json:"phone_number"`
	Timestamp   time.Time `json:"timestamp"`
}

func (h *Handler) Kram(w http.ResponseWriter, r *http.Request) {
	var req kramRequest
	if !h.decode(w, r, &req, kramFieldMessages) {
		return
	}

	res, err := h.svc.Submit(r.Context(), service.KramInput{
		Name:     req.Name,
		Text:     req.Text,
		Receiver: req.Receiver,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, kramResponse{
		Message:        res.Message,
		Len:            res.Len,
		SentimentScore: finite(res.SentimentScore),
		ThankYouMsg:    res.ThankYou,
	})
}

func (h *Handler) AddNumber(w http.ResponseWriter, r *http.Request) {
	var req receiverRequest
	if !h.decode(w, r, &req, receiverFieldMessages) {
		return
	}

	res, err := h.svc.Register(r.Context(), req.PhoneNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receiverResponse{
		PhoneNumber: res.PhoneNumber,
		Timestamp:   res.Timestamp.UTC(),
	})
}

func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"Hello": "World"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"running": false})
		return
	}

	body := map[string]any{"running": h.stats.IsRunning()}
	if last := h.stats.LastRun(); !last.IsZero() {
		body["last_run"] = last.UTC()
	}
	writeJSON(w, http.StatusOK, body)
}

var (
	kramFieldMessages = map[string]string{
		"Text":     msgTextLength,
		"Receiver": msgInvalidPhone,
	}
	receiverFieldMessages = map[string]string{
		"PhoneNumber": msgInvalidPhone,
	}
)

// decode reads and validates a JSON body. On failure it writes the response
// and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, fieldMessages map[string]string) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeDetail(w, StatusValidation, msgInvalidBody)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if msg, ok := fieldMessages[verrs[0].StructField()]; ok {
				writeDetail(w, StatusValidation, msg)
				return false
			}
		}
		writeDetail(w, StatusValidation, msgInvalidBody)
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTextLength):
		writeDetail(w, StatusValidation, msgTextLength)
	case errors.Is(err, phone.ErrInvalidPhoneNumber):
		writeDetail(w, StatusValidation, msgInvalidPhone)
	case errors.Is(err, repo.ErrDuplicateReceiver):
		writeDetail(w, http.StatusConflict, msgDuplicate)
	default:
		if !errors.Is(err, service.ErrPersistence) {
			slog.Error("unexpected service error", "error", err)
		}
		writeDetail(w, http.StatusInternalServerError, msgDatabase)
	}
}

// finite maps scores JSON cannot encode to null.
func finite(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
