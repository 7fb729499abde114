package retrieval

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/studyq-platform/studyq/internal/api"
	"github.com/studyq-platform/studyq/internal/auth"
	"github.com/studyq-platform/studyq/internal/content"
	"github.com/studyq-platform/studyq/internal/query"
	"github.com/studyq-platform/studyq/internal/tokens"
)

type Handler struct {
	orch     *Orchestrator
	validate *validator.Validate
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{
		orch:     orch,
		validate: validator.New(),
	}
}

type QueryRequest struct {
	Query    string `json:"query" validate:"required,max=500"`
	Page     int    `json:"page" validate:"omitempty,min=1"`
	PageSize int    `json:"page_size" validate:"omitempty,min=1,max=50"`
}

type InvalidateRequest struct {
	ExamType    string `json:"exam_type" validate:"max=100"`
	ExamBoard   string `json:"exam_board" validate:"max=100"`
	Subject     string `json:"subject" validate:"max=100"`
	Topic       string `json:"topic" validate:"max=200"`
	RequestType string `json:"request_type" validate:"omitempty,oneof=notes past_papers practice_questions flashcards general"`
	Page        int    `json:"page" validate:"omitempty,min=1"`
	PageSize    int    `json:"page_size" validate:"omitempty,min=1,max=50"`
}

type insufficientBody struct {
	TokensRequired  int `json:"tokens_required"`
	TokensAvailable int `json:"tokens_available"`
}

// Query handles POST /api/v1/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	resp, err := h.orch.Run(r.Context(), Request{
		UserID:   userID,
		RawQuery: req.Query,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		api.HandleError(w, toAppError(err))
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// InvalidateCache handles DELETE /api/v1/cache.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserID(r.Context()); !ok {
		api.HandleError(w, api.ErrUnauthorized)
		return
	}

	var req InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	q := query.StructuredQuery{
		ExamType:    canonicalOrRaw("exam_type", req.ExamType),
		ExamBoard:   canonicalOrRaw("exam_board", req.ExamBoard),
		Subject:     canonicalOrRaw("subject", req.Subject),
		Topic:       req.Topic,
		RequestType: query.RequestType(req.RequestType),
	}
	if q.RequestType == "" {
		q.RequestType = query.RequestGeneral
	}

	key := h.orch.InvalidateQuery(r.Context(), q, content.Page{Page: req.Page, PageSize: req.PageSize})
	api.JSON(w, http.StatusOK, map[string]string{"invalidated": key})
}

func canonicalOrRaw(field, v string) string {
	if c, ok := query.Canonical(field, v); ok {
		return c
	}
	return v
}

func toAppError(err error) error {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return api.NewBadRequestError(inputErr.Reason)
	}

	var short *InsufficientTokensError
	if errors.As(err, &short) {
		return api.NewPaymentRequiredError("insufficient tokens", insufficientBody{
			TokensRequired:  short.Required,
			TokensAvailable: short.Available,
		})
	}

	if errors.Is(err, tokens.ErrAccountNotFound) {
		return api.NewNotFoundError("account not found")
	}

	return api.NewServiceError("retrieval failed")
}
