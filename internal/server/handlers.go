package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/hamzaa73/EduGenie/internal/history"
	"github.com/hamzaa73/EduGenie/internal/ingest"
	"github.com/hamzaa73/EduGenie/internal/quiz"
	"github.com/hamzaa73/EduGenie/internal/session"
	httperrors "github.com/hamzaa73/EduGenie/pkg/http/errors"
	"github.com/hamzaa73/EduGenie/pkg/http/ws"
)

const maxUploadBytes = 20 << 20

// Handlers exposes the session flow over HTTP.
type Handlers struct {
	session *session.Session
	history *history.Service
	logger  zerolog.Logger
}

func NewHandlers(sess *session.Session, hist *history.Service, logger zerolog.Logger) *Handlers {
	return &Handlers{
		session: sess,
		history: hist,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondFlowError maps session flow errors onto HTTP statuses; anything
// unrecognized falls through to the caller.
func respondFlowError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, session.ErrBusy):
		httperrors.RespondConflict(w, httperrors.ErrCodeBusy, err.Error())
	case errors.Is(err, session.ErrInvalidPhase):
		httperrors.RespondConflict(w, httperrors.ErrCodeInvalidPhase, err.Error())
	case errors.Is(err, session.ErrAnswerRequired):
		httperrors.RespondConflict(w, httperrors.ErrCodeAnswerRequired, err.Error())
	case errors.Is(err, session.ErrWrongQuestion):
		httperrors.RespondConflict(w, httperrors.ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, session.ErrEmptyBank):
		httperrors.RespondConflict(w, httperrors.ErrCodeEmptyBank, err.Error())
	case errors.Is(err, session.ErrTextTooShort):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeTextTooShort, err.Error())
	case errors.Is(err, session.ErrBankNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeBankNotFound, err.Error())
	default:
		return false
	}
	return true
}

// GetSession returns the full session snapshot.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

type textRequest struct {
	Text string `json:"text"`
}

// PutText replaces the draft source text.
func (h *Handlers) PutText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if err := h.session.SetSourceText(req.Text); err != nil {
		if !respondFlowError(w, err) {
			httperrors.RespondInternalError(w, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// SubmitText moves the pasted text into preview.
func (h *Handlers) SubmitText(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SubmitText(); err != nil {
		if !respondFlowError(w, err) {
			httperrors.RespondInternalError(w, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// PutConfig updates the draft generation parameters.
func (h *Handlers) PutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg quiz.GenerationConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if err := h.session.UpdateConfig(cfg); err != nil {
		if !respondFlowError(w, err) {
			httperrors.RespondInternalError(w, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

type languageRequest struct {
	Language quiz.Language `json:"language"`
}

// PutLanguage switches the working language; allowed from any phase.
func (h *Handlers) PutLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.Language != quiz.LanguageArabic && req.Language != quiz.LanguageEnglish {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "language must be ar or en", "language")
		return
	}
	h.session.SetLanguage(req.Language)
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// Upload ingests a PDF or image and extracts its text.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "file part is required", "file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "unreadable file part")
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}

	art := ingest.Artifact{Name: header.Filename, MediaType: mediaType, Data: data}
	if err := h.session.Ingest(r.Context(), art); err != nil {
		if respondFlowError(w, err) {
			return
		}
		h.logger.Error().Err(err).Str("file", header.Filename).Msg("extraction failed")
		extractionsTotal.WithLabelValues(outcomeFailure).Inc()
		httperrors.RespondError(w, http.StatusUnprocessableEntity, httperrors.ErrCodeExtractionFailed, err.Error())
		return
	}
	extractionsTotal.WithLabelValues(outcomeSuccess).Inc()
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// Generate runs question generation over the previewed text.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Generate(r.Context()); err != nil {
		if respondFlowError(w, err) {
			return
		}
		h.logger.Error().Err(err).Msg("generation failed")
		generationsTotal.WithLabelValues(outcomeFailure).Inc()
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeGenerationFailed, err.Error())
		return
	}
	generationsTotal.WithLabelValues(outcomeSuccess).Inc()
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

// StartQuiz begins an attempt over the active bank.
func (h *Handlers) StartQuiz(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, h.session.StartQuiz)
}

type answerRequest struct {
	QuestionID string      `json:"questionId"`
	Answer     quiz.Answer `json:"answer"`
}

// Answer records the answer for the current question.
func (h *Handlers) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.QuestionID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "questionId is required", "questionId")
		return
	}
	if req.Answer.IsZero() {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "answer is required", "answer")
		return
	}
	h.flowAction(w, func() error { return h.session.SelectAnswer(req.QuestionID, req.Answer) })
}

// Next advances the question pointer.
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, h.session.Next)
}

// Prev moves the question pointer back.
func (h *Handlers) Prev(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, h.session.Prev)
}

type finishResponse struct {
	Result   quiz.Result      `json:"result"`
	Snapshot session.Snapshot `json:"snapshot"`
}

// Finish ends the attempt and returns the score.
func (h *Handlers) Finish(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.Finish()
	if err != nil {
		if !respondFlowError(w, err) {
			httperrors.RespondInternalError(w, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, finishResponse{Result: result, Snapshot: h.session.Snapshot()})
}

// Review re-enters the results screen from the summary.
func (h *Handlers) Review(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, h.session.Review)
}

// Retake restarts the attempt with cleared answers.
func (h *Handlers) Retake(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, h.session.Retake)
}

// Back mirrors the per-screen back affordance.
func (h *Handlers) Back(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, h.session.Back)
}

// Reset returns to upload from any phase, keeping history.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}

type historySummary struct {
	ID            string                `json:"id"`
	CreatedAt     string                `json:"createdAt"`
	Title         string                `json:"title"`
	QuestionCount int                   `json:"questionCount"`
	Config        quiz.GenerationConfig `json:"config"`
}

// ListHistory returns stored bank summaries, newest first.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	banks := h.history.All()
	summaries := make([]historySummary, 0, len(banks))
	for _, b := range banks {
		summaries = append(summaries, historySummary{
			ID:            b.ID,
			CreatedAt:     b.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
			Title:         b.TitleSummary,
			QuestionCount: len(b.Questions),
			Config:        b.Config,
		})
	}
	respondJSON(w, http.StatusOK, summaries)
}

// OpenHistory switches the session to the history screen.
func (h *Handlers) OpenHistory(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, h.session.OpenHistory)
}

// SelectBank loads a stored bank into the active session.
func (h *Handlers) SelectBank(w http.ResponseWriter, r *http.Request) {
	h.flowAction(w, func() error { return h.session.SelectBank(r.PathValue("id")) })
}

// SessionFeed upgrades to WebSocket and streams phase changes.
func (h *Handlers) SessionFeed(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := WSUpgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		wrapped := ws.NewConnection(conn, h.logger)
		id := hub.Register(wrapped)
		go wrapped.WritePump()

		// Push the current snapshot so subscribers never start blind.
		if payload, err := json.Marshal(h.session.Snapshot()); err == nil {
			_ = wrapped.Send(ws.Message{Type: ws.TypePhaseChanged, Payload: payload})
		}

		wrapped.ReadPump(func(msg ws.Message) error {
			if msg.Type == ws.TypePing {
				return wrapped.Send(ws.Message{Type: ws.TypePong})
			}
			return nil
		})
		hub.Unregister(id)
	}
}

func (h *Handlers) flowAction(w http.ResponseWriter, fn func() error) {
	if err := fn(); err != nil {
		if !respondFlowError(w, err) {
			httperrors.RespondInternalError(w, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, h.session.Snapshot())
}
