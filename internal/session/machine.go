package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hamzaa73/EduGenie/internal/history"
	"github.com/hamzaa73/EduGenie/internal/ingest"
	"github.com/hamzaa73/EduGenie/internal/quiz"
)

// Phase names the current state of the quiz session.
type Phase string

const (
	PhaseUpload      Phase = "upload"
	PhasePreview     Phase = "preview"
	PhaseGenerating  Phase = "generating"
	PhaseResults     Phase = "results"
	PhaseQuiz        Phase = "quiz"
	PhaseQuizSummary Phase = "quiz_summary"
	PhaseHistory     Phase = "history"
)

var (
	ErrBusy           = errors.New("an extraction or generation call is already in flight")
	ErrInvalidPhase   = errors.New("action not allowed in the current phase")
	ErrTextTooShort   = errors.New("source text is below the minimum length")
	ErrAnswerRequired = errors.New("current question has no recorded answer")
	ErrEmptyBank      = errors.New("question bank has no questions")
	ErrBankNotFound   = errors.New("question bank not found")
	ErrWrongQuestion  = errors.New("answer does not target the current question")
)

// Generator is the external generation collaborator: source text plus
// parameters in, raw question records (JSON array) out. Non-deterministic and
// fallible by nature.
type Generator interface {
	GenerateQuestions(ctx context.Context, sourceText string, cfg quiz.GenerationConfig) ([]byte, error)
}

// Extractor turns an uploaded artifact into source text.
type Extractor interface {
	Extract(ctx context.Context, art ingest.Artifact, lang quiz.Language) (string, error)
}

const defaultMinTextLen = 20

// Options tune session defaults.
type Options struct {
	MinTextLen    int
	DefaultConfig quiz.GenerationConfig
	Clock         func() time.Time
}

// Snapshot is a read-only view of the session for transports.
type Snapshot struct {
	Phase        Phase                  `json:"phase"`
	SourceText   string                 `json:"sourceText"`
	Config       quiz.GenerationConfig  `json:"config"`
	Language     quiz.Language          `json:"language"`
	Bank         *quiz.QuestionBank     `json:"bank,omitempty"`
	CurrentIndex int                    `json:"currentIndex"`
	Answers      map[string]quiz.Answer `json:"answers"`
	ReviewMode   bool                   `json:"reviewMode"`
	Busy         bool                   `json:"busy"`
}

// Session owns the multi-step flow: upload, preview, generate, quiz, summary,
// review and history. All mutating operations are serialized by the mutex;
// the two asynchronous calls (extract, generate) run outside it and re-enter
// through an epoch check so stale completions never clobber newer state.
type Session struct {
	mu sync.Mutex

	phase      Phase
	sourceText string
	config     quiz.GenerationConfig
	bank       *quiz.QuestionBank
	current    int
	answers    map[string]quiz.Answer

	// epoch tags in-flight extraction/generation calls. Reset bumps it so a
	// slow completion from the previous flow is discarded on arrival.
	epoch uint64
	busy  bool

	minTextLen int
	clock      func() time.Time

	history   *history.Service
	generator Generator
	extractor Extractor
	onChange  func(Snapshot)
	logger    zerolog.Logger
}

func New(hist *history.Service, gen Generator, ext Extractor, opts Options, logger zerolog.Logger) *Session {
	minLen := opts.MinTextLen
	if minLen <= 0 {
		minLen = defaultMinTextLen
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	cfg := opts.DefaultConfig
	if cfg.Language == "" {
		cfg.Language = quiz.LanguageArabic
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = quiz.DifficultyMedium
	}

	return &Session{
		phase:      PhaseUpload,
		config:     cfg.Clamp(),
		answers:    map[string]quiz.Answer{},
		minTextLen: minLen,
		clock:      clock,
		history:    hist,
		generator:  gen,
		extractor:  ext,
		logger:     logger.With().Str("component", "session").Logger(),
	}
}

// SetListener registers a callback invoked after every phase change, with the
// snapshot taken at that moment. Used by the WebSocket phase feed.
func (s *Session) SetListener(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	answers := make(map[string]quiz.Answer, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	var bank *quiz.QuestionBank
	if s.bank != nil {
		b := *s.bank
		bank = &b
	}
	return Snapshot{
		Phase:        s.phase,
		SourceText:   s.sourceText,
		Config:       s.config,
		Language:     s.config.Language,
		Bank:         bank,
		CurrentIndex: s.current,
		Answers:      answers,
		ReviewMode:   s.phase == PhaseResults && len(s.answers) > 0,
		Busy:         s.busy,
	}
}

func (s *Session) setPhaseLocked(p Phase) {
	if s.phase == p {
		return
	}
	s.logger.Debug().Str("from", string(s.phase)).Str("to", string(p)).Msg("phase transition")
	s.phase = p
	if s.onChange != nil {
		s.onChange(s.snapshotLocked())
	}
}

// SetSourceText replaces the draft source text while on the upload screen.
func (s *Session) SetSourceText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseUpload {
		return fmt.Errorf("%w: editing text requires %s, got %s", ErrInvalidPhase, PhaseUpload, s.phase)
	}
	s.sourceText = text
	return nil
}

// SubmitText moves upload -> preview when the pasted text clears the minimum
// length threshold.
func (s *Session) SubmitText() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseUpload {
		return fmt.Errorf("%w: submit requires %s, got %s", ErrInvalidPhase, PhaseUpload, s.phase)
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.sourceText)) <= s.minTextLen {
		return ErrTextTooShort
	}
	s.setPhaseLocked(PhasePreview)
	return nil
}

// UpdateConfig adjusts the draft generation parameters; negative counts are
// coerced to zero.
func (s *Session) UpdateConfig(cfg quiz.GenerationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseUpload && s.phase != PhasePreview {
		return fmt.Errorf("%w: config edits require %s or %s, got %s", ErrInvalidPhase, PhaseUpload, PhasePreview, s.phase)
	}
	if cfg.Language == "" {
		cfg.Language = s.config.Language
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = s.config.Difficulty
	}
	s.config = cfg.Clamp()
	return nil
}

// SetLanguage switches the working language from any phase.
func (s *Session) SetLanguage(lang quiz.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Language = lang
}

// Ingest extracts text from an uploaded artifact and, on success, moves to
// preview. On failure the session stays in upload and no partial text is kept.
func (s *Session) Ingest(ctx context.Context, art ingest.Artifact) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.phase != PhaseUpload {
		s.mu.Unlock()
		return fmt.Errorf("%w: upload requires %s, got %s", ErrInvalidPhase, PhaseUpload, s.phase)
	}
	epoch := s.epoch
	lang := s.config.Language
	s.busy = true
	s.mu.Unlock()

	text, err := s.extractor.Extract(ctx, art, lang)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug().Str("file", art.Name).Msg("discarding stale extraction result")
		return nil
	}
	s.busy = false
	if err != nil {
		return err
	}
	s.sourceText = text
	s.setPhaseLocked(PhasePreview)
	return nil
}

// Generate runs the generation collaborator and normalizes its output. On
// success the new bank is prepended to history and the session shows results;
// on any failure it reverts to preview with text and config preserved.
func (s *Session) Generate(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.phase != PhasePreview {
		s.mu.Unlock()
		return fmt.Errorf("%w: generate requires %s, got %s", ErrInvalidPhase, PhasePreview, s.phase)
	}
	if strings.TrimSpace(s.sourceText) == "" {
		s.mu.Unlock()
		return ErrTextTooShort
	}
	text, cfg := s.sourceText, s.config
	epoch := s.epoch
	s.busy = true
	s.setPhaseLocked(PhaseGenerating)
	s.mu.Unlock()

	raw, err := s.generator.GenerateQuestions(ctx, text, cfg)
	var questions []quiz.Question
	if err == nil {
		questions, err = quiz.Normalize(raw, cfg, s.clock())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug().Msg("discarding stale generation result")
		return nil
	}
	s.busy = false
	if err != nil {
		s.setPhaseLocked(PhasePreview)
		return fmt.Errorf("generate questions: %w", err)
	}

	bank := quiz.NewBank(text, questions, cfg, s.clock())
	s.bank = &bank
	s.answers = map[string]quiz.Answer{}
	s.setPhaseLocked(PhaseResults)

	if err := s.history.Append(ctx, bank); err != nil {
		// Generation succeeded; a persistence hiccup must not lose the bank.
		s.logger.Warn().Err(err).Str("bank_id", bank.ID).Msg("question bank not persisted")
	}
	return nil
}

// StartQuiz begins an attempt over the active bank.
func (s *Session) StartQuiz() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseResults {
		return fmt.Errorf("%w: starting a quiz requires %s, got %s", ErrInvalidPhase, PhaseResults, s.phase)
	}
	return s.startQuizLocked()
}

func (s *Session) startQuizLocked() error {
	if s.bank == nil || len(s.bank.Questions) == 0 {
		return ErrEmptyBank
	}
	s.current = 0
	s.answers = map[string]quiz.Answer{}
	s.setPhaseLocked(PhaseQuiz)
	return nil
}

// CurrentQuestion returns the question under the pointer during a quiz.
func (s *Session) CurrentQuestion() (quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuiz || s.bank == nil {
		return quiz.Question{}, fmt.Errorf("%w: no active quiz", ErrInvalidPhase)
	}
	return s.bank.Questions[s.current], nil
}

// SelectAnswer records (or overwrites) the answer for the current question.
func (s *Session) SelectAnswer(questionID string, answer quiz.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuiz || s.bank == nil {
		return fmt.Errorf("%w: answering requires %s, got %s", ErrInvalidPhase, PhaseQuiz, s.phase)
	}
	if questionID != s.bank.Questions[s.current].ID {
		return ErrWrongQuestion
	}
	s.answers[questionID] = answer
	return nil
}

// Next advances the question pointer, gated on the current question being
// answered; the pointer clamps at the last question.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuiz || s.bank == nil {
		return fmt.Errorf("%w: navigation requires %s, got %s", ErrInvalidPhase, PhaseQuiz, s.phase)
	}
	if _, ok := s.answers[s.bank.Questions[s.current].ID]; !ok {
		return ErrAnswerRequired
	}
	if s.current < len(s.bank.Questions)-1 {
		s.current++
	}
	return nil
}

// Prev moves the pointer back, clamped at zero. No answer gate.
func (s *Session) Prev() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuiz || s.bank == nil {
		return fmt.Errorf("%w: navigation requires %s, got %s", ErrInvalidPhase, PhaseQuiz, s.phase)
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// Finish ends the attempt from the last question, only if it was answered,
// and returns the scored result.
func (s *Session) Finish() (quiz.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuiz || s.bank == nil {
		return quiz.Result{}, fmt.Errorf("%w: finishing requires %s, got %s", ErrInvalidPhase, PhaseQuiz, s.phase)
	}
	if s.current != len(s.bank.Questions)-1 {
		return quiz.Result{}, fmt.Errorf("%w: finish is only reachable from the last question", ErrInvalidPhase)
	}
	if _, ok := s.answers[s.bank.Questions[s.current].ID]; !ok {
		return quiz.Result{}, ErrAnswerRequired
	}
	s.setPhaseLocked(PhaseQuizSummary)
	return quiz.Score(s.bank.Questions, s.answers), nil
}

// Result scores the recorded answers against the active bank. Valid in the
// summary and results phases.
func (s *Session) Result() (quiz.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bank == nil || (s.phase != PhaseQuizSummary && s.phase != PhaseResults) {
		return quiz.Result{}, fmt.Errorf("%w: no completed attempt to score", ErrInvalidPhase)
	}
	return quiz.Score(s.bank.Questions, s.answers), nil
}

// Review re-enters results from the summary; review mode is derived from the
// recorded answers, not stored.
func (s *Session) Review() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuizSummary {
		return fmt.Errorf("%w: review requires %s, got %s", ErrInvalidPhase, PhaseQuizSummary, s.phase)
	}
	s.setPhaseLocked(PhaseResults)
	return nil
}

// Retake restarts the attempt with cleared answers.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuizSummary && s.phase != PhaseResults {
		return fmt.Errorf("%w: retake requires %s or %s, got %s", ErrInvalidPhase, PhaseQuizSummary, PhaseResults, s.phase)
	}
	return s.startQuizLocked()
}

// Back mirrors the per-screen back affordance: preview and history return to
// upload; results return to the summary when an attempt was recorded,
// otherwise to upload.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhasePreview, PhaseHistory:
		s.setPhaseLocked(PhaseUpload)
		return nil
	case PhaseResults:
		if len(s.answers) > 0 {
			s.setPhaseLocked(PhaseQuizSummary)
		} else {
			s.setPhaseLocked(PhaseUpload)
		}
		return nil
	default:
		return fmt.Errorf("%w: nothing to go back to from %s", ErrInvalidPhase, s.phase)
	}
}

// Reset returns to upload from any phase, discarding the in-progress flow but
// never the history. In-flight extraction or generation results are orphaned
// by the epoch bump and dropped when they arrive.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.busy = false
	s.sourceText = ""
	s.bank = nil
	s.current = 0
	s.answers = map[string]quiz.Answer{}
	s.setPhaseLocked(PhaseUpload)
}

// OpenHistory shows the stored banks. Reachable from upload and results.
func (s *Session) OpenHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseUpload && s.phase != PhaseResults {
		return fmt.Errorf("%w: history requires %s or %s, got %s", ErrInvalidPhase, PhaseUpload, PhaseResults, s.phase)
	}
	s.setPhaseLocked(PhaseHistory)
	return nil
}

// SelectBank loads a stored bank and its config into the active view with
// cleared answers, entering non-review results.
func (s *Session) SelectBank(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseHistory {
		return fmt.Errorf("%w: selecting a bank requires %s, got %s", ErrInvalidPhase, PhaseHistory, s.phase)
	}
	bank, ok := s.history.Get(id)
	if !ok {
		return ErrBankNotFound
	}
	s.bank = &bank
	s.config = bank.Config
	s.answers = map[string]quiz.Answer{}
	s.current = 0
	s.setPhaseLocked(PhaseResults)
	return nil
}

// History exposes the injected history service for read-only transports.
func (s *Session) History() *history.Service {
	return s.history
}
