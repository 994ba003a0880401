package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/hamzaa73/EduGenie/internal/config"
	"github.com/hamzaa73/EduGenie/internal/history"
	"github.com/hamzaa73/EduGenie/internal/ingest"
	"github.com/hamzaa73/EduGenie/internal/quiz"
	"github.com/hamzaa73/EduGenie/internal/session"
	"github.com/hamzaa73/EduGenie/pkg/http/ws"
)

type stubGenerator struct {
	raw []byte
	err error
}

func (s *stubGenerator) GenerateQuestions(_ context.Context, _ string, _ quiz.GenerationConfig) ([]byte, error) {
	return s.raw, s.err
}

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(_ context.Context, _ ingest.Artifact, _ quiz.Language) (string, error) {
	return s.text, s.err
}

func mockResponse(mcq, tf int) []byte {
	var parts []string
	for i := 0; i < mcq; i++ {
		parts = append(parts, fmt.Sprintf(
			`{"type":"MCQ","question":"mcq %d","options":["a","b","c","d"],"correctIndex":%d,"explanation":"e"}`,
			i, i%4))
	}
	for i := 0; i < tf; i++ {
		parts = append(parts, fmt.Sprintf(
			`{"type":"TRUE_FALSE","question":"tf %d","correctAnswer":%t,"explanation":"e"}`,
			i, i%2 == 0))
	}
	return []byte("[" + strings.Join(parts, ",") + "]")
}

func newTestServer(t *testing.T, gen session.Generator, ext session.Extractor) *httptest.Server {
	t.Helper()
	logger := zerolog.New(io.Discard)
	hist := history.NewService(context.Background(), history.NewMemoryStore(), logger)
	sess := session.New(hist, gen, ext, session.Options{
		DefaultConfig: quiz.GenerationConfig{
			MultipleChoiceCount: 2,
			TrueFalseCount:      1,
			Difficulty:          quiz.DifficultyMedium,
			Language:            quiz.LanguageEnglish,
		},
	}, logger)
	hub := ws.NewHub(logger)
	cfg := &config.App{HTTPAddr: "127.0.0.1:0"}
	srv := httptest.NewServer(NewHTTPServer(cfg, logger, sess, hist, hub).Handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		assert.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, buf)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	var fields map[string]json.RawMessage
	if len(raw) > 0 && (raw[0] == '{') {
		assert.NoError(t, json.Unmarshal(raw, &fields))
	}
	return resp, fields
}

func phaseOf(t *testing.T, fields map[string]json.RawMessage) string {
	t.Helper()
	var phase string
	assert.NoError(t, json.Unmarshal(fields["phase"], &phase))
	return phase
}

func toPreview(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/v1/session/text",
		map[string]string{"text": "a sufficiently long piece of study material"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/v1/session/preview", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "preview", phaseOf(t, fields))
}

func TestSubmitTextTooShort(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, &stubExtractor{})

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/v1/session/text", map[string]string{"text": "too short"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/v1/session/preview", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `"text_too_short"`, string(fields["error"]))
}

func TestGenerateFlowAndHistory(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{raw: mockResponse(2, 1)}, &stubExtractor{})
	toPreview(t, srv)

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/v1/session/generate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "results", phaseOf(t, fields))

	var bank quiz.QuestionBank
	assert.NoError(t, json.Unmarshal(fields["bank"], &bank))
	assert.Len(t, bank.Questions, 3)

	resp, err := http.Get(srv.URL + "/v1/history")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var summaries []historySummary
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	assert.Len(t, summaries, 1)
	assert.Equal(t, bank.ID, summaries[0].ID)
	assert.Equal(t, 3, summaries[0].QuestionCount)
}

func TestGenerateOutsidePreviewConflicts(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{raw: mockResponse(1, 0)}, &stubExtractor{})

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/v1/session/generate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, `"invalid_phase"`, string(fields["error"]))
}

func TestGenerateUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{err: errors.New("model unavailable")}, &stubExtractor{})
	toPreview(t, srv)

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/v1/session/generate", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, `"generation_failed"`, string(fields["error"]))

	resp, fields = doJSON(t, http.MethodGet, srv.URL+"/v1/session", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "preview", phaseOf(t, fields))
}

func TestAnswerValidation(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{raw: mockResponse(1, 0)}, &stubExtractor{})

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/v1/session/quiz/answer",
		map[string]any{"questionId": "", "answer": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `"missing_field"`, string(fields["error"]))
}

func TestQuizAttemptOverHTTP(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{raw: mockResponse(2, 0)}, &stubExtractor{})
	toPreview(t, srv)

	resp, fields := doJSON(t, http.MethodPost, srv.URL+"/v1/session/generate", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var bank quiz.QuestionBank
	assert.NoError(t, json.Unmarshal(fields["bank"], &bank))

	resp, fields = doJSON(t, http.MethodPost, srv.URL+"/v1/session/quiz/start", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "quiz", phaseOf(t, fields))

	// Next is gated until the current question has an answer.
	resp, fields = doJSON(t, http.MethodPost, srv.URL+"/v1/session/quiz/next", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, `"answer_required"`, string(fields["error"]))

	for i, q := range bank.Questions {
		correct, ok := q.CorrectOption()
		assert.True(t, ok)
		resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/session/quiz/answer",
			map[string]any{"questionId": q.ID, "answer": correct})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		if i < len(bank.Questions)-1 {
			resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/session/quiz/next", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	}

	resp, fields = doJSON(t, http.MethodPost, srv.URL+"/v1/session/quiz/finish", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result quiz.Result
	assert.NoError(t, json.Unmarshal(fields["result"], &result))
	assert.Equal(t, 2, result.Correct)
	assert.Equal(t, 0, result.Incorrect)
}

func TestPutLanguage(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, &stubExtractor{})

	resp, fields := doJSON(t, http.MethodPut, srv.URL+"/v1/session/language", map[string]string{"language": "ar"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"ar"`, string(fields["language"]))

	resp, fields = doJSON(t, http.MethodPut, srv.URL+"/v1/session/language", map[string]string{"language": "fr"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, `"validation_failed"`, string(fields["error"]))
}

func TestUploadExtractionFailure(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, &stubExtractor{err: errors.New("garbled scan")})

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="notes.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(hdr)
	assert.NoError(t, err)
	_, err = part.Write([]byte("%PDF-..."))
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/session/upload", body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var fields map[string]json.RawMessage
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	assert.Equal(t, `"extraction_failed"`, string(fields["error"]))
}
