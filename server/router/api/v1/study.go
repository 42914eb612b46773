package v1

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studysense/studysense/server/ai"
	"github.com/studysense/studysense/server/export"
	"github.com/studysense/studysense/server/pipeline"
)

const (
	chatContextTopK = 4
	mcqContextTopK  = 8
)

func (s *APIV1Service) handleSummarize(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}
	if len(strings.TrimSpace(req.Transcript)) < 10 {
		return echo.NewHTTPError(http.StatusBadRequest, "Transcript must be at least 10 characters.")
	}

	cleaned := pipeline.CleanTranscript(req.Transcript)
	summary, err := s.Orchestrator.Summarize(c.Request().Context(), cleaned)
	if err != nil {
		s.logger.Error("summarization failed", "error", err)
		return mapServiceError(err)
	}

	sessionID := s.Sessions.Ensure(req.SessionID)
	s.Sessions.SetTranscript(sessionID, cleaned)
	s.Sessions.SetSummary(sessionID, summary)
	s.Sessions.SetRetrievalChunks(sessionID, pipeline.RetrievalChunks(cleaned))

	return c.JSON(http.StatusOK, summarizeResponse{SessionID: sessionID, Summary: summary})
}

// resolveSummary prefers the summary embedded in the request over the
// session's cached one.
func (s *APIV1Service) resolveSummary(sessionID string, embedded *pipeline.StructuredSummary) (pipeline.StructuredSummary, bool) {
	if embedded != nil && !embedded.IsEmpty() {
		return *embedded, true
	}
	return s.Sessions.Summary(sessionID)
}

// resolveRetrievalChunks returns the session's chunk set, rebuilding it
// from the stored transcript after an eviction.
func (s *APIV1Service) resolveRetrievalChunks(sessionID string) []string {
	chunks := s.Sessions.RetrievalChunks(sessionID)
	if len(chunks) > 0 {
		return chunks
	}
	sess, ok := s.Sessions.Get(sessionID)
	if !ok || sess.Transcript == "" {
		return nil
	}
	chunks = pipeline.RetrievalChunks(sess.Transcript)
	if len(chunks) > 0 {
		s.Sessions.SetRetrievalChunks(sessionID, chunks)
	}
	return chunks
}

func (s *APIV1Service) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must not be empty.")
	}

	sessionID := s.Sessions.Ensure(req.SessionID)
	summary, ok := s.resolveSummary(sessionID, req.Summary)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest,
			"No active summary found. Generate summary first or include summary in request.")
	}

	retrievalChunks := s.resolveRetrievalChunks(sessionID)
	contextChunks := pipeline.SelectTopChunks(req.Message, retrievalChunks, chatContextTopK)

	answer, err := s.Orchestrator.Chat(c.Request().Context(), req.Message, summary, req.History, contextChunks)
	if err != nil {
		s.logger.Error("chat generation failed", "error", err)
		return mapServiceError(err)
	}

	s.Sessions.SetSummary(sessionID, summary)
	s.Sessions.AppendChat(sessionID, "user", req.Message)
	s.Sessions.AppendChat(sessionID, "assistant", answer)

	return c.JSON(http.StatusOK, chatResponse{SessionID: sessionID, Answer: answer})
}

func (s *APIV1Service) handleMCQ(c echo.Context) error {
	var req mcqRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}

	sessionID := s.Sessions.Ensure(req.SessionID)
	summary, ok := s.resolveSummary(sessionID, req.Summary)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest,
			"No active summary found. Generate summary first or include summary in request.")
	}

	retrievalChunks := s.resolveRetrievalChunks(sessionID)
	contextChunks := pipeline.SelectTopChunks(pipeline.BuildSummaryQuery(summary), retrievalChunks, mcqContextTopK)

	mcqs, err := s.Orchestrator.GenerateMCQs(c.Request().Context(), summary, contextChunks)
	if err != nil {
		s.logger.Error("mcq generation failed", "error", err)
		return mapServiceError(err)
	}

	s.Sessions.SetSummary(sessionID, summary)
	s.Sessions.SetMCQs(sessionID, mcqs)

	return c.JSON(http.StatusOK, mcqResponse{SessionID: sessionID, MCQs: mcqs})
}

var imageDataURLRe = regexp.MustCompile(`(?s)^data:(image/[a-zA-Z0-9.+-]+);base64,(.+)$`)

// decodeImageDataURL validates and decodes a base64 image data URL.
func decodeImageDataURL(dataURL string) ([]byte, string, error) {
	match := imageDataURLRe.FindStringSubmatch(strings.TrimSpace(dataURL))
	if match == nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "Invalid image format. Expected base64 data URL.")
	}
	mimeType := strings.ToLower(strings.TrimSpace(match[1]))
	payload := strings.TrimSpace(match[2])

	imageBytes, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "Could not decode image payload.")
	}
	if len(imageBytes) > ai.MaxImageBytes {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "Image is too large. Maximum allowed size is 8 MB.")
	}
	return imageBytes, mimeType, nil
}

func (s *APIV1Service) handleSolverChat(c echo.Context) error {
	var req solverChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}
	if strings.TrimSpace(req.Message) == "" && req.ImageDataURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must not be empty.")
	}

	solveReq := ai.SolveRequest{Message: req.Message, History: req.History}
	if req.ImageDataURL != "" {
		imageBytes, mimeType, err := decodeImageDataURL(req.ImageDataURL)
		if err != nil {
			return err
		}
		imageBytes, mimeType, err = ai.PrepareImage(imageBytes, mimeType)
		if err != nil {
			return mapServiceError(err)
		}
		solveReq.ImageBytes = imageBytes
		solveReq.ImageMIMEType = mimeType
	}

	answer, err := s.Orchestrator.SolveOrChat(c.Request().Context(), solveReq)
	if err != nil {
		s.logger.Error("solver chat failed", "error", err)
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, solverChatResponse{Answer: answer})
}

func (s *APIV1Service) handleExport(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required.")
	}

	sess, ok := s.Sessions.Get(sessionID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found or expired.")
	}
	if sess.Summary == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No summary available for this session.")
	}

	document, err := export.BuildHTML(*sess.Summary, sess.MCQs, time.Now())
	if err != nil {
		s.logger.Error("export rendering failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to render document.")
	}

	shortID := sessionID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=studysense-%s.html", shortID))
	return c.HTML(http.StatusOK, document)
}
