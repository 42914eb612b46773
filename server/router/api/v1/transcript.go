package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (s *APIV1Service) handleExtractCaptions(c echo.Context) error {
	var req extractCaptionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}
	if len(strings.TrimSpace(req.YouTubeURL)) < 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "youtube_url is required.")
	}

	result, err := s.Transcripts.Extract(c.Request().Context(), req.YouTubeURL, req.Language)
	if err != nil {
		s.logger.Error("caption extraction failed", "url", req.YouTubeURL, "error", err)
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, extractCaptionsResponse{
		VideoID:           result.VideoID,
		Transcript:        result.Transcript,
		Title:             result.Title,
		ThumbnailURL:      result.ThumbnailURL,
		ChannelTitle:      result.ChannelTitle,
		UsedTitleFallback: result.UsedTitleFallback,
	})
}

func (s *APIV1Service) handleVideoMeta(c echo.Context) error {
	var req extractCaptionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
	}
	if len(strings.TrimSpace(req.YouTubeURL)) < 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "youtube_url is required.")
	}

	meta, err := s.Transcripts.VideoMeta(c.Request().Context(), req.YouTubeURL)
	if err != nil {
		s.logger.Error("video metadata lookup failed", "url", req.YouTubeURL, "error", err)
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, videoMetaResponse{
		VideoID:      meta.VideoID,
		Title:        meta.Title,
		ThumbnailURL: meta.ThumbnailURL,
		ChannelTitle: meta.ChannelTitle,
	})
}
