package v1

import (
	"github.com/studysense/studysense/server/auth"
	"github.com/studysense/studysense/server/pipeline"
)

type summarizeRequest struct {
	Transcript string `json:"transcript"`
	SessionID  string `json:"session_id"`
}

type summarizeResponse struct {
	SessionID string                     `json:"session_id"`
	Summary   pipeline.StructuredSummary `json:"summary"`
}

type chatRequest struct {
	Message   string                      `json:"message"`
	SessionID string                      `json:"session_id"`
	Summary   *pipeline.StructuredSummary `json:"summary"`
	History   []pipeline.ChatMessage      `json:"history"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type solverChatRequest struct {
	Message      string                 `json:"message"`
	History      []pipeline.ChatMessage `json:"history"`
	ImageDataURL string                 `json:"image_data_url"`
}

type solverChatResponse struct {
	Answer string `json:"answer"`
}

type mcqRequest struct {
	SessionID string                      `json:"session_id"`
	Summary   *pipeline.StructuredSummary `json:"summary"`
}

type mcqResponse struct {
	SessionID string            `json:"session_id"`
	MCQs      []pipeline.MCQItem `json:"mcqs"`
}

type extractCaptionsRequest struct {
	YouTubeURL string `json:"youtube_url"`
	Language   string `json:"language"`
}

type extractCaptionsResponse struct {
	VideoID           string `json:"video_id"`
	Transcript        string `json:"transcript"`
	Title             string `json:"title"`
	ThumbnailURL      string `json:"thumbnail_url"`
	ChannelTitle      string `json:"channel_title"`
	UsedTitleFallback bool   `json:"used_title_fallback"`
}

type videoMetaResponse struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	ChannelTitle string `json:"channel_title"`
}

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	User        auth.User `json:"user"`
}
