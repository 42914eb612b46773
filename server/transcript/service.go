// Package transcript acquires lecture transcripts and metadata for
// YouTube videos. Captions come from the watch page's player response;
// when no captions exist the service degrades to a title-based stand-in
// transcript so summarization always has input.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidURL marks a URL that carries no extractable video ID. It is a
// caller mistake, not an upstream failure.
var ErrInvalidURL = errors.New("invalid YouTube URL, could not extract video ID")

// Metadata describes one video.
type Metadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	ChannelTitle string `json:"channel_title"`
	Description  string `json:"description,omitempty"`
}

// Result is one completed transcript extraction. UsedTitleFallback is set
// when no caption track could be fetched and the transcript is synthesized
// from metadata.
type Result struct {
	VideoID           string
	Transcript        string
	Title             string
	ThumbnailURL      string
	ChannelTitle      string
	UsedTitleFallback bool
}

// Service fetches transcripts and metadata. The base URLs are fields so
// tests can point the service at a local server.
type Service struct {
	client    *http.Client
	watchBase string
	oembedURL string
}

// NewService returns a service with a 20-second request timeout.
func NewService() *Service {
	return &Service{
		client:    &http.Client{Timeout: 20 * time.Second},
		watchBase: "https://www.youtube.com",
		oembedURL: "https://www.youtube.com/oembed",
	}
}

var videoIDFallbackRe = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:[?&]|$)`)

// ExtractVideoID pulls the 11-character video ID out of watch, shorts,
// embed, and youtu.be URL shapes, with a regex sweep as last resort.
func ExtractVideoID(youtubeURL string) (string, error) {
	parsed, err := url.Parse(youtubeURL)
	if err == nil {
		host := strings.ToLower(parsed.Hostname())

		if host == "youtu.be" || host == "www.youtu.be" {
			if id := strings.Trim(parsed.Path, "/"); id != "" {
				return id, nil
			}
		}
		if strings.Contains(host, "youtube.com") {
			if parsed.Path == "/watch" {
				if id := parsed.Query().Get("v"); id != "" {
					return id, nil
				}
			}
			if strings.HasPrefix(parsed.Path, "/shorts/") || strings.HasPrefix(parsed.Path, "/embed/") {
				parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
				if len(parts) > 1 {
					return parts[1], nil
				}
			}
		}
	}

	if match := videoIDFallbackRe.FindStringSubmatch(youtubeURL); match != nil {
		return match[1], nil
	}
	return "", ErrInvalidURL
}

var (
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	spaceRe      = regexp.MustCompile(`\s+`)
	titleTagRe   = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	xmlTextRe    = regexp.MustCompile(`(?s)<text[^>]*>(.*?)</text>`)
	digitsOnlyRe = regexp.MustCompile(`^\d+$`)
)

func cleanText(text string) string {
	text = html.UnescapeString(text)
	text = tagRe.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// normalizeTitle drops YouTube chrome and placeholder titles.
func normalizeTitle(title string) string {
	cleaned := strings.Trim(strings.ReplaceAll(cleanText(title), " - YouTube", ""), " -")
	switch strings.ToLower(cleaned) {
	case "", "youtube", "home", "watch", "video":
		return ""
	}
	return cleaned
}

func defaultThumbnail(videoID string) string {
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID)
}

func (s *Service) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "request to %s failed", rawURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("request to %s returned status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}
	return string(body), nil
}

// playerResponseMarkers precede the embedded player JSON on a watch page.
var playerResponseMarkers = []string{
	"ytInitialPlayerResponse = ",
	"var ytInitialPlayerResponse = ",
	"window['ytInitialPlayerResponse'] = ",
}

// extractJSONAfterMarker scans for the first balanced JSON object after
// marker, tracking string literals so braces inside them do not count.
func extractJSONAfterMarker(content, marker string) string {
	markerIndex := strings.Index(content, marker)
	if markerIndex == -1 {
		return ""
	}
	start := strings.Index(content[markerIndex:], "{")
	if start == -1 {
		return ""
	}
	start += markerIndex

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

func extractPlayerResponse(htmlContent string) map[string]any {
	for _, marker := range playerResponseMarkers {
		payload := extractJSONAfterMarker(htmlContent, marker)
		if payload == "" {
			continue
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(payload), &decoded); err == nil {
			return decoded
		}
	}
	return nil
}

func extractMetaTag(htmlContent, property string) string {
	pattern := regexp.MustCompile(
		`(?i)<meta[^>]+property=["']` + regexp.QuoteMeta(property) + `["'][^>]+content=["']([^"']+)["']`)
	if match := pattern.FindStringSubmatch(htmlContent); match != nil {
		return cleanText(match[1])
	}
	return ""
}

func extractTitleFromHTML(htmlContent string) string {
	if title := extractMetaTag(htmlContent, "og:title"); title != "" {
		return normalizeTitle(title)
	}
	if match := titleTagRe.FindStringSubmatch(htmlContent); match != nil {
		return normalizeTitle(match[1])
	}
	return ""
}

func dig(data map[string]any, keys ...string) any {
	var current any = data
	for _, key := range keys {
		object, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = object[key]
	}
	return current
}

func asString(value any) string {
	text, _ := value.(string)
	return text
}

func metadataFromPlayerResponse(videoID string, playerResponse map[string]any) Metadata {
	meta := Metadata{VideoID: videoID, ThumbnailURL: defaultThumbnail(videoID)}
	if playerResponse == nil {
		return meta
	}

	meta.Title = normalizeTitle(asString(dig(playerResponse, "videoDetails", "title")))
	meta.ChannelTitle = cleanText(asString(dig(playerResponse, "videoDetails", "author")))
	meta.Description = cleanText(asString(dig(playerResponse, "videoDetails", "shortDescription")))

	if thumbnails, ok := dig(playerResponse, "videoDetails", "thumbnail", "thumbnails").([]any); ok && len(thumbnails) > 0 {
		if last, ok := thumbnails[len(thumbnails)-1].(map[string]any); ok {
			if thumbURL := asString(last["url"]); thumbURL != "" {
				meta.ThumbnailURL = thumbURL
			}
		}
	}
	return meta
}

// mergeMetadata fills base's empty fields from extra.
func mergeMetadata(base, extra Metadata) Metadata {
	if base.Title == "" || strings.HasPrefix(base.Title, "YouTube Lecture") {
		if extra.Title != "" {
			base.Title = extra.Title
		}
	}
	if base.ChannelTitle == "" {
		base.ChannelTitle = extra.ChannelTitle
	}
	if base.Description == "" {
		base.Description = extra.Description
	}
	if base.ThumbnailURL == "" {
		base.ThumbnailURL = extra.ThumbnailURL
	}
	if base.ThumbnailURL == "" && base.VideoID != "" {
		base.ThumbnailURL = defaultThumbnail(base.VideoID)
	}
	return base
}

// fetchVideoMeta combines the oEmbed fast path with the watch page's
// richer fields. Failures leave defaults in place rather than erroring.
func (s *Service) fetchVideoMeta(ctx context.Context, videoID string) Metadata {
	watchURL := s.watchBase + "/watch?v=" + videoID
	meta := Metadata{
		VideoID:      videoID,
		Title:        fmt.Sprintf("YouTube Lecture (%s)", videoID),
		ThumbnailURL: defaultThumbnail(videoID),
	}

	if body, err := s.get(ctx, s.oembedURL+"?format=json&url="+url.QueryEscape(watchURL)); err == nil {
		var oembed struct {
			Title        string `json:"title"`
			AuthorName   string `json:"author_name"`
			ThumbnailURL string `json:"thumbnail_url"`
		}
		if json.Unmarshal([]byte(body), &oembed) == nil {
			if title := normalizeTitle(oembed.Title); title != "" {
				meta.Title = title
			}
			if thumb := strings.TrimSpace(oembed.ThumbnailURL); thumb != "" {
				meta.ThumbnailURL = thumb
			}
			meta.ChannelTitle = cleanText(oembed.AuthorName)
		}
	}

	htmlContent, err := s.get(ctx, watchURL)
	if err != nil {
		return meta
	}

	meta = mergeMetadata(meta, metadataFromPlayerResponse(videoID, extractPlayerResponse(htmlContent)))

	if title := extractTitleFromHTML(htmlContent); title != "" && strings.HasPrefix(meta.Title, "YouTube Lecture") {
		meta.Title = title
	}
	if thumb := extractMetaTag(htmlContent, "og:image"); thumb != "" && meta.ThumbnailURL == "" {
		meta.ThumbnailURL = thumb
	}
	if desc := extractMetaTag(htmlContent, "og:description"); desc != "" && meta.Description == "" {
		meta.Description = desc
	}
	return meta
}

// selectCaptionTrack prefers the requested language, then English, then
// the first available track.
func selectCaptionTrack(tracks []map[string]any, language string) map[string]any {
	if len(tracks) == 0 {
		return nil
	}
	if language != "" {
		wanted := strings.ToLower(language)
		for _, track := range tracks {
			if strings.HasPrefix(strings.ToLower(asString(track["languageCode"])), wanted) {
				return track
			}
		}
	}
	for _, track := range tracks {
		if strings.HasPrefix(strings.ToLower(asString(track["languageCode"])), "en") {
			return track
		}
	}
	return tracks[0]
}

// parseCaptions handles both WEBVTT payloads and the timedtext XML format.
func parseCaptions(payload string) string {
	if strings.Contains(payload, "WEBVTT") {
		var lines []string
		for _, rawLine := range strings.Split(payload, "\n") {
			line := strings.TrimSpace(rawLine)
			if line == "" ||
				strings.HasPrefix(line, "WEBVTT") ||
				strings.HasPrefix(line, "Kind:") ||
				strings.HasPrefix(line, "Language:") ||
				strings.Contains(line, "-->") ||
				digitsOnlyRe.MatchString(line) {
				continue
			}
			lines = append(lines, line)
		}
		return cleanText(strings.Join(lines, " "))
	}

	matches := xmlTextRe.FindAllStringSubmatch(payload, -1)
	if len(matches) == 0 {
		return ""
	}
	var chunks []string
	for _, match := range matches {
		chunks = append(chunks, match[1])
	}
	return cleanText(strings.Join(chunks, " "))
}

// extractFromWatchPage pulls captions via the player response's caption
// track list, trying VTT first and raw XML second.
func (s *Service) extractFromWatchPage(ctx context.Context, videoID, language string) (string, Metadata, error) {
	htmlContent, err := s.get(ctx, s.watchBase+"/watch?v="+videoID)
	if err != nil {
		return "", Metadata{VideoID: videoID, ThumbnailURL: defaultThumbnail(videoID)}, err
	}

	playerResponse := extractPlayerResponse(htmlContent)
	meta := metadataFromPlayerResponse(videoID, playerResponse)
	if playerResponse == nil {
		return "", meta, nil
	}

	rawTracks, _ := dig(playerResponse, "captions", "playerCaptionsTracklistRenderer", "captionTracks").([]any)
	tracks := make([]map[string]any, 0, len(rawTracks))
	for _, raw := range rawTracks {
		if track, ok := raw.(map[string]any); ok {
			tracks = append(tracks, track)
		}
	}

	selected := selectCaptionTrack(tracks, language)
	if selected == nil {
		return "", meta, nil
	}
	baseURL := asString(selected["baseUrl"])
	if baseURL == "" {
		return "", meta, nil
	}

	if payload, err := s.get(ctx, baseURL+"&fmt=vtt"); err == nil {
		if transcript := parseCaptions(payload); transcript != "" {
			return transcript, meta, nil
		}
	}
	payload, err := s.get(ctx, baseURL)
	if err != nil {
		return "", meta, err
	}
	return parseCaptions(payload), meta, nil
}

// buildTitleFallbackText synthesizes a transcript stand-in from metadata
// so downstream summarization still produces study notes.
func buildTitleFallbackText(meta Metadata) string {
	title := meta.Title
	if title == "" {
		title = "Untitled lecture"
	}
	lines := []string{
		fmt.Sprintf("Lecture topic title: %s.", title),
		"Transcript could not be extracted from this video.",
		"Generate structured academic notes based on the title and probable lecture scope.",
		"Include key definitions, core concepts, important examples, and exam revision points.",
	}
	if meta.ChannelTitle != "" {
		lines = append(lines, fmt.Sprintf("Channel: %s.", meta.ChannelTitle))
	}
	if meta.Description != "" {
		description := meta.Description
		if len(description) > 1400 {
			description = description[:1400]
		}
		lines = append(lines, "Video description context: "+description)
	}
	return strings.Join(lines, "\n")
}

// VideoMeta resolves title, thumbnail, and channel for a video URL.
func (s *Service) VideoMeta(ctx context.Context, youtubeURL string) (Metadata, error) {
	videoID, err := ExtractVideoID(youtubeURL)
	if err != nil {
		return Metadata{}, err
	}
	return s.fetchVideoMeta(ctx, videoID), nil
}

// Extract acquires a transcript for the URL, degrading to a title-based
// stand-in when no captions are available. It fails only on an invalid
// URL or when the watch page itself is unreachable after metadata lookup.
func (s *Service) Extract(ctx context.Context, youtubeURL, language string) (Result, error) {
	videoID, err := ExtractVideoID(youtubeURL)
	if err != nil {
		return Result{}, err
	}
	meta := s.fetchVideoMeta(ctx, videoID)

	transcript, pageMeta, err := s.extractFromWatchPage(ctx, videoID, language)
	if err == nil {
		meta = mergeMetadata(meta, pageMeta)
	}

	usedTitleFallback := false
	if transcript == "" {
		usedTitleFallback = true
		transcript = buildTitleFallbackText(meta)
	}
	if len(strings.TrimSpace(transcript)) < 10 {
		transcript = strings.TrimSpace(transcript) +
			"\nThis lecture likely introduces foundational concepts and revision-oriented ideas."
	}

	title := meta.Title
	if title == "" {
		title = fmt.Sprintf("YouTube Lecture (%s)", videoID)
	}
	thumbnail := meta.ThumbnailURL
	if thumbnail == "" {
		thumbnail = defaultThumbnail(videoID)
	}

	return Result{
		VideoID:           videoID,
		Transcript:        transcript,
		Title:             title,
		ThumbnailURL:      thumbnail,
		ChannelTitle:      meta.ChannelTitle,
		UsedTitleFallback: usedTitleFallback,
	}, nil
}
