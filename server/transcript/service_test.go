package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch url with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"bare id via regex", "v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"garbage", "https://example.com/not-a-video", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "Linear Algebra Lecture 3", normalizeTitle("Linear Algebra Lecture 3 - YouTube"))
	assert.Equal(t, "", normalizeTitle("YouTube"))
	assert.Equal(t, "", normalizeTitle("  watch "))
	assert.Equal(t, "Signals & Systems", normalizeTitle("Signals &amp; Systems"))
}

func TestExtractJSONAfterMarker(t *testing.T) {
	page := `<script>var ytInitialPlayerResponse = {"a": {"b": "braces } in { strings"}, "c": 1};</script>`
	payload := extractJSONAfterMarker(page, "ytInitialPlayerResponse = ")
	assert.Equal(t, `{"a": {"b": "braces } in { strings"}, "c": 1}`, payload)

	assert.Empty(t, extractJSONAfterMarker(page, "missingMarker = "))
	assert.Empty(t, extractJSONAfterMarker("ytInitialPlayerResponse = [1,2]", "ytInitialPlayerResponse = {"))
}

func TestParseCaptionsVTT(t *testing.T) {
	payload := strings.Join([]string{
		"WEBVTT",
		"Kind: captions",
		"Language: en",
		"",
		"1",
		"00:00:01.000 --> 00:00:04.000",
		"Welcome to the lecture on thermodynamics.",
		"",
		"2",
		"00:00:04.000 --> 00:00:08.000",
		"Today we discuss entropy and enthalpy.",
	}, "\n")

	got := parseCaptions(payload)
	assert.Equal(t, "Welcome to the lecture on thermodynamics. Today we discuss entropy and enthalpy.", got)
}

func TestParseCaptionsXML(t *testing.T) {
	payload := `<transcript><text start="0" dur="4">First &amp; second point.</text>` +
		`<text start="4" dur="4">Third point here.</text></transcript>`
	got := parseCaptions(payload)
	assert.Equal(t, "First & second point. Third point here.", got)

	assert.Empty(t, parseCaptions("<transcript></transcript>"))
}

func TestSelectCaptionTrack(t *testing.T) {
	tracks := []map[string]any{
		{"languageCode": "de", "baseUrl": "http://example/de"},
		{"languageCode": "en-US", "baseUrl": "http://example/en"},
		{"languageCode": "fr", "baseUrl": "http://example/fr"},
	}

	assert.Equal(t, "http://example/fr", selectCaptionTrack(tracks, "fr")["baseUrl"])
	assert.Equal(t, "http://example/en", selectCaptionTrack(tracks, "")["baseUrl"])
	assert.Equal(t, "http://example/de", selectCaptionTrack(tracks[:1], "")["baseUrl"])
	assert.Nil(t, selectCaptionTrack(nil, "en"))
}

func TestBuildTitleFallbackText(t *testing.T) {
	text := buildTitleFallbackText(Metadata{
		Title:        "Graph Theory Basics",
		ChannelTitle: "MathDept",
		Description:  "An introduction to vertices and edges.",
	})
	assert.Contains(t, text, "Lecture topic title: Graph Theory Basics.")
	assert.Contains(t, text, "Transcript could not be extracted")
	assert.Contains(t, text, "Channel: MathDept.")
	assert.Contains(t, text, "vertices and edges")
}

// newStubService points a Service at a local test server.
func newStubService(server *httptest.Server) *Service {
	svc := NewService()
	svc.client = server.Client()
	svc.watchBase = server.URL
	svc.oembedURL = server.URL + "/oembed"
	return svc
}

func TestExtractWithCaptions(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	captionsURL := server.URL + "/captions"
	player := fmt.Sprintf(`{"videoDetails":{"title":"Fourier Series Explained","author":"Signals Channel",`+
		`"thumbnail":{"thumbnails":[{"url":"http://thumb/small"},{"url":"http://thumb/large"}]}},`+
		`"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"languageCode":"en","baseUrl":"%s"}]}}}`,
		captionsURL)

	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"Fourier Series Explained","author_name":"Signals Channel","thumbnail_url":""}`)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><script>var ytInitialPlayerResponse = %s;</script></html>`, player)
	})
	mux.HandleFunc("/captions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "WEBVTT\n\n00:00:01.000 --> 00:00:04.000\nA periodic signal decomposes into sinusoids.")
	})

	svc := newStubService(server)
	result, err := svc.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "")
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", result.VideoID)
	assert.Equal(t, "A periodic signal decomposes into sinusoids.", result.Transcript)
	assert.Equal(t, "Fourier Series Explained", result.Title)
	assert.Equal(t, "Signals Channel", result.ChannelTitle)
	assert.False(t, result.UsedTitleFallback)
}

func TestExtractFallsBackToTitle(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"Intro to Databases","author_name":"CS Channel"}`)
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		// No player response and no captions on the page.
		fmt.Fprint(w, `<html><title>Intro to Databases - YouTube</title></html>`)
	})

	svc := newStubService(server)
	result, err := svc.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "")
	require.NoError(t, err)

	assert.True(t, result.UsedTitleFallback)
	assert.Contains(t, result.Transcript, "Lecture topic title: Intro to Databases.")
	assert.Equal(t, "Intro to Databases", result.Title)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", result.ThumbnailURL)
}

func TestVideoMetaInvalidURL(t *testing.T) {
	svc := NewService()
	_, err := svc.VideoMeta(context.Background(), "https://example.com/nothing")
	assert.ErrorIs(t, err, ErrInvalidURL)
}
