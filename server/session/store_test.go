package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysense/studysense/server/pipeline"
)

func TestEnsureCreatesAndReuses(t *testing.T) {
	store := NewStore(0)

	sid := store.Ensure("")
	require.NotEmpty(t, sid)

	again := store.Ensure(sid)
	assert.Equal(t, sid, again)

	other := store.Ensure("")
	assert.NotEqual(t, sid, other)
}

func TestGetMissingSession(t *testing.T) {
	store := NewStore(0)
	_, ok := store.Get("nope")
	assert.False(t, ok)
}

func TestSettersCreateSessionImplicitly(t *testing.T) {
	store := NewStore(0)
	store.SetTranscript("abc", "lecture text")

	sess, ok := store.Get("abc")
	require.True(t, ok)
	assert.Equal(t, "lecture text", sess.Transcript)
	assert.False(t, sess.CreatedAt.IsZero())
}

func TestSummaryRoundTrip(t *testing.T) {
	store := NewStore(0)
	summary := pipeline.StructuredSummary{OverviewParagraphs: []string{"a", "b", "c"}}

	_, ok := store.Summary("sid")
	assert.False(t, ok)

	store.SetSummary("sid", summary)
	got, ok := store.Summary("sid")
	require.True(t, ok)
	assert.Equal(t, summary, got)
}

func TestChatHistoryAppends(t *testing.T) {
	store := NewStore(0)
	store.AppendChat("sid", "user", "question")
	store.AppendChat("sid", "assistant", "answer")

	sess, ok := store.Get("sid")
	require.True(t, ok)
	require.Len(t, sess.ChatHistory, 2)
	assert.Equal(t, "user", sess.ChatHistory[0].Role)
	assert.Equal(t, "answer", sess.ChatHistory[1].Content)
}

func TestGetReturnsCopies(t *testing.T) {
	store := NewStore(0)
	store.SetRetrievalChunks("sid", []string{"chunk one"})

	sess, ok := store.Get("sid")
	require.True(t, ok)
	sess.RetrievalChunks[0] = "mutated"

	assert.Equal(t, []string{"chunk one"}, store.RetrievalChunks("sid"))
}

func TestExpiredSessionIsEvicted(t *testing.T) {
	store := NewStore(10 * time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	sid := store.Ensure("")
	store.SetTranscript(sid, "text")

	current = current.Add(11 * time.Minute)
	_, ok := store.Get(sid)
	assert.False(t, ok)

	// Re-ensuring after expiry yields a fresh session.
	store.Ensure(sid)
	sess, ok := store.Get(sid)
	require.True(t, ok)
	assert.Empty(t, sess.Transcript)
}

func TestActivityRefreshesTTL(t *testing.T) {
	store := NewStore(10 * time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	sid := store.Ensure("")
	for i := 0; i < 3; i++ {
		current = current.Add(8 * time.Minute)
		_, ok := store.Get(sid)
		require.True(t, ok, "access %d", i)
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore(0)
	sid := store.Ensure("")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.AppendChat(sid, "user", fmt.Sprintf("message %d", n))
			store.Get(sid)
			store.SetRetrievalChunks(sid, []string{"chunk"})
		}(i)
	}
	wg.Wait()

	sess, ok := store.Get(sid)
	require.True(t, ok)
	assert.Len(t, sess.ChatHistory, 16)
}
