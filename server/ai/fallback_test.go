package ai

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysense/studysense/server/pipeline"
)

func TestRunReturnsFirstSuccess(t *testing.T) {
	calls := 0
	result, err := Run(nil, "test",
		func() (string, error) { calls++; return "primary", nil },
		func() (string, error) { calls++; return "secondary", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "primary", result)
	assert.Equal(t, 1, calls)
}

func TestRunFallsThroughOnRecoverableError(t *testing.T) {
	tierCalls := []int{0, 0, 0}
	result, err := Run(nil, "test",
		func() (string, error) {
			tierCalls[0]++
			return "", &RecoverableError{Provider: "cloud", Err: errors.New("quota exceeded")}
		},
		func() (string, error) {
			tierCalls[1]++
			return "", errors.New("connection refused")
		},
		func() (string, error) {
			tierCalls[2]++
			return "offline answer", nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "offline answer", result)
	assert.Equal(t, []int{1, 1, 1}, tierCalls)
}

func TestRunPropagatesClientInputErrorImmediately(t *testing.T) {
	laterTierCalled := false
	_, err := Run(nil, "test",
		func() (string, error) { return "", NewClientInputError("image too large") },
		func() (string, error) { laterTierCalled = true; return "should not run", nil },
	)
	require.Error(t, err)
	assert.True(t, IsClientInputError(err))
	assert.False(t, laterTierCalled)
}

func TestRunAllTiersFail(t *testing.T) {
	_, err := Run(nil, "summarize",
		func() (string, error) { return "", errors.New("first down") },
		func() (string, error) { return "", errors.New("second down") },
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all generation tiers failed")
	assert.Contains(t, err.Error(), "second down")
}

func TestRunSkipsNilCalls(t *testing.T) {
	result, err := Run(nil, "test",
		nil,
		func() (int, error) { return 42, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

// stubProvider records which capability ran and returns canned values.
type stubProvider struct {
	name      string
	err       error
	summarize int
	chat      int
	mcq       int
	solve     int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Summarize(context.Context, string) (pipeline.StructuredSummary, error) {
	p.summarize++
	if p.err != nil {
		return pipeline.StructuredSummary{}, p.err
	}
	return pipeline.StructuredSummary{OverviewParagraphs: []string{p.name}}, nil
}

func (p *stubProvider) Chat(context.Context, string, pipeline.StructuredSummary, []pipeline.ChatMessage, []string) (string, error) {
	p.chat++
	if p.err != nil {
		return "", p.err
	}
	return p.name + " answer", nil
}

func (p *stubProvider) GenerateMCQs(context.Context, pipeline.StructuredSummary, []string) ([]pipeline.MCQItem, error) {
	p.mcq++
	if p.err != nil {
		return nil, p.err
	}
	return make([]pipeline.MCQItem, 5), nil
}

func (p *stubProvider) SolveOrChat(context.Context, SolveRequest) (string, error) {
	p.solve++
	if p.err != nil {
		return "", p.err
	}
	return p.name + " solved", nil
}

func TestOrchestratorWalksTiersInOrder(t *testing.T) {
	primary := &stubProvider{name: "cloud", err: errors.New("cloud down")}
	secondary := &stubProvider{name: "local", err: errors.New("local down")}
	tertiary := &stubProvider{name: "offline"}
	orch := NewOrchestrator(primary, secondary, tertiary, nil)

	summary, err := orch.Summarize(context.Background(), "lecture text")
	require.NoError(t, err)
	assert.Equal(t, []string{"offline"}, summary.OverviewParagraphs)
	assert.Equal(t, 1, primary.summarize)
	assert.Equal(t, 1, secondary.summarize)
	assert.Equal(t, 1, tertiary.summarize)
}

func TestOrchestratorNilTiersSkipped(t *testing.T) {
	tertiary := &stubProvider{name: "offline"}
	orch := NewOrchestrator(nil, nil, tertiary, nil)

	answer, err := orch.SolveOrChat(context.Background(), SolveRequest{Message: "2+2"})
	require.NoError(t, err)
	assert.Equal(t, "offline solved", answer)
	assert.Equal(t, 1, tertiary.solve)
}

func TestOrchestratorPrimarySuccessStopsChain(t *testing.T) {
	primary := &stubProvider{name: "cloud"}
	tertiary := &stubProvider{name: "offline"}
	orch := NewOrchestrator(primary, nil, tertiary, nil)

	answer, err := orch.Chat(context.Background(), "question", pipeline.StructuredSummary{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "cloud answer", answer)
	assert.Zero(t, tertiary.chat)
}

func TestTrimHistory(t *testing.T) {
	var history []pipeline.ChatMessage
	for i := 0; i < 25; i++ {
		history = append(history, pipeline.ChatMessage{Role: "user", Content: "m"})
	}
	trimmed := TrimHistory(history)
	assert.Len(t, trimmed, HistoryWindow)

	short := history[:3]
	assert.Len(t, TrimHistory(short), 3)
	assert.Nil(t, TrimHistory(nil))
}
