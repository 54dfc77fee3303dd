package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/cognate/models"
)

func TestRound_FinalizeMergesByProviderID(t *testing.T) {
	round := newRound("hi", []string{"openai", "google"}, nil)

	round.finalize("google", models.SuccessOutcome("g", 12, models.TokenUsage{}))
	round.finalize("openai", models.ErrorOutcome("nope"))

	results := round.Snapshot()
	require.Len(t, results, 2)
	assert.Equal(t, "openai", results[0].ProviderID)
	assert.Equal(t, models.ResultStatusError, results[0].Status)
	assert.Equal(t, "google", results[1].ProviderID)
	assert.Equal(t, "g", results[1].Content)

	select {
	case <-round.Done():
	default:
		t.Fatal("round should be done")
	}
}

func TestRound_FinalizeOnlyOnce(t *testing.T) {
	round := newRound("hi", []string{"openai", "google"}, nil)

	round.finalize("openai", models.SuccessOutcome("first", 1, models.TokenUsage{}))
	round.finalize("openai", models.ErrorOutcome("second"))
	round.finalize("unknown", models.ErrorOutcome("ignored"))

	res, ok := round.Result("openai")
	require.True(t, ok)
	assert.Equal(t, "first", res.Content)
	assert.Equal(t, 1, round.Pending())
}

func TestRound_UpdatesDeliverEachResultThenClose(t *testing.T) {
	ids := []string{"openai", "anthropic", "google", "deepseek"}
	round := newRound("hi", ids, nil)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			round.finalize(id, models.SuccessOutcome(id, 1, models.TokenUsage{}))
		}(id)
	}
	wg.Wait()

	got := map[string]bool{}
	for update := range round.Updates() {
		got[update.ProviderID] = true
	}
	assert.Len(t, got, len(ids))
}

func TestRound_WaitHonoursContext(t *testing.T) {
	round := newRound("hi", []string{"openai"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	results, err := round.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, results, 1)
	assert.Equal(t, models.ResultStatusPending, results[0].Status)
}
