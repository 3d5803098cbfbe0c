package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"escala_notifier/internal/domain/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gateItems() []*reminder.AssignmentItem {
	return []*reminder.AssignmentItem{
		{SlotID: "S1", PersonID: "P1", SlotDate: day(2024, 6, 10)},
		{SlotID: "S1", PersonID: "P2", SlotDate: day(2024, 6, 10)},
		{SlotID: "S2", PersonID: "P1", SlotDate: day(2024, 6, 10)},
	}
}

func TestIdempotencyGate_Filter(t *testing.T) {
	now := time.Date(2024, 6, 7, 8, 0, 0, 0, testLoc)

	tests := []struct {
		name         string
		existing     []*reminder.LogEntry
		wantEligible []string
	}{
		{
			name:         "empty log",
			wantEligible: []string{"S1/P1", "S1/P2", "S2/P1"},
		},
		{
			name: "sent blocks regardless of age",
			existing: []*reminder.LogEntry{
				{SlotID: "S1", PersonID: "P1", Kind: reminder.KindD3, Status: reminder.StatusSent, SentAt: now.Add(-72 * time.Hour)},
			},
			wantEligible: []string{"S1/P2", "S2/P1"},
		},
		{
			name: "failed ten minutes ago is still backing off",
			existing: []*reminder.LogEntry{
				{SlotID: "S1", PersonID: "P2", Kind: reminder.KindD3, Status: reminder.StatusFailed, SentAt: now.Add(-10 * time.Minute)},
			},
			wantEligible: []string{"S1/P1", "S2/P1"},
		},
		{
			name: "failed forty minutes ago is retried",
			existing: []*reminder.LogEntry{
				{SlotID: "S1", PersonID: "P2", Kind: reminder.KindD3, Status: reminder.StatusFailed, SentAt: now.Add(-40 * time.Minute)},
			},
			wantEligible: []string{"S1/P1", "S1/P2", "S2/P1"},
		},
		{
			name: "recent pending claim blocks",
			existing: []*reminder.LogEntry{
				{SlotID: "S2", PersonID: "P1", Kind: reminder.KindD3, Status: reminder.StatusPending, SentAt: now.Add(-time.Minute)},
			},
			wantEligible: []string{"S1/P1", "S1/P2"},
		},
		{
			name: "other kinds do not interfere",
			existing: []*reminder.LogEntry{
				{SlotID: "S1", PersonID: "P1", Kind: reminder.KindD1, Status: reminder.StatusSent, SentAt: now},
				{SlotID: "S1", PersonID: "P2", Kind: reminder.KindD0, Status: reminder.StatusSent, SentAt: now},
			},
			wantEligible: []string{"S1/P1", "S1/P2", "S2/P1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemLogRepo()
			for _, e := range tt.existing {
				e.SlotDate = day(2024, 6, 10)
				repo.put(e)
			}
			gate := NewIdempotencyGate(repo, reminder.RetryBackoff, func() time.Time { return now })

			items := gateItems()
			res, err := gate.Filter(context.Background(), items, reminder.KindD3)
			require.NoError(t, err)

			var got []string
			for _, it := range res.Eligible {
				got = append(got, it.SlotID+"/"+it.PersonID)
			}
			assert.ElementsMatch(t, tt.wantEligible, got)
			assert.Len(t, res.Blocked, len(items)-len(tt.wantEligible))
		})
	}
}

func TestIdempotencyGate_DuplicateKeyInBatch(t *testing.T) {
	gate := NewIdempotencyGate(newMemLogRepo(), reminder.RetryBackoff, nil)
	items := append(gateItems(), &reminder.AssignmentItem{SlotID: "S1", PersonID: "P1"})

	res, err := gate.Filter(context.Background(), items, reminder.KindD0)
	require.NoError(t, err)
	assert.Len(t, res.Eligible, 3)
	require.Len(t, res.Blocked, 1)
	assert.Same(t, items[3], res.Blocked[0])
}

func TestIdempotencyGate_ReadError(t *testing.T) {
	repo := newMemLogRepo()
	repo.listErr = errors.New("timeout")
	gate := NewIdempotencyGate(repo, reminder.RetryBackoff, nil)

	_, err := gate.Filter(context.Background(), gateItems(), reminder.KindD1)
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.listErr)
}

func TestIdempotencyGate_EmptyBatchSkipsRead(t *testing.T) {
	repo := newMemLogRepo()
	repo.listErr = errors.New("must not be called")
	gate := NewIdempotencyGate(repo, reminder.RetryBackoff, nil)

	res, err := gate.Filter(context.Background(), nil, reminder.KindD1)
	require.NoError(t, err)
	assert.Empty(t, res.Eligible)
}

func TestBlockedKeys_BackoffBoundary(t *testing.T) {
	now := time.Date(2024, 6, 7, 8, 0, 0, 0, time.UTC)
	entries := []*reminder.LogEntry{
		{SlotID: "S1", PersonID: "P1", Kind: reminder.KindD1, Status: reminder.StatusFailed, SentAt: now.Add(-30 * time.Minute)},
		{SlotID: "S1", PersonID: "P2", Kind: reminder.KindD1, Status: reminder.StatusFailed, SentAt: now.Add(-29 * time.Minute)},
	}
	blocked := BlockedKeys(entries, now, 30*time.Minute)
	assert.False(t, blocked[reminder.Key{SlotID: "S1", PersonID: "P1", Kind: reminder.KindD1}])
	assert.True(t, blocked[reminder.Key{SlotID: "S1", PersonID: "P2", Kind: reminder.KindD1}])
}
