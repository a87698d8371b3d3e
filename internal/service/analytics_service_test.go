package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/coursechat/internal/analytics"
	"github.com/alexanderramin/coursechat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_ConversionAndStats(t *testing.T) {
	conn := testutil.NewTestDB(t)
	tracker := analytics.NewTracker(testutil.NewTestUoW(conn), conn, nil)
	obs := &recordingObserver{}
	svc := NewAnalyticsService(tracker, obs)
	ctx := context.Background()

	s1, err := tracker.InitSession(ctx, "cli")
	require.NoError(t, err)
	_, err = tracker.InitSession(ctx, "http")
	require.NoError(t, err)

	require.NoError(t, svc.RecordConversion(ctx, s1, "SMSTS"))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalVisits)
	assert.Equal(t, 1, stats.TotalConversions)
	assert.InDelta(t, 50.0, stats.ConversionRate, 0.001)

	sessions, err := svc.Sessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	require.NoError(t, svc.Clear(ctx))
	sessions, err = svc.Sessions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	assert.Equal(t,
		[]string{"record-conversion", "analytics-stats", "list-sessions", "clear-analytics", "list-sessions"},
		obs.names())
}

func TestAnalyticsService_Disabled(t *testing.T) {
	svc := NewAnalyticsService(nil)
	ctx := context.Background()

	_, err := svc.Sessions(ctx, 10)
	assert.ErrorIs(t, err, ErrAnalyticsDisabled)
	_, err = svc.Stats(ctx)
	assert.ErrorIs(t, err, ErrAnalyticsDisabled)
	assert.ErrorIs(t, svc.Clear(ctx), ErrAnalyticsDisabled)

	assert.NoError(t, svc.RecordConversion(ctx, &analytics.Session{ID: "x"}, "SMSTS"))
}
