package inference

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferstack/mlserve/pkg/constants"
)

func TestReloadSchedulerDefaultInterval(t *testing.T) {
	env := newStateEnv(t)
	scheduler := NewReloadScheduler(env.state, 0, nil)
	assert.Equal(t, time.Duration(constants.DefaultReloadInterval)*time.Second, scheduler.interval)
}

func TestReloadSchedulerStartStop(t *testing.T) {
	env := newStateEnv(t)
	scheduler := NewReloadScheduler(env.state, time.Hour, nil)

	assert.False(t, scheduler.Running())

	scheduler.Start(context.Background())
	assert.True(t, scheduler.Running())

	// Starting again is a no-op.
	scheduler.Start(context.Background())
	assert.True(t, scheduler.Running())

	scheduler.Stop()
	assert.False(t, scheduler.Running())

	// Stopping again is safe.
	scheduler.Stop()
}

func TestReloadSchedulerStopWithoutStart(t *testing.T) {
	env := newStateEnv(t)
	scheduler := NewReloadScheduler(env.state, time.Hour, nil)
	scheduler.Stop()
	assert.False(t, scheduler.Running())
}

func TestReloadSchedulerPicksUpPromotion(t *testing.T) {
	env := newStateEnv(t)
	version := "v20250118_120000_abc123"
	promoteServable(t, env, version, binaryArtifact(t))

	scheduler := NewReloadScheduler(env.state, 10*time.Millisecond, nil)
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	require.Eventually(t, func() bool {
		return env.state.ActiveVersion() == version
	}, 2*time.Second, 10*time.Millisecond)
}
