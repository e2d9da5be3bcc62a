package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3e-network/factor-arena/domain/mining"
)

func TestAddMiningJobRunsOnTick(t *testing.T) {
	s := New(nil)
	ran := make(chan struct{}, 1)

	_, err := s.AddMiningJob("* * * * * *", func(ctx context.Context) ([]mining.MiningResult, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return []mining.MiningResult{{MinerKind: mining.KindGenetic, Success: true}}, nil
	})
	require.NoError(t, err)

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job did not run within 2 seconds")
	}

	_, _, count := s.LastRun()
	assert.GreaterOrEqual(t, count, 1)
}

func TestRemoveCancelsJob(t *testing.T) {
	s := New(nil)
	id, err := s.AddMiningJob("* * * * * *", func(ctx context.Context) ([]mining.MiningResult, error) {
		return nil, nil
	})
	require.NoError(t, err)
	s.Remove(id)
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = s.Stop(ctx)

	_, _, count := s.LastRun()
	assert.Zero(t, count)
}
