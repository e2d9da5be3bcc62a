package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	NoopService
	startErr   error
	started    *[]string
	stopped    *[]string
}

func (s recordingService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	*s.started = append(*s.started, s.ServiceName)
	return nil
}

func (s recordingService) Stop(ctx context.Context) error {
	*s.stopped = append(*s.stopped, s.ServiceName)
	return nil
}

func TestManagerStartsInOrder(t *testing.T) {
	var started, stopped []string
	mgr := NewManager()
	require.NoError(t, mgr.Register(recordingService{NoopService{"a"}, nil, &started, &stopped}))
	require.NoError(t, mgr.Register(recordingService{NoopService{"b"}, nil, &started, &stopped}))

	require.NoError(t, mgr.Start(context.Background()))
	assert.Equal(t, []string{"a", "b"}, started)

	require.NoError(t, mgr.Stop(context.Background()))
	assert.Equal(t, []string{"b", "a"}, stopped)
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var started, stopped []string
	mgr := NewManager()
	require.NoError(t, mgr.Register(recordingService{NoopService{"a"}, nil, &started, &stopped}))
	require.NoError(t, mgr.Register(recordingService{NoopService{"b"}, errors.New("boom"), &started, &stopped}))

	err := mgr.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, started)
	assert.Equal(t, []string{"a"}, stopped)
}

func TestManagerRejectsRegistrationAfterStart(t *testing.T) {
	mgr := NewManager()
	require.NoError(t, mgr.Start(context.Background()))
	err := mgr.Register(NoopService{ServiceName: "late"})
	assert.Error(t, err)
}
