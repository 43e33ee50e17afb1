package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresherRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewRefresher(nil, newTestService(t, &memStore{}), "not a cron spec")
	require.Error(t, err)
}

func TestRefresherEmptySpecIsNoop(t *testing.T) {
	t.Parallel()

	r, err := NewRefresher(nil, newTestService(t, &memStore{}), "  ")
	require.NoError(t, err)
	r.Start()
	r.Stop(context.Background())
}

func TestRefresherReloadsOnSchedule(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &memStore{records: []Record{{Title: "leo"}}})
	r, err := NewRefresher(nil, svc, "@every 1s")
	require.NoError(t, err)
	r.Start()
	defer r.Stop(context.Background())

	require.Eventually(t, func() bool {
		return svc.Snapshot().Generation() > 0
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, 1, svc.Snapshot().Len())
}
