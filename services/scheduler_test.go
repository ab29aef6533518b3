// services/scheduler_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gamekey-storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobLock struct {
	held       bool
	acquireErr error

	acquired []string
	ttls     []time.Duration
	released []string
}

func (l *fakeJobLock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.acquired = append(l.acquired, name)
	l.ttls = append(l.ttls, ttl)
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	return !l.held, nil
}

func (l *fakeJobLock) Release(_ context.Context, name string) error {
	l.released = append(l.released, name)
	return nil
}

func newTestScheduler(t *testing.T, lock JobLock) *GocronScheduler {
	t.Helper()
	s, err := NewGocronScheduler(lock, utils.NopLogger{})
	require.NoError(t, err)
	return s
}

func TestGuardedRunsAndReleasesWhenLockAcquired(t *testing.T) {
	lock := &fakeJobLock{}
	s := newTestScheduler(t, lock)

	ran := false
	s.guarded("stock-price-reconcile", 15*time.Minute, func(context.Context) { ran = true })()

	assert.True(t, ran)
	assert.Equal(t, []string{"stock-price-reconcile"}, lock.acquired)
	assert.Equal(t, []time.Duration{15 * time.Minute}, lock.ttls, "lock TTL is the job cadence")
	assert.Equal(t, []string{"stock-price-reconcile"}, lock.released, "lock released after the run")
}

func TestGuardedSkipsRunWhenAnotherInstanceHoldsLock(t *testing.T) {
	lock := &fakeJobLock{held: true}
	s := newTestScheduler(t, lock)

	ran := false
	s.guarded("full-catalog-sync", time.Hour, func(context.Context) { ran = true })()

	assert.False(t, ran)
	assert.Empty(t, lock.released, "nothing to release when the lock was never ours")
}

func TestGuardedSkipsRunOnLockError(t *testing.T) {
	lock := &fakeJobLock{acquireErr: errors.New("redis unavailable")}
	s := newTestScheduler(t, lock)

	ran := false
	s.guarded("full-catalog-sync", time.Hour, func(context.Context) { ran = true })()

	assert.False(t, ran)
	assert.Empty(t, lock.released)
}

func TestGuardedRunsDirectlyWithoutLock(t *testing.T) {
	s := newTestScheduler(t, nil)

	ran := false
	s.guarded("stock-price-reconcile", 15*time.Minute, func(context.Context) { ran = true })()

	assert.True(t, ran)
}
