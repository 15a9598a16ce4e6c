package countstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCountWithin(ctx, "submission", "user1", time.Hour)
	assert.NoError(err)
	assert.Equal(0, c)

	assert.NoError(cs.Increment(ctx, "submission", "user1"))
	assert.NoError(cs.Increment(ctx, "submission", "user1"))

	c, err = cs.GetCountWithin(ctx, "submission", "user1", time.Hour)
	assert.NoError(err)
	assert.Equal(2, c)

	// other users and event names are independent
	c, err = cs.GetCountWithin(ctx, "submission", "user2", time.Hour)
	assert.NoError(err)
	assert.Equal(0, c)
	c, err = cs.GetCountWithin(ctx, "report", "user1", time.Hour)
	assert.NoError(err)
	assert.Equal(0, c)
}

func TestMemCountStoreWindow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	// events planted before the window cutoff must not be counted
	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now().Add(-time.Minute)
	cs.events[eventKey("submission", "user1")] = []time.Time{old, recent}

	c, err := cs.GetCountWithin(ctx, "submission", "user1", time.Hour)
	assert.NoError(err)
	assert.Equal(1, c)

	// a tiny window excludes everything
	c, err = cs.GetCountWithin(ctx, "submission", "user1", time.Second)
	assert.NoError(err)
	assert.Equal(0, c)
}

func TestMemCountStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	// Increment two different values from four goroutines while two more
	// read. Run this with `-race`! A short sleep yields the scheduler so
	// reads interleave with writes.
	var wg sync.WaitGroup
	fnInc := func(name, val string, times int) {
		for i := 0; i < times; i++ {
			assert.NoError(cs.Increment(ctx, name, val))
			time.Sleep(time.Nanosecond)
		}
		wg.Done()
	}
	fnRead := func(name, val string, times int) {
		for i := 0; i < times; i++ {
			_, err := cs.GetCountWithin(ctx, name, val, time.Hour)
			assert.NoError(err)
			time.Sleep(time.Nanosecond)
		}
	}
	wg.Add(4)
	go fnInc("submission", "user1", 10)
	go fnInc("submission", "user1", 10)
	go fnRead("submission", "user1", 10)
	go fnInc("submission", "user2", 6)
	go fnInc("submission", "user2", 6)
	go fnRead("submission", "user2", 6)
	wg.Wait()

	// after all writers are collected the counts are exact
	c, err := cs.GetCountWithin(ctx, "submission", "user1", time.Hour)
	assert.NoError(err)
	assert.Equal(20, c)
	c, err = cs.GetCountWithin(ctx, "submission", "user2", time.Hour)
	assert.NoError(err)
	assert.Equal(12, c)
}
