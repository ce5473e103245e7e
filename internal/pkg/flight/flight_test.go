package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SharesOneLoad(t *testing.T) {
	var g Group[int]
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := g.Do(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestDo_FirstCallerCancelDoesNotFailOthers(t *testing.T) {
	var g Group[string]
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	load := func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			loadErr.Store(ctx.Err())
			return "", ctx.Err()
		}
		return "fresh", nil
	}

	first, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := g.Do(first, "k", load)
		firstDone <- err
	}()
	<-started

	secondDone := make(chan string, 1)
	go func() {
		v, err := g.Do(context.Background(), "k", func(context.Context) (string, error) {
			t.Error("second caller must join the running load")
			return "", nil
		})
		assert.NoError(t, err)
		secondDone <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstDone, context.Canceled)

	close(release)
	assert.Equal(t, "fresh", <-secondDone)
	assert.Nil(t, loadErr.Load(), "load must not see the first caller's cancel")
}

func TestDo_LoadIsBoundedByTimeout(t *testing.T) {
	g := Group[int]{Timeout: 30 * time.Millisecond}
	_, err := g.Do(context.Background(), "k", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_KeepsCallerValues(t *testing.T) {
	type key struct{}
	var g Group[string]
	ctx := context.WithValue(context.Background(), key{}, "req-1")
	v, err := g.Do(ctx, "k", func(ctx context.Context) (string, error) {
		return ctx.Value(key{}).(string), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", v)
}

func TestDo_CanceledBeforeStart(t *testing.T) {
	var g Group[int]
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Do(ctx, "k", func(context.Context) (int, error) {
		t.Error("load must not start")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_ErrorsAreShared(t *testing.T) {
	var g Group[int]
	boom := errors.New("boom")
	_, err := g.Do(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
