package concurrency_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusdata/zarrgo/internal/concurrency"
)

func TestFanOut_RunsAllItems(t *testing.T) {
	var count atomic.Int64
	err := concurrency.FanOut(context.Background(), 10, 3, func(ctx context.Context, i int) error {
		count.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), count.Load())
}

func TestFanOut_PropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := concurrency.FanOut(context.Background(), 5, 2, func(ctx context.Context, i int) error {
		if i == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestFanOut_ZeroItems(t *testing.T) {
	err := concurrency.FanOut(context.Background(), 0, 1, func(ctx context.Context, i int) error {
		t.Fatal("should not be called")
		return nil
	})
	require.NoError(t, err)
}

func TestFanOutCollect_PreservesOrder(t *testing.T) {
	results, err := concurrency.FanOutCollect(context.Background(), 5, 2, func(ctx context.Context, i int) (int, error) {
		return i * i, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 4, 9, 16}, results)
}
