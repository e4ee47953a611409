package list

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xsortedlist/xlog"
)

func TestParallelInsert(t *testing.T) {
	type testcase struct {
		name      string
		total     int
		poolSize  int
		batchSize int
		listOpts  []SortedListOption
	}
	testcases := []testcase{
		{
			name:      "go native mutex, 4 workers, batch 16",
			total:     2048,
			poolSize:  4,
			batchSize: 16,
			listOpts:  []SortedListOption{WithSortedListGoNativeMutex()},
		},
		{
			name:      "spin mutex, 8 workers, batch 100",
			total:     3000,
			poolSize:  8,
			batchSize: 100,
			listOpts:  []SortedListOption{WithSortedListSpinMutex()},
		},
		{
			name:     "defaults",
			total:    500,
			listOpts: nil,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			l, err := NewSortedList[int](tc.listOpts...)
			require.NoError(tt, err)

			values := make([]int, tc.total)
			for i := range values {
				values[i] = rand.Intn(tc.total)
			}
			logger := xlog.NewXLogger(
				xlog.WithXLoggerLevel(xlog.LogLevelDebug),
				xlog.WithXLoggerContextFieldExtract("xsl.run", "run"),
			)
			ctx := context.WithValue(context.Background(), "xsl.run", tc.name)
			err = ParallelInsert[int](ctx, l, values,
				WithParallelInsertPoolSize(tc.poolSize),
				WithParallelInsertBatchSize(tc.batchSize),
				WithParallelInsertLogger(logger),
			)
			require.NoError(tt, err)

			expected := append([]int(nil), values...)
			sort.Ints(expected)
			actual, err := l.Values()
			require.NoError(tt, err)
			require.Equal(tt, expected, actual)

			ok, err := l.IsSorted()
			require.NoError(tt, err)
			require.True(tt, ok)
		})
	}
}

func TestParallelInsert_NilListAndEmptyValues(t *testing.T) {
	err := ParallelInsert[int](context.Background(), nil, []int{1})
	require.ErrorIs(t, err, ErrSortedListNil)

	var typedNil *sortedList[int]
	err = ParallelInsert[int](context.Background(), typedNil, []int{1})
	require.ErrorIs(t, err, ErrSortedListNil)

	l, err := NewSortedList[int]()
	require.NoError(t, err)
	require.NoError(t, ParallelInsert[int](context.Background(), l, nil))
	require.Equal(t, int64(0), l.Len())
}

func TestParallelInsert_Canceled(t *testing.T) {
	l, err := NewSortedList[int]()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ParallelInsert[int](ctx, l, []int{3, 2, 1},
		WithParallelInsertBatchSize(1),
		WithParallelInsertLogger(xlog.NewXLogger(xlog.WithXLoggerLevel(xlog.LogLevelWarn))),
	)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int64(0), l.Len())
}

func TestParallelInsert_WorkerPanic(t *testing.T) {
	l, err := NewSortedListWithComparator[int](func(i, j int) int64 {
		if i < 0 || j < 0 {
			panic("negative value")
		}
		return int64(i - j)
	})
	require.NoError(t, err)
	require.NoError(t, l.Insert(1))

	err = ParallelInsert[int](context.Background(), l, []int{-1},
		WithParallelInsertPoolSize(1),
	)
	require.ErrorIs(t, err, ErrSortedListWorkerPanic)

	// The panicked worker poisoned the head side of the list.
	err = ParallelInsert[int](context.Background(), l, []int{2, 3},
		WithParallelInsertPoolSize(2),
		WithParallelInsertBatchSize(1),
	)
	require.ErrorIs(t, err, ErrSortedListNodeLockPoisoned)
	require.False(t, errors.Is(err, ErrSortedListWorkerPanic))
}
