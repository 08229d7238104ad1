package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"
	"carbon-ledger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
)

func TestUpdate_CommitsStateAndRunsHooks(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()

	hooked := false
	err := s.Update(ctx, func(txn *store.Txn) error {
		txn.State.TotalCarbonCredits = 7
		txn.MarkStateChanged()
		txn.AfterCommit(func() { hooked = true })
		assert.False(t, hooked)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, hooked)

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), st.TotalCarbonCredits)
}

func TestUpdate_ErrorRollsBackEverything(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	hooked := false
	err := s.Update(ctx, func(txn *store.Txn) error {
		txn.State.TotalOffsetsGenerated = 99
		txn.MarkStateChanged()
		require.NoError(t, txn.DB.Create(&domain.Footprint{Account: "0xa", Value: 5}).Error)
		txn.AfterCommit(func() { hooked = true })
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, hooked)

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.TotalOffsetsGenerated)

	var n int64
	require.NoError(t, s.DB().Model(&domain.Footprint{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdate_RejectsReentrantCall(t *testing.T) {
	s := testutil.NewStore(t)

	var inner error
	err := s.Update(context.Background(), func(txn *store.Txn) error {
		inner = s.Update(txn.Context(), func(*store.Txn) error { return nil })
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, domain.ErrReentrancy)
}

func TestView_InsideUpdateSeesUncommittedWrites(t *testing.T) {
	s := testutil.NewStore(t)

	err := s.Update(context.Background(), func(txn *store.Txn) error {
		require.NoError(t, txn.DB.Create(&domain.Footprint{Account: "0xa", Value: 5}).Error)
		return s.View(txn.Context(), func(db *gorm.DB) error {
			var fp domain.Footprint
			require.NoError(t, db.Where("account = ?", "0xa").Take(&fp).Error)
			assert.Equal(t, int64(5), fp.Value)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestUpdate_SerializesConcurrentWriters(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Update(ctx, func(txn *store.Txn) error {
				txn.State.TotalCarbonCredits++
				txn.MarkStateChanged()
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), st.TotalCarbonCredits)
}
