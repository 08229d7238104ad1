package treasury

import (
	"context"
	"testing"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"
	"carbon-ledger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveAndPay(t *testing.T) {
	l := &Ledger{Store: testutil.NewStore(t)}
	ctx := context.Background()

	require.NoError(t, l.Receive(ctx, "0xbuyer", domain.NewAmount(1000)))
	require.NoError(t, l.Pay(ctx, "0xowner", domain.NewAmount(975)))

	reserve, err := l.Reserve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "25", reserve.String())
	paid, err := l.Balance(ctx, "0xowner")
	require.NoError(t, err)
	assert.Equal(t, "975", paid.String())
}

func TestPay_FailsWhenReserveShort(t *testing.T) {
	l := &Ledger{Store: testutil.NewStore(t)}
	ctx := context.Background()
	require.NoError(t, l.Receive(ctx, "0xbuyer", domain.NewAmount(10)))

	err := l.Pay(ctx, "0xowner", domain.NewAmount(11))
	assert.ErrorIs(t, err, domain.ErrPaymentTransfer)

	err = l.Pay(ctx, "0x0", domain.NewAmount(1))
	assert.ErrorIs(t, err, domain.ErrPaymentTransfer)

	reserve, _ := l.Reserve(ctx)
	assert.Equal(t, "10", reserve.String())
}

func TestPay_ZeroIsNoop(t *testing.T) {
	l := &Ledger{Store: testutil.NewStore(t)}
	require.NoError(t, l.Pay(context.Background(), "0x0", domain.ZeroAmount()))
}

func TestJoinsRunningTransaction(t *testing.T) {
	s := testutil.NewStore(t)
	l := &Ledger{Store: s}
	ctx := context.Background()

	err := s.Update(ctx, func(txn *store.Txn) error {
		if err := l.Receive(txn.Context(), "0xbuyer", domain.NewAmount(50)); err != nil {
			return err
		}
		return l.Pay(txn.Context(), "0xowner", domain.NewAmount(60))
	})
	assert.ErrorIs(t, err, domain.ErrPaymentTransfer)

	reserve, err := l.Reserve(ctx)
	require.NoError(t, err)
	assert.True(t, reserve.IsZero())
}
