package issuance

import (
	"context"
	"testing"

	"carbon-ledger/internal/application/events"
	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/application/tokens"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"
	"carbon-ledger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc    *Service
	reg    *registry.Service
	tokens *tokens.Service
	rec    *events.Recorder
	id     int64
}

// setup registers one project with sensors 0xs1 (verified) and 0xs2 (unverified).
func setup(t *testing.T, verifyProject bool) *fixture {
	s := testutil.NewStore(t)
	rec := &events.Recorder{}
	tl := tokens.NewLedger(18)
	reg := &registry.Service{Store: s, Events: rec, Admin: testutil.Admin}
	ctx := context.Background()

	id, err := reg.RegisterProject(ctx, testutil.Owner, registry.RegisterProjectInput{
		Name:            "Wind Farm",
		Location:        "North Sea",
		Price:           domain.NewAmount(1000),
		SensorAddresses: []string{"0xs1", "0xs2"},
		SensorTypes:     []string{domain.SensorTypeRenewableEnergy, domain.SensorTypeAirQuality},
	})
	require.NoError(t, err)
	require.NoError(t, reg.VerifySensor(ctx, testutil.Admin, "0xs1"))
	if verifyProject {
		require.NoError(t, reg.VerifyProject(ctx, testutil.Admin, id))
	}
	return &fixture{
		svc:    &Service{Store: s, Tokens: tl, Events: rec, Admin: testutil.Admin, Threshold: 1000, Rate: 1},
		reg:    reg,
		tokens: &tokens.Service{Store: s, Ledger: tl},
		rec:    rec,
		id:     id,
	}
}

func reading(addr string, value, ts int64) SensorReading {
	return SensorReading{SensorAddress: addr, Reading: value, Timestamp: ts, Caller: addr}
}

func TestCreditsFor(t *testing.T) {
	svc := &Service{Threshold: 1000, Rate: 1}
	for reading, want := range map[int64]int64{0: 0, 999: 0, 1000: 1, 1999: 1, 5000: 5} {
		got, err := svc.CreditsFor(reading)
		require.NoError(t, err)
		assert.Equal(t, want, got, "reading %d", reading)
	}

	svc.Rate = 3
	got, err := svc.CreditsFor(2500)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	svc.Rate = 1 << 62
	_, err = svc.CreditsFor(1 << 40)
	assert.ErrorIs(t, err, domain.ErrOverflow)
}

func TestReport_MintsToOwner(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	res, err := f.svc.ReportSensorReading(ctx, reading("0xs1", 5000, 100))
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.CreditsMinted)
	assert.Equal(t, "5000000000000000000", res.TokensMinted.String())

	p, err := f.reg.GetProject(ctx, f.id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.TotalCreditsGenerated)
	assert.Equal(t, int64(5), p.AvailableCredits)

	bal, err := f.tokens.Balance(ctx, testutil.Owner)
	require.NoError(t, err)
	assert.Equal(t, "5000000000000000000", bal.String())

	s, err := f.reg.GetSensor(ctx, "0xs1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), s.LastReading)
	assert.Equal(t, int64(100), s.LastUpdateTime)

	stats, _ := f.reg.GetPlatformStats(ctx)
	assert.Equal(t, int64(5), stats.TotalCredits)
	assert.Len(t, f.rec.OfType(domain.EventSensorUpdated), 1)
	require.Len(t, f.rec.OfType(domain.EventCreditsGenerated), 1)
}

func TestReport_BelowThresholdRecordsOnly(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	res, err := f.svc.ReportSensorReading(ctx, reading("0xs1", 999, 1))
	require.NoError(t, err)
	assert.Zero(t, res.CreditsMinted)

	s, _ := f.reg.GetSensor(ctx, "0xs1")
	assert.Equal(t, int64(999), s.LastReading)
	assert.Equal(t, int64(1), s.LastUpdateTime)
	assert.Len(t, f.rec.OfType(domain.EventSensorUpdated), 1)
	assert.Empty(t, f.rec.OfType(domain.EventCreditsGenerated))
}

func TestReport_UnverifiedProjectRecordsOnly(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()

	res, err := f.svc.ReportSensorReading(ctx, reading("0xs1", 5000, 1))
	require.NoError(t, err)
	assert.Zero(t, res.CreditsMinted)

	p, _ := f.reg.GetProject(ctx, f.id)
	assert.Zero(t, p.AvailableCredits)
	supply, _ := f.tokens.TotalSupply(ctx)
	assert.True(t, supply.IsZero())
}

func TestReport_Rejections(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	_, err := f.svc.ReportSensorReading(ctx, reading("0xs2", 5000, 1))
	assert.ErrorIs(t, err, domain.ErrSensorNotEligible)

	_, err = f.svc.ReportSensorReading(ctx, reading("0xunknown", 5000, 1))
	assert.ErrorIs(t, err, domain.ErrSensorNotEligible)

	_, err = f.svc.ReportSensorReading(ctx, reading("0xs1", -1, 1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	r := reading("0xs1", 5000, 1)
	r.Caller = "0xstranger"
	_, err = f.svc.ReportSensorReading(ctx, r)
	assert.ErrorIs(t, err, domain.ErrAuthorization)

	for i, caller := range []string{testutil.Owner, testutil.Admin} {
		r := reading("0xs1", 0, int64(10*(i+1)))
		r.Caller = caller
		_, err := f.svc.ReportSensorReading(ctx, r)
		require.NoError(t, err, caller)
	}
}

func TestReport_StaleTimestamp(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	_, err := f.svc.ReportSensorReading(ctx, reading("0xs1", 2000, 50))
	require.NoError(t, err)

	_, err = f.svc.ReportSensorReading(ctx, reading("0xs1", 9000, 50))
	assert.ErrorIs(t, err, domain.ErrStaleReading)
	_, err = f.svc.ReportSensorReading(ctx, reading("0xs1", 9000, 49))
	assert.ErrorIs(t, err, domain.ErrStaleReading)

	p, _ := f.reg.GetProject(ctx, f.id)
	assert.Equal(t, int64(2), p.AvailableCredits)
}

func TestReport_ZeroTimestampIsStaleForFreshSensor(t *testing.T) {
	f := setup(t, true)
	_, err := f.svc.ReportSensorReading(context.Background(), reading("0xs1", 5000, 0))
	assert.ErrorIs(t, err, domain.ErrStaleReading)
}

func TestReport_Paused(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	require.NoError(t, f.svc.Store.Update(ctx, func(txn *store.Txn) error {
		txn.State.Paused = true
		txn.MarkStateChanged()
		return nil
	}))
	_, err := f.svc.ReportSensorReading(ctx, reading("0xs1", 5000, 1))
	assert.ErrorIs(t, err, domain.ErrPaused)
}
