package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldledger/internal/ledger"
)

type balanceFunc func() int64

func (f balanceFunc) Balance() int64 { return f() }

type arbiterFixture struct {
	sched   *ManualScheduler
	balance int64
	emitted []Entry
	arb     *Arbiter
}

func newArbiterFixture(balance int64) *arbiterFixture {
	f := &arbiterFixture{sched: NewManualScheduler(epoch), balance: balance}
	f.arb = NewArbiter(f.sched, balanceFunc(func() int64 { return f.balance }), testConfig(), func(_ Status, es []Entry) {
		f.emitted = append(f.emitted, es...)
	}, zerolog.Nop())
	f.arb.Prime()
	return f
}

func (f *arbiterFixture) change(balance int64, contextOpen bool) Observation {
	f.balance = balance
	return f.arb.OnBalanceChanged(contextOpen)
}

func TestArbiterEmitsGenericAfterTimeout(t *testing.T) {
	f := newArbiterFixture(1000)
	obs := f.change(700, false)
	require.NotZero(t, obs.Cycle)
	assert.Equal(t, int64(-300), obs.Delta)

	f.sched.Advance(499 * time.Millisecond)
	assert.Empty(t, f.emitted)

	f.sched.Advance(time.Millisecond)
	require.Len(t, f.emitted, 1)
	e := f.emitted[0]
	assert.Equal(t, ledger.KindUnclaimedExpense, e.Kind)
	assert.Equal(t, int64(-300), e.Value)
	assert.Equal(t, ledger.UnknownSource, e.Source)
	assert.Equal(t, epoch, e.At)
}

func TestArbiterNoChangeNoCycle(t *testing.T) {
	f := newArbiterFixture(1000)
	obs := f.change(1000, false)
	assert.Zero(t, obs.Delta)
	assert.Zero(t, obs.Cycle)
	f.sched.Advance(time.Second)
	assert.Empty(t, f.emitted)
}

func TestArbiterTimeoutBoundary(t *testing.T) {
	f := newArbiterFixture(1000)
	c := f.change(1200, false).Cycle
	f.sched.Advance(499 * time.Millisecond)
	assert.True(t, f.arb.Claim(c), "claim just before timeout")
	f.sched.Advance(time.Second)
	assert.Empty(t, f.emitted)

	c = f.change(1500, false).Cycle
	f.sched.Advance(500 * time.Millisecond)
	assert.False(t, f.arb.Claim(c), "claim at timeout")
	f.sched.Advance(time.Millisecond)
	assert.False(t, f.arb.Claim(c), "claim after timeout")
	require.Len(t, f.emitted, 1)
	assert.Equal(t, int64(300), f.emitted[0].Value)
}

func TestArbiterClaimOnce(t *testing.T) {
	f := newArbiterFixture(0)
	c := f.change(50, false).Cycle
	assert.True(t, f.arb.Claim(c))
	assert.False(t, f.arb.Claim(c))
	assert.False(t, f.arb.Claim(0))
	assert.False(t, f.arb.Claim(c+1))
	_, pending := f.arb.Pending()
	assert.False(t, pending)
}

func TestArbiterDefersWhileContextOpen(t *testing.T) {
	f := newArbiterFixture(100)
	obs := f.change(40, true)
	assert.True(t, obs.Deferred)
	assert.Zero(t, obs.Cycle)
	f.sched.Advance(time.Second)
	assert.Empty(t, f.emitted)
}

func TestArbiterBelowThreshold(t *testing.T) {
	f := newArbiterFixture(100)
	cfg := testConfig()
	cfg.MinMagnitude = 10
	f.arb = NewArbiter(f.sched, balanceFunc(func() int64 { return f.balance }), cfg, func(_ Status, es []Entry) {
		f.emitted = append(f.emitted, es...)
	}, zerolog.Nop())
	f.arb.Prime()

	obs := f.change(95, false)
	assert.True(t, obs.Ignored)
	assert.Zero(t, obs.Cycle)
	f.sched.Advance(time.Second)
	assert.Empty(t, f.emitted)
}

func TestArbiterNewCycleResolvesOlder(t *testing.T) {
	f := newArbiterFixture(100)
	first := f.change(150, false).Cycle
	f.sched.Advance(100 * time.Millisecond)
	second := f.change(130, false).Cycle
	require.NotEqual(t, first, second)

	require.Len(t, f.emitted, 1, "older cycle flushed")
	assert.Equal(t, int64(50), f.emitted[0].Value)
	assert.False(t, f.arb.Claim(first))

	f.sched.Advance(time.Second)
	require.Len(t, f.emitted, 2)
	assert.Equal(t, int64(-20), f.emitted[1].Value)
	assert.Equal(t, ledger.KindUnclaimedExpense, f.emitted[1].Kind)
}

func TestArbiterDropsStaleAttribution(t *testing.T) {
	f := newArbiterFixture(100)
	c := f.arb.BeginCycle(25)
	// Simulate a loop stalled past the staleness ceiling before the timer ran.
	f.sched.now = f.sched.now.Add(3 * time.Second)
	f.arb.Resolve(c)
	assert.Empty(t, f.emitted)
	_, pending := f.arb.Pending()
	assert.False(t, pending)
}

func TestArbiterFlush(t *testing.T) {
	f := newArbiterFixture(100)
	f.change(90, false)
	f.arb.Flush()
	require.Len(t, f.emitted, 1)
	f.sched.Advance(time.Second)
	assert.Len(t, f.emitted, 1)
}

func TestArbiterClaimedCycleStaysQuiet(t *testing.T) {
	f := newArbiterFixture(0)
	c := f.change(80, false).Cycle
	require.True(t, f.arb.Claim(c))
	f.arb.Resolve(c)
	f.arb.Flush()
	f.sched.Advance(time.Second)
	assert.Empty(t, f.emitted)
}

func TestArbiterResetTakesNextReadingAsBaseline(t *testing.T) {
	f := newArbiterFixture(100)
	f.arb.Reset()
	obs := f.change(9_000, false)
	assert.Zero(t, obs.Delta)
	assert.Equal(t, int64(9_000), f.arb.Baseline())

	obs = f.change(8_990, false)
	assert.Equal(t, int64(-10), obs.Delta)
}
