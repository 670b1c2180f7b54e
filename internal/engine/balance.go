package engine

// BalanceTracker turns absolute balance readings into deltas relative to the
// last observation.
type BalanceTracker struct {
	src      BalanceSource
	baseline int64
	primed   bool
}

func NewBalanceTracker(src BalanceSource) *BalanceTracker {
	return &BalanceTracker{src: src}
}

// OnVenueOpen records the current balance as the baseline.
func (b *BalanceTracker) OnVenueOpen() {
	b.baseline = b.src.Balance()
	b.primed = true
}

// OnBalanceChanged returns current minus baseline and re-bases. The first call
// on an unprimed tracker only records the baseline.
func (b *BalanceTracker) OnBalanceChanged() int64 {
	cur := b.src.Balance()
	if !b.primed {
		b.baseline = cur
		b.primed = true
		return 0
	}
	d := cur - b.baseline
	b.baseline = cur
	return d
}

// Reset forgets the baseline; the next reading becomes the new one.
func (b *BalanceTracker) Reset() {
	b.baseline = 0
	b.primed = false
}

func (b *BalanceTracker) Primed() bool { return b.primed }

func (b *BalanceTracker) Baseline() int64 {
	return b.baseline
}
