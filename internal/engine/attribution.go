package engine

import (
	"math/big"

	"goldledger/internal/inventory"
)

// Share is the part of a balance delta attributed to one item change.
type Share struct {
	Change inventory.Change
	Value  int64
}

// Valuer returns the reference value of one unit of an item.
type Valuer func(id inventory.ItemID) (unit int64, known bool)

// Distribute splits delta across changes so the shares sum to delta exactly.
// A single change takes the whole delta. Several changes are split in
// proportion to their reference value when every value is known and the
// total lands within tolerancePct of |delta|; otherwise the split is even and
// low is set.
func Distribute(delta int64, changes []inventory.Change, value Valuer, tolerancePct int) (shares []Share, low bool) {
	switch len(changes) {
	case 0:
		return nil, false
	case 1:
		return []Share{{Change: changes[0], Value: delta}}, false
	}

	weights := make([]int64, len(changes))
	var total int64
	known := true
	for i, c := range changes {
		unit, ok := int64(0), false
		if value != nil {
			unit, ok = value(c.ItemID)
		}
		if !ok || unit < 0 {
			known = false
			break
		}
		weights[i] = unit * int64(c.Quantity)
		total += weights[i]
	}
	if known && total > 0 && withinTolerance(total, abs64(delta), tolerancePct) {
		return proportional(delta, changes, weights, total), false
	}
	return even(delta, changes), true
}

func withinTolerance(sum, target int64, pct int) bool {
	diff := abs64(sum - target)
	return diff*100 <= target*int64(pct)
}

func proportional(delta int64, changes []inventory.Change, weights []int64, total int64) []Share {
	out := make([]Share, len(changes))
	var assigned int64
	bigDelta := big.NewInt(delta)
	bigTotal := big.NewInt(total)
	for i, c := range changes {
		out[i].Change = c
		if i == len(changes)-1 {
			out[i].Value = delta - assigned
			break
		}
		v := new(big.Int).Mul(bigDelta, big.NewInt(weights[i]))
		v.Quo(v, bigTotal)
		out[i].Value = v.Int64()
		assigned += out[i].Value
	}
	return out
}

func even(delta int64, changes []inventory.Change) []Share {
	n := int64(len(changes))
	base := delta / n
	rem := delta - base*n
	out := make([]Share, len(changes))
	for i, c := range changes {
		out[i] = Share{Change: c, Value: base}
		switch {
		case rem > 0:
			out[i].Value++
			rem--
		case rem < 0:
			out[i].Value--
			rem++
		}
	}
	return out
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
