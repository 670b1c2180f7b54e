package ledger

import (
	"strconv"
	"strings"
)

const (
	CopperPerSilver = 100
	CopperPerGold   = 100 * CopperPerSilver
)

// FormatMoney renders copper as "12g 3s 4c", keeping the sign.
func FormatMoney(copper int64) string {
	if copper == 0 {
		return "0c"
	}
	var b strings.Builder
	if copper < 0 {
		b.WriteByte('-')
		copper = -copper
	}
	g := copper / CopperPerGold
	s := (copper % CopperPerGold) / CopperPerSilver
	c := copper % CopperPerSilver
	parts := make([]string, 0, 3)
	if g > 0 {
		parts = append(parts, strconv.FormatInt(g, 10)+"g")
	}
	if s > 0 {
		parts = append(parts, strconv.FormatInt(s, 10)+"s")
	}
	if c > 0 {
		parts = append(parts, strconv.FormatInt(c, 10)+"c")
	}
	b.WriteString(strings.Join(parts, " "))
	return b.String()
}
