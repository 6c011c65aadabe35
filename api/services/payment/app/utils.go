package app

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatRupiah groups digits with dots, Indonesian style: 150374 -> "150.374".
func FormatRupiah(amount int64) string {
	if amount < 0 {
		return "-" + FormatRupiah(-amount)
	}
	return humanize.FormatInteger("#.###,", int(amount))
}

// SplitUniqueCode splits a payable amount into its thousands part, grouped with
// dots, and the trailing unique code, always three digits:
// 1150374 -> ("1.150", "374"), 50 -> ("0", "050").
func SplitUniqueCode(amount int64) (main, code string) {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return sign + FormatRupiah(amount/1000), fmt.Sprintf("%03d", amount%1000)
}
