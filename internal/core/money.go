// Package core provides the domain model and the derivation engine for the
// construction-expense tracker.
//
// This file contains rupiah formatting and the Indonesian amount-in-words
// spelling used on the formal reports.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount the way the paper reports print it:
// "Rp 1.000.000" with dot thousands separators and no decimals. Fractional
// rupiah are rounded half-up.
func FormatRupiah(amount decimal.Decimal) string {
	v := amount.Round(0).IntPart()
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("Rp ")
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var terbilangUnits = []string{
	"", "SATU", "DUA", "TIGA", "EMPAT", "LIMA",
	"ENAM", "TUJUH", "DELAPAN", "SEMBILAN", "SEPULUH", "SEBELAS",
}

// Terbilang spells an amount in uppercase Indonesian words, the convention
// used on receipts and payment letters ("DUA JUTA LIMA RATUS RIBU").
// The sign is ignored; zero spells as an empty string.
func Terbilang(n int64) string {
	if n < 0 {
		n = -n
	}
	return strings.Join(strings.Fields(terbilang(n)), " ")
}

func terbilang(n int64) string {
	switch {
	case n < 12:
		return " " + terbilangUnits[n]
	case n < 20:
		return terbilang(n-10) + " BELAS"
	case n < 100:
		return terbilang(n/10) + " PULUH" + terbilang(n%10)
	case n < 200:
		return " SERATUS" + terbilang(n-100)
	case n < 1000:
		return terbilang(n/100) + " RATUS" + terbilang(n%100)
	case n < 2000:
		return " SERIBU" + terbilang(n-1000)
	case n < 1_000_000:
		return terbilang(n/1000) + " RIBU" + terbilang(n%1000)
	case n < 1_000_000_000:
		return terbilang(n/1_000_000) + " JUTA" + terbilang(n%1_000_000)
	case n < 1_000_000_000_000:
		return terbilang(n/1_000_000_000) + " MILYAR" + terbilang(n%1_000_000_000)
	default:
		return ""
	}
}
