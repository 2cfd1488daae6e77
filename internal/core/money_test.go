package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{1000, "Rp 1.000"},
		{200_000_000, "Rp 200.000.000"},
		{1_234_567_890, "Rp 1.234.567.890"},
		{-75_000, "-Rp 75.000"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(decimal.NewFromInt(tc.in)); got != tc.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatRupiahRoundsFractions(t *testing.T) {
	if got := FormatRupiah(decimal.RequireFromString("1500.5")); got != "Rp 1.501" {
		t.Errorf("FormatRupiah(1500.5) = %q", got)
	}
}

func TestTerbilang(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, ""},
		{1, "SATU"},
		{11, "SEBELAS"},
		{12, "DUA BELAS"},
		{20, "DUA PULUH"},
		{25, "DUA PULUH LIMA"},
		{100, "SERATUS"},
		{111, "SERATUS SEBELAS"},
		{200, "DUA RATUS"},
		{1000, "SERIBU"},
		{1500, "SERIBU LIMA RATUS"},
		{2000, "DUA RIBU"},
		{12_000, "DUA BELAS RIBU"},
		{200_000, "DUA RATUS RIBU"},
		{1_000_000, "SATU JUTA"},
		{2_500_000, "DUA JUTA LIMA RATUS RIBU"},
		{20_000_005, "DUA PULUH JUTA LIMA"},
		{200_000_000, "DUA RATUS JUTA"},
		{1_000_000_000, "SATU MILYAR"},
		{-300, "TIGA RATUS"},
	}
	for _, tc := range cases {
		if got := Terbilang(tc.in); got != tc.want {
			t.Errorf("Terbilang(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
