package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"12.34":  "12.34",
		"12,34":  "12.34",
		"12.345": "12.35",
		"12.344": "12.34",
		"0.005":  "0.01",
		"100":    "100.00",
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) unexpected error: %v", in, err)
		}
		if FormatMoney(got) != want {
			t.Fatalf("ParseAmount(%q) = %s, want %s", in, FormatMoney(got), want)
		}
	}
	for _, bad := range []string{"", "-1", "0", "abc", "1.2.3", "0.001"} {
		if _, err := ParseAmount(bad); err == nil {
			t.Fatalf("ParseAmount(%q) expected error", bad)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := map[string]string{
		"0":        "$0.00",
		"25":       "$25.00",
		"1250.5":   "$1,250.50",
		"1234567":  "$1,234,567.00",
		"-999.999": "-$1,000.00",
	}
	for in, want := range cases {
		if got := FormatCurrency(dec(in)); got != want {
			t.Fatalf("FormatCurrency(%s) = %s, want %s", in, got, want)
		}
	}
}
