package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.34", "12.34"},
		{"12,34", "12.34"},
		{"  50.00 ", "50.00"},
		{"0", "0.00"},
		{"1.005", "1.01"}, // StringFixed rounds half away from zero
		{"", "0.00"},
		{"abc", "0.00"},
		{"12.3.4", "0.00"},
		{"-7.5", "-7.50"},
	}
	for _, tc := range cases {
		got := ParseAmount(tc.in).String()
		if got != tc.want {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := ParseAmount("10.00")
	b := ParseAmount("2.0")
	if got := a.Mul(b).String(); got != "20.00" {
		t.Fatalf("10.00 * 2.0 = %s, want 20.00", got)
	}
	if got := a.Add(b).String(); got != "12.00" {
		t.Fatalf("10.00 + 2.0 = %s, want 12.00", got)
	}
	if ParseAmount("1.5").Cmp(ParseAmount("1.50")) != 0 {
		t.Fatalf("1.5 and 1.50 should compare equal")
	}
	// Values that drift under binary floats stay exact here.
	if got := ParseAmount("0.1").Add(ParseAmount("0.2")).String(); got != "0.30" {
		t.Fatalf("0.1 + 0.2 = %s, want 0.30", got)
	}
}

func TestAmountJSON(t *testing.T) {
	var l PublicationLine
	payload := `{"vendor_name":"Gazzetta","unit_rate":"12,50","format_multiplier":2,"include_in_total":true}`
	if err := json.Unmarshal([]byte(payload), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := l.UnitRate.String(); got != "12.50" {
		t.Fatalf("unit rate = %s, want 12.50", got)
	}
	if got := l.FormatMultiplier.String(); got != "2.00" {
		t.Fatalf("multiplier = %s, want 2.00", got)
	}

	// Garbage degrades to zero without failing the decode.
	payload = `{"vendor_name":"Gazzetta","unit_rate":"n/a","include_in_total":true}`
	if err := json.Unmarshal([]byte(payload), &l); err != nil {
		t.Fatalf("unmarshal with malformed rate: %v", err)
	}
	if !l.UnitRate.IsZero() {
		t.Fatalf("malformed rate should coerce to zero, got %s", l.UnitRate)
	}

	out, err := json.Marshal(ParseAmount("70"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"70.00"` {
		t.Fatalf("marshal = %s, want \"70.00\"", out)
	}
}
