package messaging

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+14085550100", "+14085550100"},
		{"14085550100", "+14085550100"},
		{"(408) 555-0100", "+4085550100"},
		{" +1 408 555 0100 ", "+14085550100"},
		{"tel:+1-408-555-0100", "+14085550100"},
		{"", ""},
		{"   ", ""},
		{"no digits", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
