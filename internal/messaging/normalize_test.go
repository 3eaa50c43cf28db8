package messaging

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+1 (415) 555-0134", "+14155550134"},
		{"415.555.0134", "4155550134"},
		{"0044 20 7946 0958", "+442079460958"},
		{"  +49 30 123456  ", "+4930123456"},
		{"tel:+14155550134", "14155550134"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
