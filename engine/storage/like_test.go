package storage

import "testing"

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"Banana":   "%banana%",
		"50%":      `%50\%%`,
		"snake_ok": `%snake\_ok%`,
		`a\b`:      `%a\\b%`,
	}
	for in, want := range cases {
		if got := LikePattern(in); got != want {
			t.Errorf("LikePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
