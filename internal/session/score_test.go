package session

import (
	"strings"
	"testing"
)

func TestRating(t *testing.T) {
	cases := []struct {
		name    string
		moves   int
		optimal int
		want    string
	}{
		{"optimal", 5, 5, "PERFECT! You solved it optimally!"},
		{"within factor", 7, 5, "Great job! Very efficient solution!"},
		{"at boundary", 6, 4, "Great job! Very efficient solution!"},
		{"over boundary", 7, 4, "You solved it! Try to find a more efficient path next time."},
		{"single move optimal", 1, 1, "PERFECT! You solved it optimally!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Rating(tc.moves, tc.optimal); got != tc.want {
				t.Fatalf("Rating(%d, %d) = %q, want %q", tc.moves, tc.optimal, got, tc.want)
			}
		})
	}
}

func TestWinMessage(t *testing.T) {
	title, text := WinMessage(7, 5)
	if title != "Congratulations! You Won!" {
		t.Fatalf("title %q", title)
	}
	for _, want := range []string{
		"Final Score: 7 moves",
		"Optimal Solution: 5 moves",
		"Great job! Very efficient solution!",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text %q missing %q", text, want)
		}
	}
}
