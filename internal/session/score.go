package session

import "fmt"

// Rating grades a finished puzzle against the server-computed optimum.
func Rating(moves, optimal int) string {
	switch {
	case moves == optimal:
		return "PERFECT! You solved it optimally!"
	case float64(moves) <= float64(optimal)*1.5:
		return "Great job! Very efficient solution!"
	default:
		return "You solved it! Try to find a more efficient path next time."
	}
}

// WinMessage builds the victory overlay contents.
func WinMessage(moves, optimal int) (title, text string) {
	title = "Congratulations! You Won!"
	text = fmt.Sprintf("Final Score: %d moves\nOptimal Solution: %d moves\n\n%s",
		moves, optimal, Rating(moves, optimal))
	return title, text
}
