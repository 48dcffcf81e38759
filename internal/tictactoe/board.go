// Package tictactoe implements the two-player morpion game playable inside
// a group thread: board state, win detection, and the chat-driven game
// manager.
package tictactoe

// Cell symbols used on the rendered board.
const (
	SymbolBlue  = "💙"
	SymbolWhite = "🤍"
	emptyCell   = "🟨"
)

// Board is the 3x3 grid, row-major. Empty cells hold the empty string.
type Board [9]string

var winPatterns = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the symbol holding a full line, or "" when nobody has won.
func (b Board) Winner() string {
	for _, p := range winPatterns {
		if b[p[0]] != "" && b[p[0]] == b[p[1]] && b[p[0]] == b[p[2]] {
			return b[p[0]]
		}
	}
	return ""
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, c := range b {
		if c == "" {
			return false
		}
	}
	return true
}

// Render draws the board as three emoji rows, each row newline-terminated.
func (b Board) Render() string {
	var out string
	for i, c := range b {
		if c == "" {
			c = emptyCell
		}
		out += c
		if (i+1)%3 == 0 {
			out += "\n"
		} else {
			out += " "
		}
	}
	return out
}
