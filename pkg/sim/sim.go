// Package sim runs Monte Carlo simulations of tic-tac-toe games in which
// both players pick a random free cell on every move.
package sim

import (
	"errors"
	"math/rand/v2"
	"slices"
)

const (
	DefaultGames = 50000
	DefaultSeed  = 100

	cellCount      = 9
	minMovesForWin = 3
)

// Mark is the content of a board cell.
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return " "
	}
}

// winningLines are the board indexes of the three rows, three columns and
// two diagonals.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Outcome is the result of one game.
type Outcome uint8

const (
	XWins Outcome = iota
	OWins
	Tie
)

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "win_X"
	case OWins:
		return "win_O"
	default:
		return "tie"
	}
}

// Board is a 3x3 board indexed by cell position.
type Board [cellCount]Mark

// Wins reports whether mark holds any full winning line.
func (b *Board) Wins(mark Mark) bool {
	for _, l := range winningLines {
		if b[l[0]] == mark && b[l[1]] == mark && b[l[2]] == mark {
			return true
		}
	}
	return false
}

// game holds the state of a game in progress.
type game struct {
	board Board
	free  []int
	moves [3]int
}

func newGame() *game {
	g := &game{free: make([]int, cellCount)}
	for i := range g.free {
		g.free[i] = i
	}
	return g
}

// move marks a random free cell for player and reports whether it won.
// The free cells keep their order so the random stream is consumed the same
// way on every run.
func (g *game) move(r *rand.Rand, player Mark) bool {
	i := r.IntN(len(g.free))
	cell := g.free[i]
	g.free = slices.Delete(g.free, i, i+1)
	g.board[cell] = player
	g.moves[player]++

	if g.moves[player] < minMovesForWin {
		return false
	}
	return g.board.Wins(player)
}

// Play runs one game with X moving first and returns its outcome and the
// final board.
func Play(r *rand.Rand) (Outcome, Board) {
	g := newGame()
	player := X
	for len(g.free) > 0 {
		if g.move(r, player) {
			if player == X {
				return XWins, g.board
			}
			return OWins, g.board
		}
		if player == X {
			player = O
		} else {
			player = X
		}
	}
	return Tie, g.board
}

// Options configure a simulation run.
type Options struct {
	Games int
	Seed  uint64
	// LegacyTally records an O win as a tie and a full board without a
	// winner as an O win. The default tally counts each outcome under its
	// own name, so its rates differ from the previously published
	// 59/12/29 (win_X/win_O/tie) split; set LegacyTally to reproduce it.
	LegacyTally bool
}

// Result aggregates the outcomes of a run.
type Result struct {
	Games  int    `json:"games" yaml:"games"`
	Seed   uint64 `json:"seed" yaml:"seed"`
	Legacy bool   `json:"legacy_tally" yaml:"legacyTally"`
	WinX   int    `json:"win_X" yaml:"winX"`
	WinO   int    `json:"win_O" yaml:"winO"`
	Tie    int    `json:"tie" yaml:"tie"`
}

// Rates are the outcome counts as fractions of all games.
type Rates struct {
	WinX float64 `json:"win_X" yaml:"winX"`
	WinO float64 `json:"win_O" yaml:"winO"`
	Tie  float64 `json:"tie" yaml:"tie"`
}

// Rates returns each count divided by the number of games.
func (r *Result) Rates() Rates {
	if r.Games == 0 {
		return Rates{}
	}
	n := float64(r.Games)
	return Rates{
		WinX: float64(r.WinX) / n,
		WinO: float64(r.WinO) / n,
		Tie:  float64(r.Tie) / n,
	}
}

// Run plays opts.Games games from a single random stream seeded once with
// opts.Seed.
func Run(opts Options) (*Result, error) {
	if opts.Games < 1 {
		return nil, errors.New("at least one game required")
	}

	r := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	res := &Result{
		Games:  opts.Games,
		Seed:   opts.Seed,
		Legacy: opts.LegacyTally,
	}

	for i := 0; i < opts.Games; i++ {
		o, _ := Play(r)
		if opts.LegacyTally {
			o = legacyOutcome(o)
		}
		switch o {
		case XWins:
			res.WinX++
		case OWins:
			res.WinO++
		default:
			res.Tie++
		}
	}

	return res, nil
}

func legacyOutcome(o Outcome) Outcome {
	switch o {
	case OWins:
		return Tie
	case Tie:
		return OWins
	default:
		return o
	}
}
