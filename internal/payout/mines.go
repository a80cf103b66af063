package payout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	GridSize = 25
	MaxMines = 24

	// AutoRevealMaxMines boards reveal every gem at the deal and settle at once.
	AutoRevealMaxMines = 2

	placementAttempts = 4096
)

var (
	ErrInvalidCell   = errors.New("cell out of range")
	ErrCellRevealed  = errors.New("cell already revealed")
	ErrBoardFinished = errors.New("board already finished")
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellGem
	CellMine
)

func (k CellKind) String() string {
	switch k {
	case CellGem:
		return "gem"
	case CellMine:
		return "mine"
	default:
		return "empty"
	}
}

type MinesBoard struct {
	MineCount int
	GemCount  int

	cells     [GridSize]CellKind
	revealed  [GridSize]bool
	order     []int
	gemsFound int
	hitMine   bool
}

type RevealResult struct {
	Cell       int
	Kind       CellKind
	GemsFound  int
	Multiplier decimal.Decimal
	Finished   bool
}

func ValidateMinesConfig(mines, gems int) error {
	switch {
	case mines < 1 || mines > MaxMines:
		return fmt.Errorf("%w: mine count must be between 1 and %d", ErrInvalidParams, MaxMines)
	case gems < 1 || gems > GridSize:
		return fmt.Errorf("%w: gem count must be between 1 and %d", ErrInvalidParams, GridSize)
	case mines+gems > GridSize:
		return fmt.Errorf("%w: mines and gems exceed %d cells", ErrInvalidParams, GridSize)
	}
	return nil
}

// NewMinesBoard places mines then gems on free cells by rejection sampling.
func NewMinesBoard(rng RandomSource, mines, gems int) (*MinesBoard, error) {
	if err := ValidateMinesConfig(mines, gems); err != nil {
		return nil, err
	}

	b := &MinesBoard{MineCount: mines, GemCount: gems}
	b.place(rng, CellMine, mines)
	b.place(rng, CellGem, gems)
	return b, nil
}

func (b *MinesBoard) place(rng RandomSource, kind CellKind, count int) {
	for placed := 0; placed < count; placed++ {
		cell := intn(rng, GridSize)
		for attempt := 0; b.cells[cell] != CellEmpty; attempt++ {
			if attempt < placementAttempts {
				cell = intn(rng, GridSize)
				continue
			}
			cell = (cell + 1) % GridSize
		}
		b.cells[cell] = kind
	}
}

// MinesMultiplier is 0.99 / (gems / (25 - revealed)) rounded to cents.
func MinesMultiplier(gems, revealed int) decimal.Decimal {
	if gems <= 0 || revealed >= GridSize {
		return zero
	}
	remaining := decimal.NewFromInt(int64(GridSize - revealed))
	return RoundMoney(HouseEdge.Mul(remaining).Div(decimal.NewFromInt(int64(gems))))
}

func (b *MinesBoard) Reveal(cell int) (RevealResult, error) {
	if cell < 0 || cell >= GridSize {
		return RevealResult{}, ErrInvalidCell
	}
	if b.Finished() {
		return RevealResult{}, ErrBoardFinished
	}
	if b.revealed[cell] {
		return RevealResult{}, ErrCellRevealed
	}

	b.revealed[cell] = true
	b.order = append(b.order, cell)

	switch b.cells[cell] {
	case CellMine:
		b.hitMine = true
	case CellGem:
		b.gemsFound++
	}

	return RevealResult{
		Cell:       cell,
		Kind:       b.cells[cell],
		GemsFound:  b.gemsFound,
		Multiplier: b.Multiplier(),
		Finished:   b.Finished(),
	}, nil
}

// RevealAllGems uncovers every gem in cell order.
func (b *MinesBoard) RevealAllGems() {
	for cell, kind := range b.cells {
		if kind == CellGem && !b.revealed[cell] {
			b.revealed[cell] = true
			b.order = append(b.order, cell)
			b.gemsFound++
		}
	}
}

func (b *MinesBoard) GemsFound() int { return b.gemsFound }
func (b *MinesBoard) HitMine() bool  { return b.hitMine }

func (b *MinesBoard) Finished() bool {
	return b.hitMine || b.gemsFound == b.GemCount
}

func (b *MinesBoard) Multiplier() decimal.Decimal {
	if b.hitMine {
		return zero
	}
	return MinesMultiplier(b.GemCount, b.gemsFound)
}

// Revealed lists revealed cells in reveal order.
func (b *MinesBoard) Revealed() []int {
	out := make([]int, len(b.order))
	copy(out, b.order)
	return out
}

func (b *MinesBoard) Cells(kind CellKind) []int {
	var out []int
	for cell, k := range b.cells {
		if k == kind {
			out = append(out, cell)
		}
	}
	sort.Ints(out)
	return out
}

func (b *MinesBoard) Kind(cell int) CellKind {
	if cell < 0 || cell >= GridSize {
		return CellEmpty
	}
	return b.cells[cell]
}
