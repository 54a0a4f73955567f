package game

import (
	"fmt"
	"strings"
)

// Point is a cell location. Y grows upwards; row 0 is the bottom row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Field is a single cell. Owner is empty while no token occupies it.
type Field struct {
	Owner    string `json:"occupation,omitempty"`
	Location Point  `json:"location"`
}

// Empty reports whether no token occupies the cell.
func (f Field) Empty() bool { return f.Owner == "" }

// Win lines are walked in these directions only; the other four are covered by
// starting the walk from the opposite end of the row.
var directions = [...]Point{
	{X: 0, Y: 1},  // up
	{X: 1, Y: 1},  // upper right
	{X: 1, Y: 0},  // right
	{X: 1, Y: -1}, // lower right
}

var symbols = []rune{'x', 'o', '*', '#', '+', '@', '%', '&'}

// PlayField is the grid tokens are placed on. It is not safe for concurrent use;
// Game serialises access to it.
type PlayField struct {
	width, height int
	cells         [][]Field // cells[y][x]
	symbols       map[string]rune
}

// NewPlayField creates an empty width x height field.
func NewPlayField(width, height int) *PlayField {
	cells := make([][]Field, height)
	for y := range cells {
		cells[y] = make([]Field, width)
		for x := range cells[y] {
			cells[y][x] = Field{Location: Point{X: x, Y: y}}
		}
	}
	return &PlayField{width: width, height: height, cells: cells, symbols: make(map[string]rune)}
}

// Width returns the number of columns.
func (f *PlayField) Width() int { return f.width }

// Height returns the number of rows.
func (f *PlayField) Height() int { return f.height }

func (f *PlayField) inBounds(x, y int) bool {
	return x >= 0 && x < f.width && y >= 0 && y < f.height
}

// Field returns the cell at (x, y).
func (f *PlayField) Field(x, y int) (Field, bool) {
	if !f.inBounds(x, y) {
		return Field{}, false
	}
	return f.cells[y][x], true
}

// PlaceToken puts a token owned by player at (x, y). With gravity enabled only the
// lowest free cell of a column is accepted.
func (f *PlayField) PlaceToken(rules Rules, player string, x, y int) error {
	if !f.inBounds(x, y) {
		return fmt.Errorf("%w: (%d, %d) outside %dx%d field", ErrIllegalTokenLocation, x, y, f.width, f.height)
	}
	if !f.cells[y][x].Empty() {
		return fmt.Errorf("%w: (%d, %d) already occupied", ErrIllegalTokenLocation, x, y)
	}
	if rules.EnableGravity && y > 0 && f.cells[y-1][x].Empty() {
		return fmt.Errorf("%w: (%d, %d) has no token below it", ErrIllegalTokenLocation, x, y)
	}
	if _, ok := f.symbols[player]; !ok {
		f.symbols[player] = nextSymbol(len(f.symbols))
	}
	f.cells[y][x].Owner = player
	return nil
}

func nextSymbol(n int) rune {
	if n < len(symbols) {
		return symbols[n]
	}
	return rune('A' + (n-len(symbols))%26)
}

// RemoveToken clears the cell at (x, y). Out of range coordinates are ignored.
func (f *PlayField) RemoveToken(x, y int) {
	if f.inBounds(x, y) {
		f.cells[y][x].Owner = ""
	}
}

// LowestFree returns the row a token dropped into column x would land on.
func (f *PlayField) LowestFree(x int) (int, bool) {
	if x < 0 || x >= f.width {
		return 0, false
	}
	for y := 0; y < f.height; y++ {
		if f.cells[y][x].Empty() {
			return y, true
		}
	}
	return 0, false
}

// Full reports whether every cell is occupied.
func (f *PlayField) Full() bool {
	for _, row := range f.cells {
		for _, c := range row {
			if c.Empty() {
				return false
			}
		}
	}
	return true
}

// Symbol returns the display symbol assigned to player on their first placement.
func (f *PlayField) Symbol(player string) (rune, bool) {
	s, ok := f.symbols[player]
	return s, ok
}

// step moves one cell from p in direction d. Unbounded fields wrap around.
func (f *PlayField) step(rules Rules, p, d Point) (Point, bool) {
	nx, ny := p.X+d.X, p.Y+d.Y
	if rules.FieldHasBounds {
		if !f.inBounds(nx, ny) {
			return Point{}, false
		}
		return Point{X: nx, Y: ny}, true
	}
	return Point{X: mod(nx, f.width), Y: mod(ny, f.height)}, true
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// CheckForWinningRow looks for rules.WinningRowLength consecutive cells owned by player.
// Cells are visited row by row from the bottom and directions in the order up,
// upper right, right, lower right; the first run that is long enough is returned,
// ordered from its starting cell.
func (f *PlayField) CheckForWinningRow(rules Rules, player string) ([]Point, bool) {
	need := rules.WinningRowLength
	var owned []Point
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			if f.cells[y][x].Owner == player {
				owned = append(owned, Point{X: x, Y: y})
			}
		}
	}
	if len(owned) < need {
		return nil, false
	}

	// walked[p] has bit i set when p was reached as an inner cell of a run in
	// directions[i]; a run starting there can only be shorter.
	walked := make(map[Point]uint8, len(owned))
	for _, origin := range owned {
		for i, d := range directions {
			bit := uint8(1) << i
			if walked[origin]&bit != 0 {
				continue
			}
			row := []Point{origin}
			cur := origin
			for len(row) < need {
				next, ok := f.step(rules, cur, d)
				if !ok || next == origin || f.cells[next.Y][next.X].Owner != player {
					break
				}
				walked[next] |= bit
				row = append(row, next)
				cur = next
			}
			if len(row) >= need {
				return row, true
			}
		}
	}
	return nil, false
}

// Owners returns the owner of every cell, indexed [y][x].
func (f *PlayField) Owners() [][]string {
	out := make([][]string, f.height)
	for y, row := range f.cells {
		out[y] = make([]string, f.width)
		for x, c := range row {
			out[y][x] = c.Owner
		}
	}
	return out
}

// String renders the field top row first using the players' symbols.
func (f *PlayField) String() string {
	var b strings.Builder
	for y := f.height - 1; y >= 0; y-- {
		b.WriteByte('|')
		for _, c := range f.cells[y] {
			if c.Empty() {
				b.WriteByte(' ')
			} else {
				b.WriteRune(f.symbols[c.Owner])
			}
			b.WriteByte('|')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
