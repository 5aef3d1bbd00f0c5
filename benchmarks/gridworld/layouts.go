package gridworld

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Layouts are written top row first. Cells are separated by whitespace:
// "." is empty, "#" is a wall, "S" is the start cell and a number is an
// exit cell paying that reward.
var layouts = map[string]string{
	"book": `
. . . 1
. # . -1
S . . .`,
	"bridge": `
# -100 -100 -100 -100 -100 #
1 S . . . . 10
# -100 -100 -100 -100 -100 #`,
	"cliff": `
. . . . .
S . . . 10
-100 -100 -100 -100 -100`,
	"cliff2": `
. . . . .
8 . . . 10
-100 S . . -100
. . . . .`,
	"discount": `
. . . . .
. # . . .
. # 1 # 10
S . . . .
-10 -10 -10 -10 -10`,
	"maze": `
. . . 1
# # . #
. # . .
. # # .
S . . .`,
}

// LayoutNames returns the names of the built in layouts.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type cellKind int

const (
	emptyCell cellKind = iota
	wallCell
	exitCell
)

type cell struct {
	kind   cellKind
	reward float64
}

type layout struct {
	width, height int
	// cells[x][y], y = 0 is the bottom row
	cells  [][]cell
	startX int
	startY int
}

func parseLayout(text string) (*layout, error) {
	rows := make([][]string, 0)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, fields)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty layout")
	}

	width := len(rows[0])
	height := len(rows)
	l := &layout{width: width, height: height, startX: -1, startY: -1}
	l.cells = make([][]cell, width)
	for x := range l.cells {
		l.cells[x] = make([]cell, height)
	}

	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", r, len(row), width)
		}
		y := height - 1 - r
		for x, tok := range row {
			switch tok {
			case ".":
			case "#":
				l.cells[x][y] = cell{kind: wallCell}
			case "S":
				if l.startX >= 0 {
					return nil, fmt.Errorf("multiple start cells")
				}
				l.startX, l.startY = x, y
			default:
				reward, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid cell %q at row %d: %w", tok, r, err)
				}
				l.cells[x][y] = cell{kind: exitCell, reward: reward}
			}
		}
	}
	if l.startX < 0 {
		return nil, fmt.Errorf("layout has no start cell")
	}
	return l, nil
}
