package game

import "math/rand"

// maxLayoutRolls bounds how often obstacle placement is re-rolled to get a
// grid with at least one route from start to end.
const maxLayoutRolls = 32

// PathPuzzle is a GridRows x GridCols grid. The player extends a path one
// orthogonal step at a time from the start cell in column 0 to the end cell
// in the last column.
type PathPuzzle struct {
	rng      *rand.Rand
	complete func(Verdict)

	obstacles map[Cell]bool
	visited   map[Cell]bool
	start     Cell
	end       Cell
	path      []Cell
	accepting bool
}

// NewPathPuzzle wires a pathfinding variant to its completion sink.
func NewPathPuzzle(rng *rand.Rand, complete func(Verdict)) *PathPuzzle {
	return &PathPuzzle{rng: rng, complete: complete}
}

func (p *PathPuzzle) Type() PuzzleType { return PuzzlePathfinding }

// Activate lays out a new grid. The grid size is fixed so length is unused.
func (p *PathPuzzle) Activate(length int) {
	p.Reset()

	p.start = Cell{R: p.rng.Intn(GridRows), C: 0}
	p.end = Cell{R: p.rng.Intn(GridRows), C: GridCols - 1}
	for p.end.R == p.start.R {
		p.end.R = p.rng.Intn(GridRows)
	}

	for roll := 0; roll < maxLayoutRolls; roll++ {
		p.placeObstacles()
		if route(p.start, p.end, p.obstacles, nil) != nil {
			break
		}
	}
	if route(p.start, p.end, p.obstacles, nil) == nil {
		p.obstacles = map[Cell]bool{}
	}

	p.path = []Cell{p.start}
	p.visited = map[Cell]bool{p.start: true}
	p.accepting = true
}

// placeObstacles makes GridObstacleAttempts drops into the interior columns;
// drops landing on an occupied cell are skipped.
func (p *PathPuzzle) placeObstacles() {
	p.obstacles = make(map[Cell]bool, GridObstacleAttempts)
	for i := 0; i < GridObstacleAttempts; i++ {
		c := Cell{R: p.rng.Intn(GridRows), C: p.rng.Intn(GridCols-2) + 1}
		if c == p.start || c == p.end || p.obstacles[c] {
			continue
		}
		p.obstacles[c] = true
	}
}

// Step extends the path to c. The cell must be on the grid, free, unvisited
// and orthogonally adjacent to the path head. Reaching the end cell resolves
// the puzzle as solved.
func (p *PathPuzzle) Step(c Cell) error {
	if !p.accepting {
		return ErrNoActivePuzzle
	}
	if !inGrid(c) || p.obstacles[c] || p.visited[c] {
		return ErrInputRejected
	}
	if !adjacent(p.path[len(p.path)-1], c) {
		return ErrInputRejected
	}
	p.path = append(p.path, c)
	p.visited[c] = true
	if c == p.end {
		p.accepting = false
		p.complete(Verdict{Correct: true, Type: PuzzlePathfinding})
	}
	return nil
}

// Solution returns a shortest route from the path head to the end cell that
// avoids obstacles and visited cells, excluding the head itself. It returns
// nil when the end is unreachable.
func (p *PathPuzzle) Solution() []Cell {
	if !p.accepting {
		return nil
	}
	head := p.path[len(p.path)-1]
	r := route(head, p.end, p.obstacles, p.visited)
	if len(r) == 0 {
		return nil
	}
	return r[1:]
}

// Reset implements Puzzle.
func (p *PathPuzzle) Reset() {
	p.obstacles = nil
	p.visited = nil
	p.path = nil
	p.accepting = false
}

// Accepting implements Puzzle.
func (p *PathPuzzle) Accepting() bool { return p.accepting }

// View implements Puzzle.
func (p *PathPuzzle) View() PuzzleView {
	v := PuzzleView{
		Type: PuzzlePathfinding,
		Rows: GridRows,
		Cols: GridCols,
		Path: append([]Cell(nil), p.path...),
	}
	if p.path == nil {
		return v
	}
	start, end := p.start, p.end
	v.Start, v.End = &start, &end
	for r := 0; r < GridRows; r++ {
		for c := 0; c < GridCols; c++ {
			if cell := (Cell{R: r, C: c}); p.obstacles[cell] {
				v.Obstacles = append(v.Obstacles, cell)
			}
		}
	}
	return v
}

func inGrid(c Cell) bool {
	return c.R >= 0 && c.R < GridRows && c.C >= 0 && c.C < GridCols
}

func adjacent(a, b Cell) bool {
	dr, dc := a.R-b.R, a.C-b.C
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}

// route is a breadth-first search from -> to over free cells. The returned
// slice includes both endpoints.
func route(from, to Cell, blocked, visited map[Cell]bool) []Cell {
	prev := map[Cell]Cell{}
	seen := map[Cell]bool{from: true}
	queue := []Cell{from}
	dirs := [4]Cell{{R: -1}, {R: 1}, {C: -1}, {C: 1}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			var out []Cell
			for c := to; c != from; c = prev[c] {
				out = append(out, c)
			}
			out = append(out, from)
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
			return out
		}
		for _, d := range dirs {
			next := Cell{R: cur.R + d.R, C: cur.C + d.C}
			if !inGrid(next) || seen[next] || blocked[next] || visited[next] {
				continue
			}
			seen[next] = true
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}
