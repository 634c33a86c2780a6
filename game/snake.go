// Package game implements the loading-screen snake diversion. It is a pure
// state machine: the caller owns the clock and calls Advance once per tick at
// the interval reported by TickInterval. Nothing else in the gateway imports
// this package's types; it is wired only at the presentation edge.
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/medlinkr/medlinkr-api/interfaces"
)

// Compile-time check to ensure Snake implements Diversion
var _ interfaces.Diversion = (*Snake)(nil)

const (
	GridSize = 20

	initialTick = 150 * time.Millisecond
	minTick     = 50 * time.Millisecond
	tickStep    = 5 * time.Millisecond
)

// Direction is a unit step on the grid.
type Direction struct {
	DX, DY int
}

var (
	Up    = Direction{0, -1}
	Down  = Direction{0, 1}
	Left  = Direction{-1, 0}
	Right = Direction{1, 0}
)

// Point is a cell on the grid.
type Point struct {
	X, Y int
}

// Snake holds the full game state. All methods are safe for concurrent use.
type Snake struct {
	mu        sync.Mutex
	body      []Point // body[0] is the head
	direction Direction
	pending   []Direction // queued turns, applied one per tick
	food      Point
	tick      time.Duration
	score     int
	highScore int
	over      bool
	rng       *rand.Rand
}

// NewSnake creates a fresh game.
func NewSnake() *Snake {
	s := &Snake{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	s.reset()
	return s
}

// Reset starts a new game, keeping the high score.
func (s *Snake) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Snake) reset() {
	mid := GridSize / 2
	s.body = []Point{{mid, mid}, {mid - 1, mid}, {mid - 2, mid}}
	s.direction = Right
	s.pending = nil
	s.tick = initialTick
	s.score = 0
	s.over = false
	s.placeFood()
}

// Turn queues a direction change. Reversals onto the snake's own neck are
// ignored, as are turns queued after the game is over.
func (s *Snake) Turn(d Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.over {
		return
	}

	last := s.direction
	if len(s.pending) > 0 {
		last = s.pending[len(s.pending)-1]
	}
	if d.DX == -last.DX && d.DY == -last.DY {
		return
	}
	s.pending = append(s.pending, d)
}

// Advance moves the snake one cell. It returns false once the game is over:
// the snake left the grid or ran into itself.
func (s *Snake) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.over {
		return false
	}

	if len(s.pending) > 0 {
		s.direction = s.pending[0]
		s.pending = s.pending[1:]
	}

	head := s.body[0]
	next := Point{head.X + s.direction.DX, head.Y + s.direction.DY}

	if next.X < 0 || next.X >= GridSize || next.Y < 0 || next.Y >= GridSize {
		s.end()
		return false
	}
	for _, p := range s.body[:len(s.body)-1] {
		// The tail cell is excluded: it moves away this same tick
		if p == next {
			s.end()
			return false
		}
	}

	s.body = append([]Point{next}, s.body...)

	if next == s.food {
		s.score++
		if s.tick > minTick {
			s.tick -= tickStep
		}
		s.placeFood()
	} else {
		s.body = s.body[:len(s.body)-1]
	}

	return true
}

func (s *Snake) end() {
	s.over = true
	if s.score > s.highScore {
		s.highScore = s.score
	}
}

// placeFood picks a random free cell. Caller holds the lock.
func (s *Snake) placeFood() {
	occupied := make(map[Point]bool, len(s.body))
	for _, p := range s.body {
		occupied[p] = true
	}

	free := make([]Point, 0, GridSize*GridSize-len(s.body))
	for x := 0; x < GridSize; x++ {
		for y := 0; y < GridSize; y++ {
			if p := (Point{x, y}); !occupied[p] {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		// The snake fills the board; nothing left to eat
		s.end()
		return
	}
	s.food = free[s.rng.Intn(len(free))]
}

// Score returns the current score.
func (s *Snake) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// HighScore returns the best score across resets.
func (s *Snake) HighScore() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highScore
}

// TickInterval returns how long the caller should wait before the next
// Advance. It shrinks as the snake eats, down to a floor.
func (s *Snake) TickInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Over reports whether the game has ended.
func (s *Snake) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over
}

// Body returns a copy of the snake cells, head first.
func (s *Snake) Body() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Point(nil), s.body...)
}

// Food returns the current food cell.
func (s *Snake) Food() Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.food
}
