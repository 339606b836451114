package poetcar

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MaxHoleWidth is the widest a hole may be. Wider holes are
	// clamped at placement time.
	MaxHoleWidth float64 = 3.0

	// ExtendTrigger is the distance between the car and the trailing
	// edge of the last obstacle at which a new obstacle is generated
	ExtendTrigger float64 = 20.0

	// Ground segmentation
	GroundSegmentLength float64 = 1.0
	GroundHalfHeight    float64 = 1.0
)

// Size and spacing ranges for procedurally generated obstacles
var (
	obstacleGap = r1.Interval{Min: 5.0, Max: 10.0}

	rampWidth  = r1.Interval{Min: 2.0, Max: 10.0}
	rampHeight = r1.Interval{Min: 2.0, Max: 5.0}

	holeWidth  = r1.Interval{Min: 0.5, Max: 1.5}
	holeHeight = 0.5

	bumpWidth  = r1.Interval{Min: 1.0, Max: 4.0}
	bumpHeight = r1.Interval{Min: 0.5, Max: 1.5}
)

// ErrUnsupportedObstacleKind is returned when an obstacle with an
// unrecognized kind is placed. This is a contract violation and is
// never recovered from.
var ErrUnsupportedObstacleKind = errors.New("unsupported obstacle kind")

// ObstacleKind enumerates the kinds of obstacles a course can contain
type ObstacleKind int

const (
	Ramp ObstacleKind = iota // triangular wedge rising left to right
	Hole                     // declared absence of ground, owns no body
	Bump                     // triangular mound
)

func (k ObstacleKind) String() string {
	switch k {
	case Ramp:
		return "Ramp"
	case Hole:
		return "Hole"
	case Bump:
		return "Bump"
	default:
		return fmt.Sprintf("ObstacleKind(%d)", int(k))
	}
}

// ObstacleParams describes a single obstacle: its kind, the world
// position of its base, its extent, and the colour it is drawn with
type ObstacleParams struct {
	Kind          ObstacleKind
	BaseX, BaseY  float64
	Width, Height float64
	Colour        color.Color
}

// Left returns the left edge of the obstacle's x-interval
func (p ObstacleParams) Left() float64 {
	return p.BaseX
}

// Right returns the right edge of the obstacle's x-interval
func (p ObstacleParams) Right() float64 {
	return p.BaseX + p.Width
}

// obstacle couples the parameters of a placed obstacle with the static
// body realizing it. Holes own no body.
type obstacle struct {
	params ObstacleParams
	body   *box2d.B2Body
}

// course is an append-only, spatially ordered sequence of obstacles
// together with the perforated ground they sit on. Obstacles are
// appended strictly to the right of all previous obstacles, so
// insertion order is spatial order. Hole placement enforces the
// invariant that no two obstacles' x-intervals overlap; a hole that
// would overlap is silently dropped.
//
// All randomness used for procedural extension comes from the course's
// own seeded source, so two courses built with the same seed and the
// same placements are identical.
type course struct {
	world     *box2d.B2World
	obstacles []obstacle
	ground    []*box2d.B2Body
	rng       distuv.Uniform // unit-interval source for all sampling
}

// newCourse creates an empty course generating into world, drawing all
// randomness from seed
func newCourse(world *box2d.B2World, seed uint64) *course {
	return &course{
		world: world,
		rng:   distuv.Uniform{Min: 0.0, Max: 1.0, Src: rand.NewSource(seed)},
	}
}

// uniform samples uniformly from bounds
func (c *course) uniform(bounds r1.Interval) float64 {
	return bounds.Min + c.rng.Rand()*(bounds.Max-bounds.Min)
}

// place constructs the geometry for the obstacle described by p and
// appends it to the sequence. Ramps and bumps are always placed. Holes
// have their width clamped to MaxHoleWidth and height normalized to 1,
// and are dropped without error if their x-interval intersects any
// already placed obstacle's. An unrecognized kind returns
// ErrUnsupportedObstacleKind.
func (c *course) place(p ObstacleParams) error {
	switch p.Kind {
	case Ramp:
		vertices := []box2d.B2Vec2{
			{X: 0, Y: 0},
			{X: p.Width, Y: 0},
			{X: p.Width, Y: p.Height},
		}
		body := c.staticPolygon(p.BaseX, p.BaseY, vertices)
		c.obstacles = append(c.obstacles, obstacle{p, body})

	case Hole:
		p.Width = math.Min(p.Width, MaxHoleWidth)
		p.Height = 1
		if c.overlaps(p.BaseX, p.Width) {
			return nil
		}
		c.obstacles = append(c.obstacles, obstacle{p, nil})

	case Bump:
		vertices := []box2d.B2Vec2{
			{X: 0, Y: 0},
			{X: p.Width, Y: 0},
			{X: p.Width / 2, Y: p.Height},
		}
		body := c.staticPolygon(p.BaseX, p.BaseY, vertices)
		c.obstacles = append(c.obstacles, obstacle{p, body})

	default:
		return fmt.Errorf("place: %w: %v", ErrUnsupportedObstacleKind, p.Kind)
	}
	return nil
}

// overlaps reports whether the x-interval [x, x+width] intersects any
// placed obstacle's x-interval. Only obstacles placed so far are
// considered; obstacles generated later in the same tick are not.
func (c *course) overlaps(x, width float64) bool {
	for _, o := range c.obstacles {
		if x < o.params.Right() && o.params.Left() < x+width {
			return true
		}
	}
	return false
}

// staticPolygon creates a static body at (x, y) with a single polygon
// fixture made from vertices given relative to (x, y)
func (c *course) staticPolygon(x, y float64,
	vertices []box2d.B2Vec2) *box2d.B2Body {
	def := box2d.NewB2BodyDef()
	def.Type = 0 // Static body
	def.Position.Set(x, y)
	body := c.world.CreateBody(def)

	shape := box2d.NewB2PolygonShape()
	shape.Set(vertices, len(vertices))

	fix := box2d.MakeB2FixtureDef()
	fix.Shape = shape
	body.CreateFixtureFromDef(&fix)

	return body
}

// layGround partitions [0, length] into unit segments and creates a
// static ground body for every segment whose midpoint falls inside no
// hole's x-interval, producing ground perforated exactly at the
// declared holes.
func (c *course) layGround(length float64) {
	holes := c.holeIntervals()

	for i := 0; i < int(length/GroundSegmentLength); i++ {
		mid := (float64(i) + 0.5) * GroundSegmentLength

		inHole := false
		for _, h := range holes {
			if h.Min <= mid && mid <= h.Max {
				inHole = true
				break
			}
		}
		if inHole {
			continue
		}

		def := box2d.NewB2BodyDef()
		def.Type = 0 // Static body
		def.Position.Set(mid, 0)
		segment := c.world.CreateBody(def)

		shape := box2d.NewB2PolygonShape()
		shape.SetAsBox(GroundSegmentLength/2, GroundHalfHeight)

		fix := box2d.MakeB2FixtureDef()
		fix.Shape = shape
		segment.CreateFixtureFromDef(&fix)

		c.ground = append(c.ground, segment)
	}
}

// holeIntervals returns the x-intervals of all placed holes
func (c *course) holeIntervals() []r1.Interval {
	var holes []r1.Interval
	for _, o := range c.obstacles {
		if o.params.Kind == Hole {
			holes = append(holes, r1.Interval{
				Min: o.params.Left(),
				Max: o.params.Right(),
			})
		}
	}
	return holes
}

// last returns the most recently placed obstacle. It panics if the
// course is empty.
func (c *course) last() obstacle {
	return c.obstacles[len(c.obstacles)-1]
}

// shouldExtend reports whether a new obstacle should be generated given
// the car's x position. Generation triggers once the car is within
// ExtendTrigger of the trailing edge of the last obstacle. An empty
// course is never extended.
func (c *course) shouldExtend(carX float64) bool {
	if len(c.obstacles) == 0 {
		return false
	}
	return carX > c.last().params.Right()-ExtendTrigger
}

// extend generates one new obstacle beyond the current trailing edge.
// The kind is sampled uniformly, the size from a kind-specific range,
// and the position a uniform gap past the last obstacle's right edge.
// A sampled hole that would overlap an existing obstacle is skipped
// outright; there is no retry, so an extension opportunity may produce
// nothing.
func (c *course) extend() {
	x := c.last().params.Right() + c.uniform(obstacleGap)

	kinds := []ObstacleKind{Ramp, Hole, Bump}
	kind := kinds[int(c.rng.Rand()*float64(len(kinds)))%len(kinds)]

	var width, height float64
	switch kind {
	case Ramp:
		width = c.uniform(rampWidth)
		height = c.uniform(rampHeight)
	case Hole:
		width = c.uniform(holeWidth)
		height = holeHeight
		if c.overlaps(x, width) {
			return
		}
	case Bump:
		width = c.uniform(bumpWidth)
		height = c.uniform(bumpHeight)
	}

	err := c.place(ObstacleParams{
		Kind:   kind,
		BaseX:  x,
		BaseY:  1,
		Width:  width,
		Height: height,
		Colour: color.Black,
	})
	if err != nil {
		// All sampled kinds are valid, so place can never fail here
		panic(fmt.Sprintf("extend: %v", err))
	}
}

// params returns a copy of the parameters of every placed obstacle in
// spatial order
func (c *course) params() []ObstacleParams {
	out := make([]ObstacleParams, len(c.obstacles))
	for i, o := range c.obstacles {
		out[i] = o.params
	}
	return out
}
