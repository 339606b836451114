package poetcar

import (
	"errors"
	"image/color"
	"testing"

	"github.com/ByteArena/box2d"
)

func newTestCourse(seed uint64) (*course, *box2d.B2World) {
	world := box2d.MakeB2World(box2d.B2Vec2{X: XGravity, Y: YGravity})
	return newCourse(&world, seed), &world
}

func TestPlaceUnsupportedKind(t *testing.T) {
	c, _ := newTestCourse(1)

	err := c.place(ObstacleParams{
		Kind:   ObstacleKind(42),
		BaseX:  5,
		BaseY:  1,
		Width:  1,
		Height: 1,
		Colour: color.Black,
	})
	if !errors.Is(err, ErrUnsupportedObstacleKind) {
		t.Errorf("expected ErrUnsupportedObstacleKind, got %v", err)
	}
	if len(c.obstacles) != 0 {
		t.Errorf("an unsupported obstacle should never be appended")
	}
}

func TestPlaceHoleClampsWidth(t *testing.T) {
	c, _ := newTestCourse(1)

	err := c.place(ObstacleParams{
		Kind:   Hole,
		BaseX:  10,
		BaseY:  1,
		Width:  5,
		Height: 2,
		Colour: color.Black,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	placed := c.last().params
	if placed.Width != MaxHoleWidth {
		t.Errorf("hole width should be clamped to %v, got %v", MaxHoleWidth,
			placed.Width)
	}
	if placed.Height != 1 {
		t.Errorf("hole height should be normalized to 1, got %v",
			placed.Height)
	}
	if c.last().body != nil {
		t.Error("holes should own no physics body")
	}
}

func TestPlaceOverlappingHoleDropped(t *testing.T) {
	c, _ := newTestCourse(1)

	err := c.place(ObstacleParams{
		Kind: Bump, BaseX: 5, BaseY: 1, Width: 2, Height: 1,
		Colour: color.Black,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// The hole's x-interval [6, 7] intersects the bump's [5, 7]
	err = c.place(ObstacleParams{
		Kind: Hole, BaseX: 6, BaseY: 1, Width: 1, Height: 1,
		Colour: color.Black,
	})
	if err != nil {
		t.Fatalf("an overlapping hole is a no-op, not an error: %v", err)
	}
	if len(c.obstacles) != 1 {
		t.Errorf("overlapping hole should be dropped, course has %v "+
			"obstacles", len(c.obstacles))
	}
}

func TestExtendNeverOverlaps(t *testing.T) {
	c, _ := newTestCourse(14)

	err := c.place(ObstacleParams{
		Kind: Ramp, BaseX: 0, BaseY: 1, Width: 2, Height: 1,
		Colour: color.Black,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	for i := 0; i < 500; i++ {
		c.extend()
	}

	for i := 1; i < len(c.obstacles); i++ {
		prev := c.obstacles[i-1].params
		cur := c.obstacles[i].params
		if cur.Left() < prev.Right() {
			t.Fatalf("obstacles %v and %v overlap: [%v, %v] and [%v, %v]",
				i-1, i, prev.Left(), prev.Right(), cur.Left(), cur.Right())
		}
	}
}

func TestShouldExtend(t *testing.T) {
	c, _ := newTestCourse(1)

	if c.shouldExtend(100) {
		t.Error("an empty course should never extend")
	}

	err := c.place(ObstacleParams{
		Kind: Bump, BaseX: 30, BaseY: 1, Width: 2, Height: 1,
		Colour: color.Black,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// Trailing edge is 32, so generation triggers past x = 12
	if c.shouldExtend(11) {
		t.Error("car at 11 is not within trigger distance of 32")
	}
	if !c.shouldExtend(13) {
		t.Error("car at 13 is within trigger distance of 32")
	}
}

func TestLayGroundPerforation(t *testing.T) {
	c, _ := newTestCourse(1)

	holes := []ObstacleParams{
		{Kind: Hole, BaseX: 5, BaseY: 1, Width: 2, Height: 1, Colour: color.Black},
		{Kind: Hole, BaseX: 20, BaseY: 1, Width: 1, Height: 1, Colour: color.Black},
	}
	for _, h := range holes {
		if err := c.place(h); err != nil {
			t.Fatalf("place: %v", err)
		}
	}

	c.layGround(50)

	// Segment midpoints 5.5 and 6.5 fall in the first hole, 20.5 in
	// the second
	want := 50 - 3
	if len(c.ground) != want {
		t.Errorf("expected %v ground segments, got %v", want, len(c.ground))
	}

	for _, segment := range c.ground {
		mid := segment.GetPosition().X
		for _, h := range c.holeIntervals() {
			if h.Min <= mid && mid <= h.Max {
				t.Errorf("ground segment at %v lies inside hole [%v, %v]",
					mid, h.Min, h.Max)
			}
		}
	}
}
