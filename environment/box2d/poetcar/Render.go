package poetcar

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"path/filepath"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
)

// Renderer draws car environments to PNG frames. A Renderer holds the
// process-wide drawing state (loaded textures and viewport size); it is
// created once, explicitly, and injected into Render calls rather than
// being constructed implicitly by the environment. A single Renderer
// may be shared by any number of environments since it is not mutated
// after construction. There is nothing to tear down: dropping the last
// reference releases its resources.
type Renderer struct {
	width, height int

	wheel      image.Image
	background color.Color
	ground     color.Color
	chassis    color.Color
}

// NewRenderer creates a Renderer, loading the wheel texture from
// texturesDir. A missing or unreadable texture is logged and replaced
// with a generated placeholder; it never fails the construction.
func NewRenderer(texturesDir string) *Renderer {
	r := &Renderer{
		width:      int(ScreenW),
		height:     int(ScreenH),
		background: color.White,
		ground:     color.RGBA{G: 255, A: 255},
		chassis:    color.Black,
	}

	wheel, err := gg.LoadPNG(filepath.Join(texturesDir, "wheel.png"))
	if err != nil {
		log.Printf("render: could not load wheel texture: %v", err)
		wheel = placeholderWheel()
	}
	r.wheel = wheel

	return r
}

// placeholderWheel generates a plain grey disc to stand in for a
// missing wheel texture
func placeholderWheel() image.Image {
	size := int(WheelRadius * 2 * PPM)
	dc := gg.NewContext(size, size)
	dc.SetColor(color.RGBA{R: 100, G: 100, B: 100, A: 255})
	dc.DrawCircle(float64(size)/2, float64(size)/2, WheelRadius*PPM)
	dc.Fill()
	return dc.Image()
}

// Render draws the current state of the environment, offset by its
// camera, and saves it as frame number j
func (p *poetCar) Render(r *Renderer, j int) error {
	dc := gg.NewContext(r.width, r.height)
	dc.SetColor(r.background)
	dc.Clear()

	for _, segment := range p.course.ground {
		r.drawPolygons(dc, segment, r.ground, p.cameraX, p.cameraY)
	}

	for _, o := range p.course.obstacles {
		if o.body == nil {
			// Holes are an absence of geometry
			continue
		}
		r.drawPolygons(dc, o.body, o.params.Colour, p.cameraX, p.cameraY)
	}

	r.drawPolygons(dc, p.car.chassis, r.chassis, p.cameraX, p.cameraY)
	r.drawWheel(dc, p.car.wheelFront, p.cameraX, p.cameraY)
	r.drawWheel(dc, p.car.wheelRear, p.cameraX, p.cameraY)

	return dc.SavePNG(fmt.Sprintf("./PoetCar%v.png", j))
}

// drawPolygons draws every polygon fixture of body in the given colour
func (r *Renderer) drawPolygons(dc *gg.Context, body *box2d.B2Body,
	colour color.Color, camX, camY float64) {
	for fix := body.GetFixtureList(); fix != nil; fix = fix.M_next {
		shape, ok := fix.M_shape.(*box2d.B2PolygonShape)
		if !ok {
			continue
		}

		dc.ClearPath()
		for i := 0; i < shape.M_count; i++ {
			vertex := box2d.B2TransformVec2Mul(body.M_xf, shape.M_vertices[i])
			px, py := r.toPixel(vertex, camX, camY)
			dc.LineTo(px, py)
		}
		dc.ClosePath()
		dc.SetColor(colour)
		dc.Fill()
	}
}

// drawWheel draws the wheel texture rotated to the wheel body's angle
func (r *Renderer) drawWheel(dc *gg.Context, wheel *box2d.B2Body,
	camX, camY float64) {
	px, py := r.toPixel(wheel.GetPosition(), camX, camY)

	dc.Push()
	dc.RotateAbout(-wheel.GetAngle(), px, py)
	dc.DrawImageAnchored(r.wheel, int(px), int(py), 0.5, 0.5)
	dc.Pop()
}

// toPixel converts a world coordinate to a camera-relative screen
// coordinate, with y growing downward
func (r *Renderer) toPixel(v box2d.B2Vec2, camX, camY float64) (float64,
	float64) {
	return v.X*PPM - camX, float64(r.height) - v.Y*PPM + camY
}
