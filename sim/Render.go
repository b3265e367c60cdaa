package sim

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
)

var (
	floorShade    = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	wallColour    = color.RGBA{R: 255, G: 166, B: 0, A: 255}
	obstacleShade = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	markerColour  = color.RGBA{R: 76, G: 200, B: 90, A: 255}
	robotColour   = color.RGBA{R: 128, G: 102, B: 230, A: 255}
	beamColour    = color.RGBA{R: 255, G: 76, B: 76, A: 90}
)

// worldToPixel converts a world coordinate to a pixel coordinate of an
// image of the arena scaled by scale pixels per metre
func (a *Arena) worldToPixel(v box2d.B2Vec2, scale float64) (float64,
	float64) {
	h := a.config.HalfExtent
	return (v.X + h) * scale, (h - v.Y) * scale
}

// Render draws the arena from above at scale pixels per metre. When
// beams is true the range sensor rays are drawn up to their hits.
func (a *Arena) Render(scale float64, beams bool) (image.Image, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("render: scale should be positive"+
			"\n\twant(>0)\n\thave(%v)", scale)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	size := int(math.Ceil(2 * a.config.HalfExtent * scale))
	dc := gg.NewContext(size, size)
	dc.SetColor(floorShade)
	dc.Clear()

	// Obstacles
	for _, body := range a.obstacles {
		a.drawPolygons(dc, body, scale)
	}
	dc.SetColor(obstacleShade)
	dc.Fill()

	// Walls
	dc.SetColor(wallColour)
	dc.SetLineWidth(5.0)
	for _, wall := range a.walls {
		sh := wall.GetFixtureList().M_shape.(*box2d.B2EdgeShape)
		x1, y1 := a.worldToPixel(sh.M_vertex1, scale)
		x2, y2 := a.worldToPixel(sh.M_vertex2, scale)
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.Stroke()

	// Markers
	for _, body := range a.entities {
		if body == a.robot {
			continue
		}
		x, y := a.worldToPixel(body.GetPosition(), scale)
		dc.DrawCircle(x, y, a.config.GoalRadius*scale)
	}
	dc.SetColor(markerColour)
	dc.Fill()

	if a.robot == nil {
		return dc.Image(), nil
	}

	pos := a.robot.GetPosition()
	heading := a.robot.GetAngle()
	cx, cy := a.worldToPixel(pos, scale)

	if beams {
		increment := 2 * math.Pi / float64(a.config.Beams)
		dc.SetColor(beamColour)
		dc.SetLineWidth(1.0)
		for i, r := range a.scanLocked() {
			if math.IsInf(r, 1) {
				r = a.config.MaxRange
			}
			angle := heading + float64(i)*increment
			hit := box2d.MakeB2Vec2(pos.X+r*math.Cos(angle),
				pos.Y+r*math.Sin(angle))
			x, y := a.worldToPixel(hit, scale)
			dc.DrawLine(cx, cy, x, y)
		}
		dc.Stroke()
	}

	// Robot and its heading
	dc.DrawCircle(cx, cy, a.config.RobotRadius*scale)
	dc.SetColor(robotColour)
	dc.Fill()

	nose := box2d.MakeB2Vec2(pos.X+a.config.RobotRadius*math.Cos(heading),
		pos.Y+a.config.RobotRadius*math.Sin(heading))
	nx, ny := a.worldToPixel(nose, scale)
	dc.SetColor(color.White)
	dc.SetLineWidth(2.0)
	dc.DrawLine(cx, cy, nx, ny)
	dc.Stroke()

	return dc.Image(), nil
}

// drawPolygons adds the polygon fixtures of body to the current path
func (a *Arena) drawPolygons(dc *gg.Context, body *box2d.B2Body,
	scale float64) {
	for fix := body.GetFixtureList(); fix != nil; fix = fix.M_next {
		shape, ok := fix.M_shape.(*box2d.B2PolygonShape)
		if !ok {
			continue
		}

		dc.NewSubPath()
		for i := 0; i < shape.M_count; i++ {
			vertex := box2d.B2TransformVec2Mul(body.M_xf, shape.M_vertices[i])
			x, y := a.worldToPixel(vertex, scale)
			dc.LineTo(x, y)
		}
		dc.ClosePath()
	}
}

// SavePNG renders the arena and saves it as a PNG file
func (a *Arena) SavePNG(path string, scale float64, beams bool) error {
	img, err := a.Render(scale, beams)
	if err != nil {
		return fmt.Errorf("savePNG: %w", err)
	}
	return gg.SavePNG(path, img)
}

// EncodePNG renders the arena and writes it to w as a PNG
func (a *Arena) EncodePNG(w io.Writer, scale float64, beams bool) error {
	img, err := a.Render(scale, beams)
	if err != nil {
		return fmt.Errorf("encodePNG: %w", err)
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}
