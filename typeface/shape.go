package typeface

import (
	"time"

	"github.com/effective-security/xlog"
	"github.com/sigil-dev/sigil/metricskey"
)

// missingGlyphFallback is consulted when a character has no glyph in
// the font data. When the fallback itself is absent the character is
// skipped and half the resolution is used as its advance.
const missingGlyphFallback = "?"

// Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// SegmentOp identifies a path segment kind.
type SegmentOp byte

// Path segment kinds.
const (
	SegMoveTo SegmentOp = iota
	SegLineTo
	SegQuadraticCurveTo
	SegBezierCurveTo
)

// Segment is one drawing operation of a path. Args holds the control
// points followed by the end point.
type Segment struct {
	Op   SegmentOp
	Args []Point
}

// Path is a contiguous vector outline.
type Path struct {
	Segments []Segment
}

// MoveTo starts the path at a point.
func (p *Path) MoveTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegMoveTo, Args: []Point{{x, y}}})
}

// LineTo appends a straight segment.
func (p *Path) LineTo(x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegLineTo, Args: []Point{{x, y}}})
}

// QuadraticCurveTo appends a quadratic curve segment.
func (p *Path) QuadraticCurveTo(cx, cy, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegQuadraticCurveTo, Args: []Point{{cx, cy}, {x, y}}})
}

// BezierCurveTo appends a cubic curve segment.
func (p *Path) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.Segments = append(p.Segments, Segment{Op: SegBezierCurveTo, Args: []Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Points flattens the path into a polyline, sampling each curve
// segment at the given number of divisions.
func (p *Path) Points(divisions int) []Point {
	if divisions < 1 {
		divisions = 12
	}

	var pts []Point
	var last Point
	for _, seg := range p.Segments {
		switch seg.Op {
		case SegMoveTo, SegLineTo:
			last = seg.Args[0]
			pts = append(pts, last)
		case SegQuadraticCurveTo:
			c, end := seg.Args[0], seg.Args[1]
			for d := 1; d <= divisions; d++ {
				t := float64(d) / float64(divisions)
				pts = append(pts, quadraticPoint(last, c, end, t))
			}
			last = end
		case SegBezierCurveTo:
			c1, c2, end := seg.Args[0], seg.Args[1], seg.Args[2]
			for d := 1; d <= divisions; d++ {
				t := float64(d) / float64(divisions)
				pts = append(pts, cubicPoint(last, c1, c2, end, t))
			}
			last = end
		}
	}
	return pts
}

func quadraticPoint(p0, c, p1 Point, t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*p0.X + 2*u*t*c.X + t*t*p1.X,
		Y: u*u*p0.Y + 2*u*t*c.Y + t*t*p1.Y,
	}
}

func cubicPoint(p0, c1, c2, p1 Point, t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*p1.X,
		Y: u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*p1.Y,
	}
}

// Shape is the vector outline of one character, positioned by the
// cumulative glyph advance.
type Shape struct {
	// Rune is the character the shape was generated for.
	Rune rune
	// Offset is the horizontal position of the glyph origin.
	Offset float64
	// Paths are the outline subpaths, one per "m" command.
	Paths []*Path
}

// GenerateShapes produces one shape per character of text, in order,
// scaled to the requested size. Characters without a glyph fall back
// to the "?" glyph when the font has one, and are skipped otherwise.
func (f *Font) GenerateShapes(text string, size float64) []Shape {
	defer metricskey.PerfFontOperation.MeasureSince(time.Now(), f.data.FamilyName, "shapes")

	scale := size / f.data.Resolution
	offset := 0.0

	var shapes []Shape
	var warned map[rune]bool
	for _, r := range text {
		g := f.data.Glyphs[string(r)]
		if g == nil {
			g = f.data.Glyphs[missingGlyphFallback]
		}
		if g == nil {
			if !warned[r] {
				logger.KV(xlog.WARNING, "reason", "missing glyph", "family", f.data.FamilyName, "rune", string(r))
				if warned == nil {
					warned = map[rune]bool{}
				}
				warned[r] = true
			}
			offset += f.data.Resolution / 2 * scale
			continue
		}

		shapes = append(shapes, buildShape(r, g, scale, offset))
		offset += g.HA * scale
	}
	return shapes
}

// buildShape scales the glyph outline and translates it to the offset.
func buildShape(r rune, g *Glyph, scale, offset float64) Shape {
	shape := Shape{Rune: r, Offset: offset}

	var path *Path
	for _, cmd := range g.commands {
		tx := func(i int) float64 { return cmd.args[i]*scale + offset }
		ty := func(i int) float64 { return cmd.args[i] * scale }

		switch cmd.op {
		case opMove:
			path = &Path{}
			shape.Paths = append(shape.Paths, path)
			path.MoveTo(tx(0), ty(1))
		case opLine:
			if path == nil {
				continue
			}
			path.LineTo(tx(0), ty(1))
		case opQuad:
			if path == nil {
				continue
			}
			path.QuadraticCurveTo(tx(0), ty(1), tx(2), ty(3))
		case opCubic:
			if path == nil {
				continue
			}
			path.BezierCurveTo(tx(0), ty(1), tx(2), ty(3), tx(4), ty(5))
		case opClose:
			path = nil
		}
	}
	return shape
}
