// internal/scene/pathdata.go
package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xkilldash9x/ghost/internal/geometry"
)

// curveSteps is how many segments each Bezier or arc is flattened into.
const curveSteps = 16

// FlattenPath converts an SVG path description into polylines in the path's
// own coordinate space, one per subpath. Curves and arcs are sampled.
func FlattenPath(d string) ([][]geometry.Point, error) {
	toks, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}
	p := &pathFlattener{toks: toks}
	if err := p.run(); err != nil {
		return nil, err
	}
	p.flush()
	if len(p.out) == 0 {
		return nil, fmt.Errorf("%w: path has no drawable segments", ErrMalformedContent)
	}
	return p.out, nil
}

// PathBounds returns the bounding box of a path description.
func PathBounds(d string) (geometry.Rect, error) {
	polys, err := FlattenPath(d)
	if err != nil {
		return geometry.Rect{}, err
	}
	return boundsOf(polys...), nil
}

func boundsOf(polys ...[]geometry.Point) geometry.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range polys {
		for _, pt := range poly {
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return geometry.Rect{}
	}
	return geometry.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

type pathToken struct {
	cmd byte
	num float64
}

func tokenizePath(d string) ([]pathToken, error) {
	var toks []pathToken
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0:
			toks = append(toks, pathToken{cmd: c})
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := scanNumber(d, i)
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q in path", ErrMalformedContent, d[i:j])
			}
			toks = append(toks, pathToken{num: v})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q in path", ErrMalformedContent, c)
		}
	}
	return toks, nil
}

// scanNumber returns the end of the number starting at i. "1.5.5" is two
// numbers and "1-2" is two numbers, as in the SVG grammar.
func scanNumber(s string, i int) int {
	j := i
	if s[j] == '-' || s[j] == '+' {
		j++
	}
	seenDot, seenExp := false, false
	for j < len(s) {
		c := s[j]
		switch {
		case c >= '0' && c <= '9':
			j++
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
			j++
		case (c == 'e' || c == 'E') && !seenExp && j > i:
			seenExp = true
			j++
			if j < len(s) && (s[j] == '-' || s[j] == '+') {
				j++
			}
		default:
			return j
		}
	}
	return j
}

type pathFlattener struct {
	toks []pathToken
	pos  int

	cur, start geometry.Point
	lastCtrl   geometry.Point
	lastCmd    byte
	poly       []geometry.Point
	out        [][]geometry.Point
}

func (p *pathFlattener) flush() {
	if len(p.poly) > 1 {
		p.out = append(p.out, p.poly)
	}
	p.poly = nil
}

func (p *pathFlattener) hasNumber() bool {
	return p.pos < len(p.toks) && p.toks[p.pos].cmd == 0
}

func (p *pathFlattener) nums(n int) ([]float64, error) {
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		if !p.hasNumber() {
			return nil, fmt.Errorf("%w: path command %q needs %d arguments", ErrMalformedContent, p.lastCmd, n)
		}
		out[k] = p.toks[p.pos].num
		p.pos++
	}
	return out, nil
}

func (p *pathFlattener) lineTo(pt geometry.Point) {
	if len(p.poly) == 0 {
		p.poly = append(p.poly, p.cur)
	}
	p.poly = append(p.poly, pt)
	p.cur = pt
}

func (p *pathFlattener) run() error {
	var cmd byte
	for p.pos < len(p.toks) {
		if tok := p.toks[p.pos]; tok.cmd != 0 {
			cmd = tok.cmd
			p.pos++
		} else if cmd == 0 {
			return fmt.Errorf("%w: path must start with a command", ErrMalformedContent)
		}
		rel := cmd >= 'a' && cmd <= 'z'
		upper := cmd &^ 0x20
		origin := geometry.Point{}
		if rel {
			origin = p.cur
		}

		switch upper {
		case 'Z':
			if len(p.poly) > 0 {
				p.lineTo(p.start)
			}
			p.flush()
			p.cur = p.start
			p.lastCmd = 'Z'
			if p.hasNumber() {
				return fmt.Errorf("%w: closepath takes no arguments", ErrMalformedContent)
			}
			continue
		case 'M':
			v, err := p.nums(2)
			if err != nil {
				return err
			}
			p.flush()
			p.cur = origin.Add(geometry.Pt(v[0], v[1]))
			p.start = p.cur
			// Extra coordinate pairs after a moveto are implicit linetos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L':
			v, err := p.nums(2)
			if err != nil {
				return err
			}
			p.lineTo(origin.Add(geometry.Pt(v[0], v[1])))
		case 'H':
			v, err := p.nums(1)
			if err != nil {
				return err
			}
			x := v[0]
			if rel {
				x += p.cur.X
			}
			p.lineTo(geometry.Pt(x, p.cur.Y))
		case 'V':
			v, err := p.nums(1)
			if err != nil {
				return err
			}
			y := v[0]
			if rel {
				y += p.cur.Y
			}
			p.lineTo(geometry.Pt(p.cur.X, y))
		case 'C', 'S':
			var c1 geometry.Point
			var rest []float64
			var err error
			if upper == 'C' {
				v, e := p.nums(6)
				if e != nil {
					return e
				}
				c1 = origin.Add(geometry.Pt(v[0], v[1]))
				rest = v[2:]
			} else {
				c1 = p.cur
				if p.lastCmd == 'C' || p.lastCmd == 'S' {
					c1 = p.cur.Mul(2).Sub(p.lastCtrl)
				}
				if rest, err = p.nums(4); err != nil {
					return err
				}
			}
			c2 := origin.Add(geometry.Pt(rest[0], rest[1]))
			end := origin.Add(geometry.Pt(rest[2], rest[3]))
			p.cubic(c1, c2, end)
			p.lastCtrl = c2
		case 'Q', 'T':
			var c geometry.Point
			var end geometry.Point
			if upper == 'Q' {
				v, err := p.nums(4)
				if err != nil {
					return err
				}
				c = origin.Add(geometry.Pt(v[0], v[1]))
				end = origin.Add(geometry.Pt(v[2], v[3]))
			} else {
				c = p.cur
				if p.lastCmd == 'Q' || p.lastCmd == 'T' {
					c = p.cur.Mul(2).Sub(p.lastCtrl)
				}
				v, err := p.nums(2)
				if err != nil {
					return err
				}
				end = origin.Add(geometry.Pt(v[0], v[1]))
			}
			p.quadratic(c, end)
			p.lastCtrl = c
		case 'A':
			v, err := p.nums(7)
			if err != nil {
				return err
			}
			end := origin.Add(geometry.Pt(v[5], v[6]))
			p.arc(v[0], v[1], v[2], v[3] != 0, v[4] != 0, end)
		default:
			return fmt.Errorf("%w: unsupported path command %q", ErrMalformedContent, cmd)
		}
		p.lastCmd = upper
	}
	return nil
}

func (p *pathFlattener) cubic(c1, c2, end geometry.Point) {
	start := p.cur
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		pt := start.Mul(u * u * u).
			Add(c1.Mul(3 * u * u * t)).
			Add(c2.Mul(3 * u * t * t)).
			Add(end.Mul(t * t * t))
		p.lineTo(pt)
	}
	p.cur = end
}

func (p *pathFlattener) quadratic(c, end geometry.Point) {
	start := p.cur
	for i := 1; i <= curveSteps; i++ {
		t := float64(i) / curveSteps
		u := 1 - t
		pt := start.Mul(u * u).Add(c.Mul(2 * u * t)).Add(end.Mul(t * t))
		p.lineTo(pt)
	}
	p.cur = end
}

// arc flattens an elliptical arc using the endpoint-to-center conversion.
func (p *pathFlattener) arc(rx, ry, xRotDeg float64, large, sweep bool, end geometry.Point) {
	start := p.cur
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 || start.ApproxEqual(end, 1e-12) {
		p.lineTo(end)
		return
	}
	phi := xRotDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx, dy := (start.X-end.X)/2, (start.Y-end.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	// Scale radii up if they cannot span the endpoints.
	if lambda := (x1*x1)/(rx*rx) + (y1*y1)/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx

	cx := cosPhi*cx1 - sinPhi*cy1 + (start.X+end.X)/2
	cy := sinPhi*cx1 + cosPhi*cy1 + (start.Y+end.Y)/2

	theta1 := math.Atan2((y1-cy1)/ry, (x1-cx1)/rx)
	theta2 := math.Atan2((-y1-cy1)/ry, (-x1-cx1)/rx)
	delta := theta2 - theta1
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	for i := 1; i <= curveSteps; i++ {
		a := theta1 + delta*float64(i)/curveSteps
		x := cx + rx*math.Cos(a)*cosPhi - ry*math.Sin(a)*sinPhi
		y := cy + rx*math.Cos(a)*sinPhi + ry*math.Sin(a)*cosPhi
		p.lineTo(geometry.Pt(x, y))
	}
	p.cur = end
}
