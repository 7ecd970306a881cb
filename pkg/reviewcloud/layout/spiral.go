package layout

import "math"

// search starts with the box centered on the canvas and walks the spiral
// until the box no longer collides. It gives up once the box center is
// further than RadiusCapFactor canvas diagonals from the canvas center.
func (r *Run) search(idx int, w, h float64) (Box, bool) {
	opts := r.engine.opts
	cx, cy := opts.Width/2, opts.Height/2
	aspect := opts.Width / opts.Height
	step := opts.Step
	maxDist := opts.RadiusCapFactor * math.Hypot(opts.Width, opts.Height)

	box := Box{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
	angle := r.rng.Float64() * 2 * math.Pi
	radius := 0.0

	// rectangular walk state
	stepsInDirection := 0
	quarterTurns := 0

	for r.collides(box) {
		switch opts.Shape {
		case Rectangular:
			stepsInDirection++
			edge := float64(1 + quarterTurns/2)
			if quarterTurns%2 != 0 {
				edge *= aspect
			}
			if float64(stepsInDirection) > edge {
				stepsInDirection = 0
				quarterTurns++
			}
			jitter := r.rng.Float64() * 2
			switch quarterTurns % 4 {
			case 1:
				box.X += step*aspect + jitter
			case 2:
				box.Y -= step + jitter
			case 3:
				box.X -= step*aspect + jitter
			default:
				box.Y += step + jitter
			}
		default:
			radius += step
			if idx%2 == 0 {
				angle += step
			} else {
				angle -= step
			}
			box.X = cx - w/2 + radius*math.Cos(angle)*aspect
			box.Y = cy + radius*math.Sin(angle) - h/2
		}

		if math.Hypot(box.X+w/2-cx, box.Y+h/2-cy) > maxDist {
			return box, false
		}
	}
	return box, true
}
