package session

import "math/rand/v2"

// HuePicker assigns display hues in [0, 360) that stay clear of the hue the
// UI uses for pressed keys.
type HuePicker struct {
	Reserved  int
	Tolerance int

	// intn defaults to rand.IntN; tests swap it for a fixed sequence.
	intn func(n int) int
}

func NewHuePicker(reserved, tolerance int) *HuePicker {
	return &HuePicker{Reserved: reserved, Tolerance: tolerance, intn: rand.IntN}
}

// Next draws uniformly from the hues whose circular distance to Reserved is
// greater than Tolerance.
func (p *HuePicker) Next() int {
	intn := p.intn
	if intn == nil {
		intn = rand.IntN
	}
	reserved := ((p.Reserved % 360) + 360) % 360
	excluded := 2*p.Tolerance + 1
	if p.Tolerance < 0 || excluded >= 360 {
		return intn(360)
	}
	return (reserved + p.Tolerance + 1 + intn(360-excluded)) % 360
}

// Distance is the circular distance between two hues in degrees.
func Distance(a, b int) int {
	d := ((a-b)%360 + 360) % 360
	if d > 180 {
		d = 360 - d
	}
	return d
}
