package beam

// Coordinates is one particle's 6D initial condition.
type Coordinates struct {
	X, Px float64
	Y, Py float64
	Zeta  float64
	Delta float64
}

// Particles is an ordered set of initial conditions.
type Particles []Coordinates

// NewParticles builds on-axis-momentum particles at the given horizontal
// offsets. Every other coordinate is zero.
func NewParticles(xs ...float64) Particles {
	p := make(Particles, len(xs))
	for i, x := range xs {
		p[i] = Coordinates{X: x}
	}
	return p
}

func (p Particles) Clone() Particles {
	c := make(Particles, len(p))
	copy(c, p)
	return c
}
