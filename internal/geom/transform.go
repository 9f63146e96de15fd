package geom

// Transform is a rigid similarity transform: uniform scale, rotation in
// radians and translation. It maps p to Scale*R(Rotation)*p + Translation.
// Scale is always strictly positive.
type Transform struct {
	Scale       float64 `json:"scale"`
	Rotation    float64 `json:"rotation"`
	Translation Point   `json:"translation"`
}

// Identity returns the transform that leaves every point unchanged.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Apply maps a single point through t.
func (t Transform) Apply(p Point) Point {
	return Rotate(p.Scale(t.Scale), t.Rotation).Add(t.Translation)
}

// ApplyAll maps every point of pts through t into a new slice.
// Non-finite points are carried through unchanged.
func (t Transform) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		if !p.IsFinite() {
			out[i] = p
			continue
		}
		out[i] = t.Apply(p)
	}
	return out
}

// Compose returns the transform equivalent to applying t first and then u.
func (t Transform) Compose(u Transform) Transform {
	return Transform{
		Scale:       t.Scale * u.Scale,
		Rotation:    WrapAngle(t.Rotation + u.Rotation),
		Translation: u.Apply(t.Translation),
	}
}
