package geom

// Centroid is a running weighted sum of points.
type Centroid struct {
	Sum    Vector
	Weight float64
}

// AddPoint accumulates p with weight w.
func (c *Centroid) AddPoint(p Point, w float64) {
	c.Sum = c.Sum.Add(p.Scale(w))
	c.Weight += w
}

// Add merges another centroid into c.
func (c *Centroid) Add(o Centroid) {
	c.Sum = c.Sum.Add(o.Sum)
	c.Weight += o.Weight
}

// IsEmpty reports whether nothing has been accumulated.
func (c Centroid) IsEmpty() bool {
	return c.Weight == 0
}

// Center returns the weighted average, or the origin if c is empty.
func (c Centroid) Center() Point {
	if c.IsEmpty() {
		return Zero(len(c.Sum))
	}
	return c.Sum.Scale(1 / c.Weight)
}

// MeanOf returns the unweighted centroid of a set of points.
func MeanOf(points []Point) Centroid {
	var c Centroid
	for _, p := range points {
		c.AddPoint(p, 1)
	}
	return c
}
