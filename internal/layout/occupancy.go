package layout

// Occupancy tracks claimed canvas pixels. A summed-area table answers
// "is this rectangle free" in constant time.
type Occupancy struct {
	width    int
	height   int
	claimed  []bool
	integral []int32 // (width+1) x (height+1)
}

// NewOccupancy returns an empty bitmap for a width x height canvas.
func NewOccupancy(width, height int) *Occupancy {
	return &Occupancy{
		width:    width,
		height:   height,
		claimed:  make([]bool, width*height),
		integral: make([]int32, (width+1)*(height+1)),
	}
}

// Free reports whether no pixel of r (clipped to the canvas) is claimed.
func (o *Occupancy) Free(r Rect) bool {
	r = r.Intersect(Rect{W: o.width, H: o.height})
	if r.Empty() {
		return true
	}
	stride := o.width + 1
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H
	sum := o.integral[y1*stride+x1] - o.integral[y0*stride+x1] - o.integral[y1*stride+x0] + o.integral[y0*stride+x0]
	return sum == 0
}

// Claim marks every pixel of r (clipped to the canvas) as used.
func (o *Occupancy) Claim(r Rect) {
	r = r.Intersect(Rect{W: o.width, H: o.height})
	if r.Empty() {
		return
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		row := o.claimed[y*o.width : (y+1)*o.width]
		for x := r.X; x < r.X+r.W; x++ {
			row[x] = true
		}
	}
	o.rebuildFrom(r.Y)
}

// Claimed reports whether pixel (x, y) is used.
func (o *Occupancy) Claimed(x, y int) bool {
	if x < 0 || y < 0 || x >= o.width || y >= o.height {
		return false
	}
	return o.claimed[y*o.width+x]
}

// rebuildFrom recomputes integral rows below y; rows above are unaffected by a claim at y.
func (o *Occupancy) rebuildFrom(y int) {
	stride := o.width + 1
	for row := y; row < o.height; row++ {
		var rowSum int32
		base := (row + 1) * stride
		prev := row * stride
		for col := 0; col < o.width; col++ {
			if o.claimed[row*o.width+col] {
				rowSum++
			}
			o.integral[base+col+1] = o.integral[prev+col+1] + rowSum
		}
	}
}
