package csg

// node is a BSP tree node. Boolean operations build one tree per
// operand and clip each against the other.
type node struct {
	plane *plane
	front *node
	back  *node
	polys []polygon
}

func newNode(polys []polygon) *node {
	n := &node{}
	n.build(polys)
	return n
}

// invert converts solid space to empty space and back.
func (n *node) invert() {
	for i := range n.polys {
		n.polys[i] = n.polys[i].flip()
	}
	if n.plane != nil {
		p := n.plane.flip()
		n.plane = &p
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys that are inside this tree.
func (n *node) clipPolygons(polys []polygon) []polygon {
	if n.plane == nil {
		out := make([]polygon, len(polys))
		copy(out, polys)
		return out
	}
	var fronts, backs []polygon
	for _, p := range polys {
		n.plane.splitPolygon(p, &fronts, &backs, &fronts, &backs)
	}
	if n.front != nil {
		fronts = n.front.clipPolygons(fronts)
	}
	if n.back != nil {
		backs = n.back.clipPolygons(backs)
	} else {
		backs = nil
	}
	return append(fronts, backs...)
}

// clipTo removes every polygon in this tree that is inside other.
func (n *node) clipTo(other *node) {
	n.polys = other.clipPolygons(n.polys)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []polygon {
	out := make([]polygon, 0, len(n.polys))
	out = append(out, n.polys...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

// build inserts polys into the tree, splitting them by existing planes.
func (n *node) build(polys []polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		p := polys[0].plane
		n.plane = &p
	}
	var fronts, backs []polygon
	for _, p := range polys {
		n.plane.splitPolygon(p, &n.polys, &n.polys, &fronts, &backs)
	}
	if len(fronts) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(fronts)
	}
	if len(backs) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(backs)
	}
}

// --- boolean operations over polygon soups ---

func union(a, b []polygon) []polygon {
	na, nb := newNode(clonePolygons(a)), newNode(clonePolygons(b))
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	return na.allPolygons()
}

func difference(a, b []polygon) []polygon {
	na, nb := newNode(clonePolygons(a)), newNode(clonePolygons(b))
	na.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	na.invert()
	return na.allPolygons()
}

func intersection(a, b []polygon) []polygon {
	na, nb := newNode(clonePolygons(a)), newNode(clonePolygons(b))
	na.invert()
	nb.clipTo(na)
	nb.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	na.build(nb.allPolygons())
	na.invert()
	return na.allPolygons()
}
