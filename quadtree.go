package main

// Rect is an axis-aligned rectangle used as a quadtree node boundary, as a
// query area, and as a player's view rectangle.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) containsPoint(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

func (r Rect) intersects(o Rect) bool {
	if o.X > r.X+r.W || o.X+o.W < r.X {
		return false
	}
	if o.Y > r.Y+r.H || o.Y+o.H < r.Y {
		return false
	}
	return true
}

// QuadTree is a bounded point quadtree over Food, parameterized by leaf
// capacity. Subdivides into four equal children on overflow; retrieve and
// remove recurse only into children whose rectangle could hold the query.
type QuadTree struct {
	boundary Rect
	capacity int
	points   []Food
	divided  bool
	nw, ne, sw, se *QuadTree
}

func NewQuadTree(boundary Rect, capacity int) *QuadTree {
	if capacity < 1 {
		capacity = 1
	}
	return &QuadTree{boundary: boundary, capacity: capacity}
}

// insert adds food to the tree; it fails (returns false) if the food's
// position is outside this node's rectangle.
func (q *QuadTree) insert(f Food) bool {
	if !q.boundary.containsPoint(f.X, f.Y) {
		return false
	}
	if len(q.points) < q.capacity {
		q.points = append(q.points, f)
		return true
	}
	if !q.divided {
		q.subdivide()
	}
	for _, child := range q.children() {
		if child.insert(f) {
			return true
		}
	}
	return false
}

func (q *QuadTree) children() []*QuadTree {
	return []*QuadTree{q.nw, q.ne, q.sw, q.se}
}

func (q *QuadTree) subdivide() {
	x, y := q.boundary.X, q.boundary.Y
	w, h := q.boundary.W/2, q.boundary.H/2
	q.nw = NewQuadTree(Rect{x, y, w, h}, q.capacity)
	q.ne = NewQuadTree(Rect{x + w, y, w, h}, q.capacity)
	q.sw = NewQuadTree(Rect{x, y + h, w, h}, q.capacity)
	q.se = NewQuadTree(Rect{x + w, y + h, w, h}, q.capacity)
	q.divided = true
}

// retrieve pushes every indexed food whose position lies within rect into out.
func (q *QuadTree) retrieve(rect Rect, out *[]Food) {
	if !q.boundary.intersects(rect) {
		return
	}
	for _, p := range q.points {
		if rect.containsPoint(p.X, p.Y) {
			*out = append(*out, p)
		}
	}
	if q.divided {
		for _, child := range q.children() {
			child.retrieve(rect, out)
		}
	}
}

// remove deletes food by id equality; returns true if found and removed.
func (q *QuadTree) remove(id FoodID) bool {
	for i, p := range q.points {
		if p.ID == id {
			q.points = append(q.points[:i], q.points[i+1:]...)
			return true
		}
	}
	if q.divided {
		// The id holds the position truncated to whole units, so the food
		// lies within one unit of (idToX, idToY).
		idCell := Rect{idToX(id), idToY(id), 1, 1}
		for _, child := range q.children() {
			if child.boundary.intersects(idCell) && child.remove(id) {
				return true
			}
		}
	}
	return false
}

// contains reports whether id is present anywhere in the tree.
func (q *QuadTree) contains(id FoodID) bool {
	for _, p := range q.points {
		if p.ID == id {
			return true
		}
	}
	if q.divided {
		for _, child := range q.children() {
			if child.contains(id) {
				return true
			}
		}
	}
	return false
}

// getAll returns every food currently indexed, each node's own points
// before those of its children.
func (q *QuadTree) getAll() []Food {
	out := make([]Food, 0, len(q.points))
	out = append(out, q.points...)
	if q.divided {
		for _, child := range q.children() {
			out = append(out, child.getAll()...)
		}
	}
	return out
}

func (q *QuadTree) count() int {
	n := len(q.points)
	if q.divided {
		for _, child := range q.children() {
			n += child.count()
		}
	}
	return n
}
