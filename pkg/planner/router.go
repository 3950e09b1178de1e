package planner

import (
	"math"

	"github.com/asim/quadtree"

	"panelcam/pkg/geometry"
)

// Router orders the stops of one tool group. It returns a permutation of
// the indices of stops, starting from start.
type Router interface {
	Route(start geometry.Point, stops []geometry.Point) []int
}

// InputOrder keeps the stops in the order they were selected.
type InputOrder struct{}

func (InputOrder) Route(start geometry.Point, stops []geometry.Point) []int {
	order := make([]int, len(stops))
	for i := range order {
		order[i] = i
	}
	return order
}

// NearestNeighbor repeatedly travels to the closest unvisited stop. Equal
// distances go to the stop selected first.
type NearestNeighbor struct{}

func (NearestNeighbor) Route(start geometry.Point, stops []geometry.Point) []int {
	if len(stops) == 0 {
		return nil
	}
	tree := newStopTree(stops)
	order := make([]int, 0, len(stops))
	at := start
	for len(order) < len(stops) {
		i := tree.nearest(at)
		tree.remove(i)
		order = append(order, i)
		at = stops[i]
	}
	return order
}

// maxSearch bounds the search box half-size (mm); stops are never that far
// apart on a panel.
const maxSearch = 1e7

// bucket holds the stops sharing one coordinate, lowest index first.
type bucket struct {
	point   *quadtree.Point
	indices []int
}

type stopTree struct {
	quadTree *quadtree.QuadTree
	stops    []geometry.Point
	buckets  map[geometry.Point]*bucket
	// overflow holds stops the quadtree refused; they are searched linearly.
	overflow []int
}

func newStopTree(stops []geometry.Point) *stopTree {
	r, _ := geometry.Bounds(stops...)
	center := r.Center()
	halfWidth := r.Width()/2 + 10
	halfHeight := r.Height()/2 + 10

	aabb := quadtree.NewAABB(
		quadtree.NewPoint(center.X, center.Y, nil),
		quadtree.NewPoint(halfWidth, halfHeight, nil))
	t := &stopTree{
		quadTree: quadtree.New(aabb, 0, nil),
		stops:    stops,
		buckets:  make(map[geometry.Point]*bucket),
	}

	for i, p := range stops {
		if b, ok := t.buckets[p]; ok {
			b.indices = append(b.indices, i)
			continue
		}
		b := &bucket{indices: []int{i}}
		b.point = quadtree.NewPoint(p.X, p.Y, b)
		if !t.quadTree.Insert(b.point) {
			t.overflow = append(t.overflow, i)
			continue
		}
		t.buckets[p] = b
	}
	return t
}

// nearest returns the index of the closest remaining stop to p. The search
// box doubles until it holds a stop; a final search with the distance to
// that stop as half-size catches any closer stop in the box corners.
func (t *stopTree) nearest(p geometry.Point) int {
	best, bestDist := -1, math.Inf(1)
	consider := func(i int) {
		d := p.Distance(t.stops[i])
		if d < bestDist || (d == bestDist && i < best) {
			best, bestDist = i, d
		}
	}
	for _, i := range t.overflow {
		consider(i)
	}

	for half := 10.0; len(t.buckets) > 0 && half < maxSearch; half *= 2 {
		i, d := t.search(p, half)
		if i < 0 {
			continue
		}
		if d >= half {
			i, d = t.search(p, d+1e-9)
		}
		if d < bestDist || (d == bestDist && i < best) {
			best = i
		}
		return best
	}
	for _, b := range t.buckets {
		consider(b.indices[0])
	}
	return best
}

func (t *stopTree) search(p geometry.Point, half float64) (int, float64) {
	aabb := quadtree.NewAABB(
		quadtree.NewPoint(p.X, p.Y, nil),
		quadtree.NewPoint(half, half, nil))
	best, bestDist := -1, math.Inf(1)
	for _, point := range t.quadTree.Search(aabb) {
		b := point.Data().(*bucket)
		x, y := point.Coordinates()
		d := p.Distance(geometry.Point{X: x, Y: y})
		i := b.indices[0]
		if d < bestDist || (d == bestDist && i < best) {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func (t *stopTree) remove(i int) {
	for j, o := range t.overflow {
		if o == i {
			t.overflow = append(t.overflow[:j], t.overflow[j+1:]...)
			return
		}
	}
	b, ok := t.buckets[t.stops[i]]
	if !ok {
		return
	}
	for j, o := range b.indices {
		if o == i {
			b.indices = append(b.indices[:j], b.indices[j+1:]...)
			break
		}
	}
	if len(b.indices) == 0 {
		t.quadTree.Remove(b.point)
		delete(t.buckets, t.stops[i])
	}
}
