// Package spatial provides an R-Tree index over converted parking segments.
package spatial

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/hidejiunifei/faixaazul/internal/geo"
	"github.com/hidejiunifei/faixaazul/internal/utm"
)

const (
	tolerance   = 1e-7 // degrees, keeps axis-aligned segments from collapsing to zero width
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialItem wraps a Segment for R-Tree indexing
type spatialItem struct {
	segment geo.Segment
	rect    rtreego.Rect
}

func (si *spatialItem) Bounds() rtreego.Rect {
	return si.rect
}

// Match is a segment with its distance from a query point.
type Match struct {
	Segment  geo.Segment
	Distance float64 // meters
}

// Index is a thread-safe R-Tree over segment bounding boxes in (lat, lon).
type Index struct {
	tree *rtreego.Rtree
	mu   sync.RWMutex
}

// NewIndex creates an index holding segments.
func NewIndex(segments ...geo.Segment) (*Index, error) {
	idx := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	if err := idx.Insert(segments...); err != nil {
		return nil, err
	}
	return idx, nil
}

// Insert adds segments to the index.
func (idx *Index) Insert(segments ...geo.Segment) error {
	items := make([]*spatialItem, 0, len(segments))
	for _, s := range segments {
		rect, err := bounds(s)
		if err != nil {
			return fmt.Errorf("index segment %d-%d: %w", s.Feature, s.Index, err)
		}
		items = append(items, &spatialItem{segment: s, rect: rect})
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, item := range items {
		idx.tree.Insert(item)
	}
	return nil
}

// Size returns the number of indexed segments.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.tree.Size()
}

// Within returns the segments closer than radius meters to p, nearest first.
func (idx *Index) Within(p utm.DecimalDegrees, radius float64) ([]Match, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("invalid radius %v", radius)
	}

	// Convert radius to degrees; longitude degrees shrink with latitude
	latDeg := radius / geo.EarthRadius * (180 / math.Pi)
	lonDeg := latDeg / math.Max(math.Cos(p.Latitude*math.Pi/180), 1e-6)

	box, err := rtreego.NewRect(
		rtreego.Point{p.Latitude - latDeg, p.Longitude - lonDeg},
		[]float64{2*latDeg + tolerance, 2*lonDeg + tolerance},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid radius search: %w", err)
	}

	idx.mu.RLock()
	results := idx.tree.SearchIntersect(box)
	idx.mu.RUnlock()

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialItem)
		if !ok {
			continue
		}

		// Filter by actual distance
		d := geo.DistanceToSegment(p, item.segment.Start, item.segment.End)
		if d <= radius {
			matches = append(matches, Match{Segment: item.segment, Distance: d})
		}
	}

	sortMatches(matches)
	return matches, nil
}

// Nearest returns the k segments whose bounding boxes are closest to p,
// ordered by distance to the segment itself.
func (idx *Index) Nearest(p utm.DecimalDegrees, k int) []Match {
	if k <= 0 {
		return nil
	}

	idx.mu.RLock()
	results := idx.tree.NearestNeighbors(k, rtreego.Point{p.Latitude, p.Longitude})
	idx.mu.RUnlock()

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialItem)
		if !ok || item == nil {
			continue
		}
		matches = append(matches, Match{
			Segment:  item.segment,
			Distance: geo.DistanceToSegment(p, item.segment.Start, item.segment.End),
		})
	}

	sortMatches(matches)
	return matches
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
}

func bounds(s geo.Segment) (rtreego.Rect, error) {
	minLat := math.Min(s.Start.Latitude, s.End.Latitude)
	minLon := math.Min(s.Start.Longitude, s.End.Longitude)
	maxLat := math.Max(s.Start.Latitude, s.End.Latitude)
	maxLon := math.Max(s.Start.Longitude, s.End.Longitude)

	return rtreego.NewRect(
		rtreego.Point{minLat, minLon},
		[]float64{maxLat - minLat + tolerance, maxLon - minLon + tolerance},
	)
}
