package radiometry

import (
	"math/rand"
	"testing"
)

func projections(band BandID, trackIDs ...int) BandProjections {
	bp := BandProjections{Band: band}
	for _, id := range trackIDs {
		bp.Projections = append(bp.Projections, Projection{
			TrackID: id,
			Coord:   PixelCoord{U: float64(id), V: float64(band)},
		})
	}
	return bp
}

func TestBuildMatchTables_MergeJoin(t *testing.T) {
	// Track table with a gap (track 3 missing) and one invalid point.
	points := []TrackPoint{
		{TrackID: 0, Valid: true},
		{TrackID: 1, Valid: true},
		{TrackID: 2, Valid: false},
		{TrackID: 4, Valid: true},
		{TrackID: 7, Valid: true},
	}
	bands := []BandProjections{
		projections(0, 0, 1, 2, 4, 7),
		projections(1, 0, 2, 3, 4),
		projections(2, 1, 4, 7),
	}

	tables := BuildMatchTables(points, bands)

	// Track 2 is invalid and track 3 has no entry; neither may appear.
	for pointIndex := range tables.PointMatches {
		if pointIndex == 2 {
			t.Errorf("invalid point index 2 joined")
		}
	}
	if got := len(tables.CameraMatches[0]); got != 4 {
		t.Errorf("band 0 matched %d points, want 4", got)
	}
	if got := len(tables.CameraMatches[1]); got != 2 {
		t.Errorf("band 1 matched %d points, want 2 (invalid and absent tracks skipped)", got)
	}

	// Point index 3 (track 4) is seen by all three bands.
	obs, ok := tables.PointMatches[3]
	if !ok || len(obs) != 3 {
		t.Fatalf("point index 3 observed by %d bands, want 3", len(obs))
	}
	if obs[1] != (PixelCoord{U: 4, V: 1}) {
		t.Errorf("point index 3 in band 1 at %+v", obs[1])
	}
}

func TestMatchTables_FilterMinObservations(t *testing.T) {
	points := []TrackPoint{
		{TrackID: 0, Valid: true},
		{TrackID: 1, Valid: true},
		{TrackID: 2, Valid: true},
	}
	bands := []BandProjections{
		projections(0, 0, 1, 2),
		projections(1, 0, 2),
		projections(2, 0, 1, 2),
		projections(3, 1),
	}

	filtered := BuildMatchTables(points, bands).Filter(MinObservations)

	// Track 0: 3 bands, survives. Track 1: 3 bands, survives.
	// Track 2: 3 bands, survives. Everything here has exactly 3.
	if len(filtered.PointMatches) != 3 {
		t.Fatalf("%d points survived, want 3", len(filtered.PointMatches))
	}

	// Drop band 2's observation of track 1 and re-filter; track 1 now has
	// only two observations and must go from every band's table.
	bands[2] = projections(2, 0, 2)
	filtered = BuildMatchTables(points, bands).Filter(MinObservations)
	if _, ok := filtered.PointMatches[1]; ok {
		t.Error("two-observation point survived the filter")
	}
	for band, pts := range filtered.CameraMatches {
		if _, ok := pts[1]; ok {
			t.Errorf("band %d still references the dropped point", band)
		}
	}
	if len(filtered.PointMatches) != 2 {
		t.Errorf("%d points survived, want 2", len(filtered.PointMatches))
	}
}

func TestMatchTables_FilterSurvivalIffThreeObservations(t *testing.T) {
	//nolint:gosec
	rng := rand.New(rand.NewSource(31))

	const nPoints, nBands = 60, 6
	points := make([]TrackPoint, nPoints)
	for i := range points {
		points[i] = TrackPoint{TrackID: i, Valid: true}
	}

	// Random observation pattern; remember how often each point is seen.
	seen := make([]int, nPoints)
	bands := make([]BandProjections, nBands)
	for b := range bands {
		bands[b].Band = BandID(b)
		for i := 0; i < nPoints; i++ {
			if rng.Float64() < 0.45 {
				continue
			}
			bands[b].Projections = append(bands[b].Projections, Projection{
				TrackID: i,
				Coord:   PixelCoord{U: float64(i), V: float64(b)},
			})
			seen[i]++
		}
	}

	filtered := BuildMatchTables(points, bands).Filter(MinObservations)
	for i, count := range seen {
		_, survived := filtered.PointMatches[i]
		if survived != (count >= MinObservations) {
			t.Errorf("point %d with %d observations: survived=%v", i, count, survived)
		}
	}
}

func TestMatchTables_FilterConsistency(t *testing.T) {
	points := []TrackPoint{
		{TrackID: 0, Valid: true},
		{TrackID: 5, Valid: true},
		{TrackID: 9, Valid: true},
	}
	bands := []BandProjections{
		projections(0, 0, 5, 9),
		projections(1, 5, 9),
		projections(2, 5),
		projections(3, 0, 5),
	}

	filtered := BuildMatchTables(points, bands).Filter(MinObservations)

	// Every surviving point appears in at least MinObservations band tables,
	// and every band entry points back at a surviving point.
	for pointIndex, obs := range filtered.PointMatches {
		if len(obs) < MinObservations {
			t.Errorf("point %d kept with %d observations", pointIndex, len(obs))
		}
		for band, coord := range obs {
			got, ok := filtered.CameraMatches[band][pointIndex]
			if !ok || got != coord {
				t.Errorf("point %d missing from band %d table", pointIndex, band)
			}
		}
	}
	for band, pts := range filtered.CameraMatches {
		for pointIndex := range pts {
			if _, ok := filtered.PointMatches[pointIndex]; !ok {
				t.Errorf("band %d references non-surviving point %d", band, pointIndex)
			}
		}
	}
}
