package radiometry

// MinObservations is the number of same-band observations a tie point needs
// to survive correspondence filtering.
const MinObservations = 3

// MatchTables holds the two views of the correspondence set: projections
// grouped by band, and projections grouped by tie point. Point keys are
// indices into the track table the tables were built from.
type MatchTables struct {
	CameraMatches map[BandID]map[int]PixelCoord
	PointMatches  map[int]map[BandID]PixelCoord
}

// BuildMatchTables merge-joins the globally track-id-sorted tie-point table
// against each band's track-id-sorted projection list. Both inputs must be
// ascending by track id; the join advances forward only and never rescans.
// Invalid track points are skipped. The transform is pure.
func BuildMatchTables(points []TrackPoint, bands []BandProjections) MatchTables {
	t := MatchTables{
		CameraMatches: make(map[BandID]map[int]PixelCoord, len(bands)),
		PointMatches:  make(map[int]map[BandID]PixelCoord),
	}
	for _, bp := range bands {
		total := make(map[int]PixelCoord)
		pointIndex := 0
		for _, proj := range bp.Projections {
			for pointIndex < len(points) && points[pointIndex].TrackID < proj.TrackID {
				pointIndex++
			}
			if pointIndex >= len(points) || points[pointIndex].TrackID != proj.TrackID {
				continue
			}
			if !points[pointIndex].Valid {
				continue
			}
			total[pointIndex] = proj.Coord
			obs, ok := t.PointMatches[pointIndex]
			if !ok {
				obs = make(map[BandID]PixelCoord)
				t.PointMatches[pointIndex] = obs
			}
			obs[bp.Band] = proj.Coord
		}
		t.CameraMatches[bp.Band] = total
	}
	return t
}

// Filter retains only tie points with at least minObs observations and
// rebuilds both maps restricted to the retained set, so every point in the
// filtered PointMatches appears in at least minObs filtered CameraMatches
// entries and vice versa.
func (t MatchTables) Filter(minObs int) MatchTables {
	keep := make(map[int]bool)
	out := MatchTables{
		CameraMatches: make(map[BandID]map[int]PixelCoord, len(t.CameraMatches)),
		PointMatches:  make(map[int]map[BandID]PixelCoord),
	}
	for pointIndex, obs := range t.PointMatches {
		if len(obs) >= minObs {
			out.PointMatches[pointIndex] = obs
			keep[pointIndex] = true
		}
	}
	for band, points := range t.CameraMatches {
		kept := make(map[int]PixelCoord)
		for pointIndex, coord := range points {
			if keep[pointIndex] {
				kept[pointIndex] = coord
			}
		}
		out.CameraMatches[band] = kept
	}
	return out
}
