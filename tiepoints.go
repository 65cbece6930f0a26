package bandaid

import (
	"fmt"

	"github.com/fieldvision/bandaid/radiometry"
)

// BandSelector picks which plane of each camera participates in
// correspondence building: a specific band index, or the camera's master
// image when no band is selected.
type BandSelector struct {
	index  int
	master bool
}

// SelectBand selects the plane at the given band index.
func SelectBand(index int) BandSelector { return BandSelector{index: index} }

// SelectMaster selects each camera's master image.
func SelectMaster() BandSelector { return BandSelector{master: true} }

// PlaneOf resolves the selector against one camera. The second return is
// false when the camera has no plane at the selected index.
func (s BandSelector) PlaneOf(c Camera) (Band, bool) {
	if s.master {
		return c.Master(), true
	}
	planes := c.Planes()
	if s.index < 0 || s.index >= len(planes) {
		return nil, false
	}
	return planes[s.index], true
}

// buildMatchTables collects the selected plane's projections from every
// camera and builds the filtered correspondence tables for the chunk. The
// returned plane slice is indexed by BandID.
func buildMatchTables(chunk Chunk, sel BandSelector) (radiometry.MatchTables, []Band, error) {
	var bands []radiometry.BandProjections
	var planes []Band
	for _, cam := range chunk.Cameras() {
		plane, ok := sel.PlaneOf(cam)
		if !ok {
			plane = cam.Master()
		}
		projections, err := plane.Projections()
		if err != nil {
			return radiometry.MatchTables{}, nil, fmt.Errorf("projections of %s: %w", plane.Label(), err)
		}
		bands = append(bands, radiometry.BandProjections{
			Band:        radiometry.BandID(len(planes)),
			Projections: projections,
		})
		planes = append(planes, plane)
	}
	tables := radiometry.BuildMatchTables(chunk.TiePoints().Points(), bands)
	return tables.Filter(radiometry.MinObservations), planes, nil
}

// RetainMultiViewTiePoints invalidates every tie point that is not observed
// in at least three images of the selected band, leaving a reduced set that
// improves dense reconstruction on vegetation. Returns how many points were
// invalidated.
func (p *Pipeline) RetainMultiViewTiePoints(chunk Chunk, sel BandSelector) (int, error) {
	tables, _, err := buildMatchTables(chunk, sel)
	if err != nil {
		return 0, err
	}

	store := chunk.TiePoints()
	points := store.Points()
	disabled := 0
	for i, pt := range points {
		if !pt.Valid {
			continue
		}
		if _, ok := tables.PointMatches[i]; !ok {
			store.SetValid(i, false)
			disabled++
		}
	}
	p.logger.Infof("Retained %d multi-view tie points, invalidated %d", len(tables.PointMatches), disabled)
	return disabled, nil
}
