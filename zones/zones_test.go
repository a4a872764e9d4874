package zones

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trainload/model"
	"github.com/lucasjlepore/trainload/scalar"
)

func TestPowerZonesBoundaries(t *testing.T) {
	ftp := scalar.NewFromInt(200)
	zs := PowerZones(ftp)
	require.Len(t, zs, 7)
	require.Equal(t, "110", zs[1].Low.String(), "Z2 low")
	require.True(t, zs[6].Top, "Z7 should be the open top zone")
	require.True(t, zs[6].Contains(scalar.NewFromInt(100000)), "top zone should contain arbitrarily large values")
}

func TestHRZonesBoundaries(t *testing.T) {
	lthr := scalar.NewFromInt(170)
	zs := HRZones(lthr)
	require.Len(t, zs, 6)
}

func TestZoneHalfOpenAttribution(t *testing.T) {
	ftp := scalar.NewFromInt(200)
	zs := PowerZones(ftp)
	boundary := ftp.Mul(scalar.MustParse("0.55"))
	var matched string
	for _, z := range zs {
		if z.Contains(boundary) {
			matched = z.Name
			break
		}
	}
	require.Equal(t, "Z2 Endurance", matched, "boundary value should land in the higher zone (half-open [low,high))")
}

func TestTimeInZoneSumsToTotalDuration(t *testing.T) {
	ftp := scalar.NewFromInt(200)
	zs := PowerZones(ftp)
	var samples []model.DataPoint
	for i := 0; i < 10; i++ {
		p := scalar.NewFromInt(200)
		samples = append(samples, model.DataPoint{T: uint32(i), Power: &p})
	}
	extract := func(d model.DataPoint) (scalar.D, bool) {
		if d.Power == nil {
			return scalar.Zero, false
		}
		return *d.Power, true
	}
	tz := TimeInZone(samples, zs, extract)
	var total uint32
	for _, v := range tz {
		total += v
	}
	require.Equal(t, uint32(9), total)
}
