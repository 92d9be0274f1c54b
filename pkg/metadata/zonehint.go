package metadata

import (
	"sync"

	"github.com/ringsaturn/tzf"
)

var (
	finderOnce sync.Once
	finder     tzf.F
	finderErr  error
)

func zoneFinder() (tzf.F, error) {
	finderOnce.Do(func() {
		finder, finderErr = tzf.NewDefaultFinder()
	})
	return finder, finderErr
}

/**************************************************************************************************
** ZoneHint returns the IANA zone at the GPS position stored in the bag. It is informational
** only: the configured display zone is never changed from it.
**
** @param bag - Decoded metadata
** @return string - Zone name, e.g. "Asia/Taipei"
** @return bool - False if the bag has no position or no zone covers it
**************************************************************************************************/
func ZoneHint(bag Bag) (string, bool) {
	lat, okLat := bag.Value(NamespaceGPS, TagGPSLatitude).(float64)
	long, okLong := bag.Value(NamespaceGPS, TagGPSLongitude).(float64)
	if !okLat || !okLong {
		return "", false
	}
	if lat < -90 || lat > 90 || long < -180 || long > 180 {
		return "", false
	}

	f, err := zoneFinder()
	if err != nil {
		return "", false
	}
	name := f.GetTimezoneName(long, lat)
	return name, name != ""
}
