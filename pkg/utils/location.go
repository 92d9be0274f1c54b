package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// locations holds zones already read from the tz database.
var locations = mustLocationCache(DefaultLocationCacheSize)

func mustLocationCache(size int) *lru.Cache[string, *time.Location] {
	cache, err := lru.New[string, *time.Location](size)
	if err != nil {
		panic(err)
	}
	return cache
}

/**************************************************************************************************
** LoadLocation resolves an IANA zone name, reading the tz database only on the first lookup of
** each name. Unknown names are never cached, so a later tzdata install is picked up.
**
** @param name - IANA zone name, e.g. "Asia/Taipei"
** @return *time.Location - Resolved location
** @return error - Lookup error, if any
**************************************************************************************************/
func LoadLocation(name string) (*time.Location, error) {
	if loc, ok := locations.Get(name); ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}

	locations.Add(name, loc)
	return loc, nil
}

// CachedLocations returns the number of zones currently cached.
func CachedLocations() int {
	return locations.Len()
}
