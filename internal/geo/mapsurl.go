package geo

import (
	"net/url"
	"regexp"
	"strconv"

	"github.com/pkordes/tripboard/internal/domain"
)

// Patterns tried in order against a decoded maps link.
var mapsURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`),                // .../place/x/@37.77,-122.41,15z
	regexp.MustCompile(`[?&](?:q|query)=(-?\d+\.\d+),(-?\d+\.\d+)`), // ?q=37.77,-122.41
	regexp.MustCompile(`[?&]ll=(-?\d+\.\d+),(-?\d+\.\d+)`),          // ?ll=37.77,-122.41
	regexp.MustCompile(`!3d(-?\d+\.\d+)!4d(-?\d+\.\d+)`),            // embed: !3d37.77!4d-122.41
}

// ParseMapsURL extracts coordinates from a Google Maps style link.
// Shortened share links carry no coordinates and report ok=false.
func ParseMapsURL(raw string) (domain.Coordinates, bool) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		decoded = raw
	}
	for _, re := range mapsURLPatterns {
		m := re.FindStringSubmatch(decoded)
		if m == nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lng, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			continue
		}
		return domain.Coordinates{Lat: lat, Lng: lng}, true
	}
	return domain.Coordinates{}, false
}
