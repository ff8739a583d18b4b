package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// EarthRadius WGS84 参考椭球长半轴 (米)
const EarthRadius = 6378137.0

var (
	ErrNotNumeric     = errors.New("latitude/longitude must be numeric")
	ErrLatitudeRange  = errors.New("latitude out of WGS84 range (-90 to 90)")
	ErrLongitudeRange = errors.New("longitude out of WGS84 range (-180 to 180)")
)

// DegreesToRadians 角度转弧度
func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// HaversineDistance Haversine 公式 (直接计算两点间球面距离，单位米)
// 用于地图点击命中检测
func HaversineDistance(p1, p2 orb.Point) float64 {
	lat1 := DegreesToRadians(p1.Lat())
	lon1 := DegreesToRadians(p1.Lon())
	lat2 := DegreesToRadians(p2.Lat())
	lon2 := DegreesToRadians(p2.Lon())

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	// a = sin²(Δlat/2) + cos(lat1) * cos(lat2) * sin²(Δlon/2)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// c = 2 * atan2(√a, √(1-a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// ValidLngLat 检查经纬度是否在 WGS84 范围内
func ValidLngLat(p orb.Point) bool {
	return checkRange(p.Lat(), p.Lon()) == nil
}

// ParseWGS84 解析文本形式的纬度和经度，并校验范围
func ParseWGS84(latitude, longitude string) (orb.Point, error) {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latitude), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(longitude), 64)
	if errLat != nil || errLon != nil {
		return orb.Point{}, ErrNotNumeric
	}
	if err := checkRange(lat, lon); err != nil {
		return orb.Point{}, err
	}
	return orb.Point{lon, lat}, nil
}

func checkRange(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return ErrNotNumeric
	}
	if lat < -90 || lat > 90 {
		return ErrLatitudeRange
	}
	if lon < -180 || lon > 180 {
		return ErrLongitudeRange
	}
	return nil
}
