package telemetry

import (
	"math"
	"time"
)

// OEEPoint is one day of overall equipment effectiveness
type OEEPoint struct {
	Date         string  `json:"date"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
}

// OEESeries generates days points, oldest first, the last one dated now
func OEESeries(now time.Time, r Rand, days int) []OEEPoint {
	if days <= 0 {
		return []OEEPoint{}
	}

	points := make([]OEEPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)

		availability := round2(85 + r.Float64()*10)
		performance := round2(80 + r.Float64()*15)
		quality := round2(90 + r.Float64()*8)

		points = append(points, OEEPoint{
			Date:         date.Format("Jan 2"),
			Availability: availability,
			Performance:  performance,
			Quality:      quality,
			OEE:          round2((availability + performance + quality) / 3),
		})
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
