package engine

import (
	"fmt"
	"math"

	"github.com/shaiso/Foreman/internal/domain"
)

// Радиус Земли в метрах.
const earthRadiusMeters = 6371000.0

// Пороги точности GPS.
const (
	// accuracyWarnMeters — выше этого значения к результату
	// прикрепляется предупреждение о низкой точности.
	accuracyWarnMeters = 50.0

	// accuracyRetryMeters — выше этого значения при провале строгой
	// проверки допускается повтор с эффективным радиусом radius+accuracy.
	accuracyRetryMeters = 100.0
)

// GeofenceResult — результат валидации локации против геозоны.
type GeofenceResult struct {
	// InsideGeofence — точка внутри радиуса геозоны.
	// Не переопределяется accuracy-поправкой.
	InsideGeofence bool `json:"inside_geofence"`

	// DistanceMeters — измеренное расстояние до центра.
	DistanceMeters float64 `json:"distance_meters"`

	// IsValid — локация принята с учётом режима и допусков.
	IsValid bool `json:"is_valid"`

	// AccuracyAdjusted — IsValid получен через lenient-повтор
	// с эффективным радиусом radius+accuracy.
	AccuracyAdjusted bool `json:"accuracy_adjusted,omitempty"`

	// AccuracyWarning — предупреждение о низкой точности GPS.
	AccuracyWarning string `json:"accuracy_warning,omitempty"`

	// Message — человекочитаемое описание результата.
	Message string `json:"message"`
}

// ValidateLocation проверяет точку против геозоны.
//
// Расстояние считается по формуле гаверсинусов. В строгом режиме
// допустимая дистанция — radius; иначе radius+allowed_variance.
// Обработка точности GPS:
//   - accuracy > 50 м: к результату прикрепляется предупреждение
//   - accuracy > 100 м и проверка провалена: повтор с эффективным
//     радиусом radius+accuracy; успех помечается AccuracyAdjusted
//     и никогда не переопределяет InsideGeofence
func ValidateLocation(loc domain.Location, region domain.GeofenceRegion) GeofenceResult {
	distance := HaversineMeters(
		loc.Latitude, loc.Longitude,
		region.CenterLatitude, region.CenterLongitude,
	)

	allowed := region.RadiusMeters
	if !region.StrictMode {
		allowed += region.AllowedVarianceMeters
	}

	res := GeofenceResult{
		InsideGeofence: distance <= region.RadiusMeters,
		DistanceMeters: distance,
		IsValid:        distance <= allowed,
	}

	if loc.AccuracyMeters > accuracyWarnMeters {
		res.AccuracyWarning = fmt.Sprintf("low GPS accuracy: %.0fm", loc.AccuracyMeters)
	}

	if !res.IsValid && loc.AccuracyMeters > accuracyRetryMeters {
		effective := region.RadiusMeters + loc.AccuracyMeters
		if distance <= effective {
			res.IsValid = true
			res.AccuracyAdjusted = true
		}
	}

	switch {
	case res.IsValid && res.AccuracyAdjusted:
		res.Message = fmt.Sprintf("accepted with accuracy adjustment: %.0fm from center, radius %.0fm, accuracy %.0fm",
			distance, region.RadiusMeters, loc.AccuracyMeters)
	case res.IsValid:
		res.Message = fmt.Sprintf("inside allowed area: %.0fm from center, allowed %.0fm", distance, allowed)
	default:
		res.Message = fmt.Sprintf("outside allowed area: %.0fm from center, allowed %.0fm", distance, allowed)
	}

	return res
}

// HaversineMeters возвращает great-circle расстояние между двумя
// точками WGS84 в метрах.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	rLat1 := lat1 * degToRad
	rLng1 := lng1 * degToRad
	rLat2 := lat2 * degToRad
	rLng2 := lng2 * degToRad

	dLat := rLat2 - rLat1
	dLng := rLng2 - rLng1

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Pow(math.Sin(dLng/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
