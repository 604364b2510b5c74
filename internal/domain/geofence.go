package domain

// GeofenceRegion — круговая геозона вокруг опорной точки проекта.
//
// Read-only вход для валидации: регион привязан к проекту и
// не изменяется движком.
type GeofenceRegion struct {
	// CenterLatitude, CenterLongitude — центр геозоны (WGS84).
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`

	// RadiusMeters — допустимый радиус.
	RadiusMeters float64 `json:"radius_meters"`

	// StrictMode — требовать строгого попадания в радиус.
	// Если false, допускается AllowedVarianceMeters сверх радиуса.
	StrictMode bool `json:"strict_mode"`

	// AllowedVarianceMeters — допуск сверх радиуса в нестрогом режиме.
	AllowedVarianceMeters float64 `json:"allowed_variance_meters"`
}

// Location — точка, присланная мобильным клиентом.
type Location struct {
	// Latitude, Longitude — координаты (WGS84).
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// AccuracyMeters — оценка точности GPS в метрах.
	// 0 — точность не передана.
	AccuracyMeters float64 `json:"accuracy_meters,omitempty"`
}
