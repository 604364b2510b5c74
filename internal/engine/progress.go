package engine

import (
	"math"

	"github.com/shaiso/Foreman/internal/domain"
)

// RecomputeEstimate пересчитывает elapsed/remaining по прогрессу.
//
// Чистая функция:
//
//	elapsed   = min(estimated, percent/100 * estimated)
//	remaining = max(0, estimated - elapsed)
//
// Монотонность прогресса гарантируется контроллером, поэтому
// elapsed никогда не убывает между вызовами.
func RecomputeEstimate(estimatedMinutes int, percent float64) domain.TimeEstimate {
	est := float64(estimatedMinutes)

	elapsed := est * percent / 100
	if elapsed > est {
		elapsed = est
	}

	remaining := est - elapsed
	if remaining < 0 {
		remaining = 0
	}

	return domain.TimeEstimate{
		EstimatedMinutes: estimatedMinutes,
		ElapsedMinutes:   int(math.Round(elapsed)),
		RemainingMinutes: int(math.Round(remaining)),
	}
}
