// Package impact holds the pure calculations behind Trak's dashboard:
// CO2 savings, points, streaks, challenge progress and ranking.
package impact

import (
	"math"

	"github.com/trakapp/trak/internal/model"
)

// BaselineFactor is the emission factor of an average gasoline car in kg CO2 per km.
const BaselineFactor = 0.19

var emissionFactors = map[model.CommuteType]float64{
	model.CommuteWalk:            0,
	model.CommuteCycle:           0,
	model.CommutePublicTransport: 0.03,
	model.CommuteCarpool:         0.07,
	model.CommuteElectricVehicle: 0.05,
	model.CommuteGasVehicle:      0.19,
	model.CommuteRemoteWork:      0,
}

// EmissionFactor returns kg CO2 per km for t. Unknown modes count as 0.
func EmissionFactor(t model.CommuteType) float64 {
	return emissionFactors[t]
}

// CO2Saved returns the whole kilograms of CO2 saved against the baseline car.
func CO2Saved(t model.CommuteType, distanceKm float64, daysLogged int) int {
	saved := (BaselineFactor - EmissionFactor(t)) * distanceKm * float64(daysLogged)
	return int(math.Round(math.Max(0, saved)))
}

var pointsPerDay = map[model.CommuteType]int{
	model.CommuteCycle:           10,
	model.CommuteWalk:            10,
	model.CommutePublicTransport: 6,
	model.CommuteCarpool:         4,
	model.CommuteElectricVehicle: 3,
	model.CommuteRemoteWork:      5,
	model.CommuteGasVehicle:      0,
}

// Points returns the points earned for logging daysLogged days of t.
func Points(t model.CommuteType, daysLogged int) int {
	if daysLogged <= 0 {
		return 0
	}
	return pointsPerDay[t] * daysLogged
}
