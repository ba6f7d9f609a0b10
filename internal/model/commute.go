package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type CommuteType string

const (
	CommuteCycle           CommuteType = "cycle"
	CommuteWalk            CommuteType = "walk"
	CommutePublicTransport CommuteType = "public_transport"
	CommuteCarpool         CommuteType = "carpool"
	CommuteElectricVehicle CommuteType = "electric_vehicle"
	CommuteGasVehicle      CommuteType = "gas_vehicle"
	CommuteRemoteWork      CommuteType = "remote_work"
)

// CommuteTypes lists every known mode in display order.
var CommuteTypes = []CommuteType{
	CommuteCycle,
	CommuteWalk,
	CommutePublicTransport,
	CommuteCarpool,
	CommuteElectricVehicle,
	CommuteGasVehicle,
	CommuteRemoteWork,
}

const MaxDaysPerWeek = 7

var titleCaser = cases.Title(language.English)

func (t CommuteType) Valid() bool {
	for _, known := range CommuteTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Sustainable reports whether the mode counts towards streaks.
func (t CommuteType) Sustainable() bool {
	return t.Valid() && t != CommuteGasVehicle
}

// Label returns a human readable name, e.g. "Public Transport".
func (t CommuteType) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(t), "_", " "))
}

var ErrInvalidCommuteLog = errors.New("invalid commute log")

type CommuteLog struct {
	ID           string      `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"user_id"`
	CommuteType  CommuteType `db:"commute_type" json:"commute_type"`
	DaysLogged   int         `db:"days_logged" json:"days_logged"`
	DistanceKm   float64     `db:"distance_km" json:"distance_km"`
	WeekStart    time.Time   `db:"week_start" json:"week_start"`
	CO2Saved     int         `db:"co2_saved" json:"co2_saved"`
	PointsEarned int         `db:"points_earned" json:"points_earned"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// Validate rejects records that could not have been produced by the server.
func (l *CommuteLog) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: null commute log", ErrInvalidCommuteLog)
	}
	if l.ID == "" || l.UserID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidCommuteLog)
	}
	if !l.CommuteType.Valid() {
		return fmt.Errorf("%w: unknown commute type %q", ErrInvalidCommuteLog, l.CommuteType)
	}
	if l.DaysLogged < 0 || l.DaysLogged > MaxDaysPerWeek {
		return fmt.Errorf("%w: days_logged %d out of range", ErrInvalidCommuteLog, l.DaysLogged)
	}
	if l.DistanceKm < 0 {
		return fmt.Errorf("%w: negative distance", ErrInvalidCommuteLog)
	}
	if l.WeekStart.IsZero() {
		return fmt.Errorf("%w: missing week_start", ErrInvalidCommuteLog)
	}
	return nil
}

// CommuteLogInput is the body of a create request.
type CommuteLogInput struct {
	CommuteType CommuteType `json:"commute_type"`
	DaysLogged  int         `json:"days_logged"`
	DistanceKm  float64     `json:"distance_km"`
	WeekStart   time.Time   `json:"week_start"`
}

type UserStats struct {
	CO2Saved            int `json:"co2_saved"`
	Points              int `json:"points"`
	Streak              int `json:"streak"`
	CompletedChallenges int `json:"completed_challenges"`
	TotalDaysLogged     int `json:"total_days_logged"`
}
