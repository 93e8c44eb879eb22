package model

import (
	"math"
	"strconv"
)

// Role is the playing role inferred from which stat groups an entity has
type Role string

const (
	RoleBatter     Role = "batter"
	RoleBowler     Role = "bowler"
	RoleAllrounder Role = "allrounder"
	RoleUnknown    Role = "unknown"
)

// Identity is one entry of the raw name to pseudonym mapping
type Identity struct {
	RawName   string `json:"raw_name" yaml:"raw_name"`
	Pseudonym string `json:"pseudonym" yaml:"pseudonym"`
}

// PlayerFact is one row of the ground-truth fact sheet.
// Nil numeric fields are missing in every source table.
type PlayerFact struct {
	Pseudonym      string   `json:"pseudonym"`
	Role           Role     `json:"role"`
	Runs           *float64 `json:"runs,omitempty"`
	BatStrikeRate  *float64 `json:"bat_strike_rate,omitempty"`
	OversOB        string   `json:"overs_ob,omitempty"` // "W.B", B counts balls 0-5
	Balls          *int     `json:"balls,omitempty"`
	Wickets        *float64 `json:"wickets,omitempty"`
	BowlStrikeRate *float64 `json:"bowl_strike_rate,omitempty"`
}

// HasBatting reports whether any batting field is present
func (f PlayerFact) HasBatting() bool {
	return f.Runs != nil || f.BatStrikeRate != nil
}

// HasBowling reports whether any bowling field is present
func (f PlayerFact) HasBowling() bool {
	return f.OversOB != "" || f.Balls != nil || f.Wickets != nil || f.BowlStrikeRate != nil
}

// InferRole derives the role from the non-null field groups
func (f PlayerFact) InferRole() Role {
	bat, bowl := f.HasBatting(), f.HasBowling()
	switch {
	case bat && bowl:
		return RoleAllrounder
	case bat:
		return RoleBatter
	case bowl:
		return RoleBowler
	default:
		return RoleUnknown
	}
}

// Metric is one row of the long-format metrics summary
type Metric struct {
	Name           string   `json:"metric"`
	Pseudonym      string   `json:"pseudonym"`
	Runs           *float64 `json:"runs,omitempty"`
	StrikeRate     *float64 `json:"strike_rate,omitempty"`
	OversOB        string   `json:"overs_ob,omitempty"`
	Balls          *int     `json:"balls,omitempty"`
	Wickets        *float64 `json:"wickets,omitempty"`
	BowlStrikeRate *float64 `json:"bowl_strike_rate,omitempty"`
	TieBreak       string   `json:"tie_break"`
}

// Column orders of the ground-truth artifacts
var (
	FactSheetColumns = []string{
		"pseudonym", "role", "runs", "bat_strike_rate", "overs_ob", "balls", "wickets", "bowl_strike_rate",
	}
	MetricColumns = []string{
		"metric", "pseudonym", "runs", "strike_rate", "overs_ob", "balls", "wickets", "bowl_strike_rate", "tie_break",
	}
)

// Round rounds v to dp decimal places, half away from zero
func Round(v float64, dp int) float64 {
	p := math.Pow(10, float64(dp))
	return math.Round(v*p) / p
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v
func Int(v int) *int {
	return &v
}

// FormatFloat renders an optional float for tabular output ("" when missing)
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatInt renders an optional int for tabular output ("" when missing)
func FormatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
