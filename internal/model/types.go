// Package model defines shared data structures.
package model

import "time"

// SweepConfig holds the settings a simulation starts from.
type SweepConfig struct {
	Device      string
	VCEInput    float64
	IBOutput    float64
	VCETransfer float64
}

// OutputConfig holds presentation and persistence settings.
type OutputConfig struct {
	PlotHeight int
	ExportDir  string
	History    bool
}

// RunFilter narrows history listings.
type RunFilter struct {
	Device string
	Kind   string
	Last   int
}

// RunRecord summarizes a stored sweep.
type RunRecord struct {
	ID         int64
	UUID       string
	CreatedAt  time.Time
	Device     string
	Kind       string
	FixedName  string
	FixedValue float64
	FixedUnit  string
	Points     int
}

// ParameterRecord is a stored set of extracted parameters.
type ParameterRecord struct {
	ID              int64
	CreatedAt       time.Time
	Device          string
	InputImpedance  float64
	OutputImpedance float64
	CurrentGain     float64
}
