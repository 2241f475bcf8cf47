// Package protocol defines the YAML protocol file consumed by the stepgen
// CLI: the deck layout, pipette specs, initial liquid placements, and the
// ordered list of declarative operations to compile.
package protocol

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the top-level protocol document. Loaded from YAML via Load(path).
type Spec struct {
	Version    string          `yaml:"version"`
	Trash      LocationSpec    `yaml:"trash"`
	Pipettes   []PipetteSpec   `yaml:"pipettes"`
	Labware    []LabwareSpec   `yaml:"labware"`
	Modules    []ModuleSpec    `yaml:"modules,omitempty"`
	Liquids    []LiquidSpec    `yaml:"liquids,omitempty"`
	Operations []OperationSpec `yaml:"operations"`
}

// LocationSpec addresses one well on one piece of labware.
type LocationSpec struct {
	Labware string `yaml:"labware"`
	Well    string `yaml:"well"`
}

// PipetteSpec declares a mounted pipette.
type PipetteSpec struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	MaxVolume        float64 `yaml:"max_volume"`
	MinVolume        float64 `yaml:"min_volume,omitempty"`
	Channels         int     `yaml:"channels"`
	AspirateFlowRate float64 `yaml:"aspirate_flow_rate,omitempty"`
	DispenseFlowRate float64 `yaml:"dispense_flow_rate,omitempty"`
	BlowoutFlowRate  float64 `yaml:"blowout_flow_rate,omitempty"`
	Tiprack          string  `yaml:"tiprack,omitempty"`
	// StartsWithTip seeds the initial state with a tip already attached, the
	// only way a change_tip=never operation can open the protocol.
	StartsWithTip bool `yaml:"starts_with_tip,omitempty"`
}

// LabwareSpec declares one piece of labware. Wells come either from a
// rows x cols grid with uniform geometry, or from an explicit well map.
type LabwareSpec struct {
	ID            string              `yaml:"id"`
	Name          string              `yaml:"name,omitempty"`
	IsTiprack     bool                `yaml:"tiprack,omitempty"`
	Rows          int                 `yaml:"rows,omitempty"`
	Cols          int                 `yaml:"cols,omitempty"`
	WellMaxVolume float64             `yaml:"well_max_volume,omitempty"`
	WellDepthMm   float64             `yaml:"well_depth_mm,omitempty"`
	Wells         map[string]WellSpec `yaml:"wells,omitempty"`
}

// WellSpec declares explicit geometry for a single well.
type WellSpec struct {
	MaxVolume float64 `yaml:"max_volume"`
	DepthMm   float64 `yaml:"depth_mm"`
}

// ModuleSpec declares a deck module and the labware it hosts.
type ModuleSpec struct {
	ID      string `yaml:"id"`
	Model   string `yaml:"model"`
	Slot    string `yaml:"slot,omitempty"`
	Labware string `yaml:"labware,omitempty"`
}

// LiquidSpec places an initial liquid volume in a well.
type LiquidSpec struct {
	Labware    string  `yaml:"labware"`
	Well       string  `yaml:"well"`
	Ingredient string  `yaml:"ingredient,omitempty"`
	Volume     float64 `yaml:"volume"`
}

// MixSpec configures a mix sub-behavior.
type MixSpec struct {
	Times  int     `yaml:"times"`
	Volume float64 `yaml:"volume"`
}

// DelaySpec configures a wait, optionally held at a height.
type DelaySpec struct {
	Seconds      float64 `yaml:"seconds"`
	MmFromBottom float64 `yaml:"mm_from_bottom,omitempty"`
}

// TouchTipSpec configures a touch-tip sub-behavior.
type TouchTipSpec struct {
	OffsetMmFromBottom float64 `yaml:"offset_mm_from_bottom,omitempty"`
}

// OperationSpec is one declarative step, tagged by Kind. Field applicability
// follows the kind: distribute reads Source + DestWells, consolidate reads
// SourceWells + Dest, transfer reads SourceWells + DestWells, mix reads
// Labware + Wells.
type OperationSpec struct {
	Kind    string `yaml:"kind"`
	Pipette string `yaml:"pipette"`

	Source        *LocationSpec `yaml:"source,omitempty"`
	Dest          *LocationSpec `yaml:"dest,omitempty"`
	SourceLabware string        `yaml:"source_labware,omitempty"`
	SourceWells   []string      `yaml:"source_wells,omitempty"`
	DestLabware   string        `yaml:"dest_labware,omitempty"`
	DestWells     []string      `yaml:"dest_wells,omitempty"`
	Labware       string        `yaml:"labware,omitempty"`
	Wells         []string      `yaml:"wells,omitempty"`

	Volume float64 `yaml:"volume"`
	Times  int     `yaml:"times,omitempty"`

	ChangeTip string `yaml:"change_tip,omitempty"`

	MixBeforeAspirate *MixSpec `yaml:"mix_before_aspirate,omitempty"`
	MixInDestination  *MixSpec `yaml:"mix_in_destination,omitempty"`
	PreWetTip         bool     `yaml:"pre_wet_tip,omitempty"`

	AspirateDelay *DelaySpec `yaml:"aspirate_delay,omitempty"`
	DispenseDelay *DelaySpec `yaml:"dispense_delay,omitempty"`

	AspirateAirGapVolume float64 `yaml:"aspirate_air_gap_volume,omitempty"`

	TouchTipAfterAspirate *TouchTipSpec `yaml:"touch_tip_after_aspirate,omitempty"`
	TouchTipAfterDispense *TouchTipSpec `yaml:"touch_tip_after_dispense,omitempty"`

	DisposalVolume   float64       `yaml:"disposal_volume,omitempty"`
	DisposalLocation *LocationSpec `yaml:"disposal_location,omitempty"`

	BlowoutFlowRate float64 `yaml:"blowout_flow_rate,omitempty"`
	BlowoutOffsetMm float64 `yaml:"blowout_offset_mm,omitempty"`
	BlowoutAfter    bool    `yaml:"blowout_after,omitempty"`

	AspirateFlowRate float64 `yaml:"aspirate_flow_rate,omitempty"`
	DispenseFlowRate float64 `yaml:"dispense_flow_rate,omitempty"`

	AspirateOffsetMmFromBottom float64 `yaml:"aspirate_offset_mm_from_bottom,omitempty"`
	DispenseOffsetMmFromBottom float64 `yaml:"dispense_offset_mm_from_bottom,omitempty"`
}

// Load reads and parses a protocol file. Returns wrapped errors for IO and
// YAML problems; reference validation happens in Convert.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading protocol file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a protocol document from bytes.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing protocol YAML: %w", err)
	}
	if len(spec.Operations) == 0 {
		return nil, fmt.Errorf("protocol declares no operations")
	}
	return &spec, nil
}
