// Defines RobotState, the immutable snapshot of every dynamic fact a command
// can affect: tip presence per pipette, tracked liquid per well, and tip-rack
// depletion. State is replaced after each atomic step, never mutated.

package gen

import "fmt"

// WellKey addresses one well on one piece of labware.
type WellKey struct {
	Labware string
	Well    string
}

func (k WellKey) String() string {
	return k.Labware + "/" + k.Well
}

// WellContents tracks the liquid in a single well. Ingredients maps an
// ingredient (liquid group) id to the volume of that ingredient present;
// the per-ingredient volumes sum to at most Volume.
type WellContents struct {
	Volume      float64
	Ingredients map[string]float64
}

// RobotState is one simulation snapshot. Update helpers return a fresh
// snapshot with copied maps; callers hold the old value unchanged, which is
// what makes short-circuit-and-discard failure handling trivial.
type RobotState struct {
	// Tips records whether a pipette currently carries a tip.
	Tips map[string]bool
	// Liquids tracks per-well volume and composition.
	Liquids map[WellKey]WellContents
	// UsedTips marks tip-rack wells whose tip has been consumed.
	UsedTips map[WellKey]bool
}

// NewRobotState creates an empty snapshot: no tips held, no tracked liquid,
// no tips consumed.
func NewRobotState() RobotState {
	return RobotState{
		Tips:     make(map[string]bool),
		Liquids:  make(map[WellKey]WellContents),
		UsedTips: make(map[WellKey]bool),
	}
}

// clone returns a deep copy. Every with* helper goes through here so that no
// caller ever observes a shared map.
func (s RobotState) clone() RobotState {
	next := RobotState{
		Tips:     make(map[string]bool, len(s.Tips)),
		Liquids:  make(map[WellKey]WellContents, len(s.Liquids)),
		UsedTips: make(map[WellKey]bool, len(s.UsedTips)),
	}
	for k, v := range s.Tips {
		next.Tips[k] = v
	}
	for k, v := range s.Liquids {
		ing := make(map[string]float64, len(v.Ingredients))
		for name, vol := range v.Ingredients {
			ing[name] = vol
		}
		next.Liquids[k] = WellContents{Volume: v.Volume, Ingredients: ing}
	}
	for k, v := range s.UsedTips {
		next.UsedTips[k] = v
	}
	return next
}

// WithTip returns a snapshot where the pipette's tip presence is set.
func (s RobotState) WithTip(pipette string, hasTip bool) RobotState {
	next := s.clone()
	next.Tips[pipette] = hasTip
	return next
}

// WithUsedTip returns a snapshot where the given tip-rack well is consumed.
func (s RobotState) WithUsedTip(key WellKey) RobotState {
	next := s.clone()
	next.UsedTips[key] = true
	return next
}

// WithLiquid returns a snapshot where the well's contents are replaced.
func (s RobotState) WithLiquid(key WellKey, contents WellContents) RobotState {
	next := s.clone()
	next.Liquids[key] = contents
	return next
}

// WithLiquidRemoved returns a snapshot with volume drawn out of the well,
// scaling tracked ingredients down proportionally. Removing more than the
// tracked volume clamps the well at zero; the caller decides whether that
// deserves a warning.
func (s RobotState) WithLiquidRemoved(key WellKey, volume float64) RobotState {
	next := s.clone()
	contents := next.Liquids[key]
	if volume >= contents.Volume {
		next.Liquids[key] = WellContents{Volume: 0, Ingredients: map[string]float64{}}
		return next
	}
	remaining := contents.Volume - volume
	scale := remaining / contents.Volume
	ing := make(map[string]float64, len(contents.Ingredients))
	for name, vol := range contents.Ingredients {
		ing[name] = vol * scale
	}
	next.Liquids[key] = WellContents{Volume: remaining, Ingredients: ing}
	return next
}

// WithLiquidAdded returns a snapshot with volume pushed into the well.
// Composition of the incoming liquid is not attributed at this level; the
// compound creator is the layer that knows what the pipette holds.
func (s RobotState) WithLiquidAdded(key WellKey, volume float64) RobotState {
	next := s.clone()
	contents := next.Liquids[key]
	contents.Volume += volume
	next.Liquids[key] = contents
	return next
}

// HasTip reports whether the pipette currently carries a tip.
func (s RobotState) HasTip(pipette string) bool {
	return s.Tips[pipette]
}

// TipUsed reports whether the tip-rack well has been consumed.
func (s RobotState) TipUsed(key WellKey) bool {
	return s.UsedTips[key]
}

func (s RobotState) String() string {
	return fmt.Sprintf("RobotState: (tips: %d pipettes, liquids: %d wells, usedTips: %d)",
		len(s.Tips), len(s.Liquids), len(s.UsedTips))
}
