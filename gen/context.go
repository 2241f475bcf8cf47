package gen

import "fmt"

// PipetteSpec describes one mounted pipette. Specs come from a static
// catalog and are never mutated during compilation.
type PipetteSpec struct {
	Name      string  // catalog model name (e.g. "p300_single")
	MaxVolume float64 // hard capacity ceiling in uL
	MinVolume float64 // smallest accurate volume in uL
	Channels  int     // 1 or 8

	DefaultAspirateFlowRate float64 // uL/s
	DefaultDispenseFlowRate float64 // uL/s
	DefaultBlowoutFlowRate  float64 // uL/s

	// TiprackID names the labware this pipette draws fresh tips from.
	TiprackID string
}

// WellDef describes the geometry of a single well.
type WellDef struct {
	MaxVolume float64 // uL
	DepthMm   float64 // vertical extent, used for touch-tip and blow-out offsets
}

// LabwareDef describes one piece of labware on the deck.
type LabwareDef struct {
	Name      string
	IsTiprack bool
	// Ordering lists well names in column-major order (A1, B1, ... A2, B2, ...),
	// the order in which tips are consumed and wells are iterated.
	Ordering []string
	Wells    map[string]WellDef
}

// ModuleDef describes one deck module (temperature, magnetic, thermocycler)
// and its placement. Modules host labware; no instruction targets a module
// directly, so the registry is consulted only at protocol validation time.
type ModuleDef struct {
	Model string // catalog model name (e.g. "temperatureModuleV2")
	Slot  string // deck slot the module occupies
	// LabwareID names the labware sitting on the module, if any.
	LabwareID string
}

// StaticContext is the read-only catalog shared by every command creator in
// a compilation run. It is constructed once and never mutated, so a single
// context may back compilations of independent operations concurrently.
type StaticContext struct {
	Pipettes map[string]PipetteSpec
	Labware  map[string]LabwareDef
	Modules  map[string]ModuleDef
}

// Pipette resolves a pipette id, or returns a PIPETTE_DOES_NOT_EXIST error.
func (ctx *StaticContext) Pipette(id string) (PipetteSpec, *CommandError) {
	spec, ok := ctx.Pipettes[id]
	if !ok {
		return PipetteSpec{}, &CommandError{
			Kind:    ErrPipetteDoesNotExist,
			Message: fmt.Sprintf("pipette %q is not in the pipette registry", id),
			Detail:  id,
		}
	}
	return spec, nil
}

// LabwareByID resolves a labware id, or returns a LABWARE_DOES_NOT_EXIST error.
func (ctx *StaticContext) LabwareByID(id string) (LabwareDef, *CommandError) {
	def, ok := ctx.Labware[id]
	if !ok {
		return LabwareDef{}, &CommandError{
			Kind:    ErrLabwareDoesNotExist,
			Message: fmt.Sprintf("labware %q is not in the labware registry", id),
			Detail:  id,
		}
	}
	return def, nil
}

// Well resolves a well within a labware, or returns the first applicable
// LABWARE_DOES_NOT_EXIST / WELL_DOES_NOT_EXIST error.
func (ctx *StaticContext) Well(labwareID, well string) (WellDef, *CommandError) {
	def, cerr := ctx.LabwareByID(labwareID)
	if cerr != nil {
		return WellDef{}, cerr
	}
	w, ok := def.Wells[well]
	if !ok {
		return WellDef{}, &CommandError{
			Kind:    ErrWellDoesNotExist,
			Message: fmt.Sprintf("well %q does not exist in labware %q", well, labwareID),
			Detail:  labwareID + "/" + well,
		}
	}
	return w, nil
}
