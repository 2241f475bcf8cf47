// Converts a parsed protocol Spec into the gen package's inputs: a
// StaticContext, the initial RobotState, and the ordered operation list.

package protocol

import (
	"fmt"
	"sort"

	"github.com/stepgen/stepgen/gen"
)

// Convert validates the protocol's references and builds the compiler inputs.
// Reference errors (unknown pipette, labware, or well ids in deck and liquid
// declarations) fail here; per-operation validation is the compiler's job.
func Convert(spec *Spec) (*gen.StaticContext, gen.RobotState, []gen.Operation, error) {
	ctx := &gen.StaticContext{
		Pipettes: make(map[string]gen.PipetteSpec, len(spec.Pipettes)),
		Labware:  make(map[string]gen.LabwareDef, len(spec.Labware)),
		Modules:  make(map[string]gen.ModuleDef, len(spec.Modules)),
	}

	for _, lw := range spec.Labware {
		def, err := buildLabware(lw)
		if err != nil {
			return nil, gen.RobotState{}, nil, fmt.Errorf("labware %q: %w", lw.ID, err)
		}
		if _, dup := ctx.Labware[lw.ID]; dup {
			return nil, gen.RobotState{}, nil, fmt.Errorf("duplicate labware id %q", lw.ID)
		}
		ctx.Labware[lw.ID] = def
	}

	for _, p := range spec.Pipettes {
		if p.ID == "" {
			return nil, gen.RobotState{}, nil, fmt.Errorf("pipette with empty id")
		}
		if _, dup := ctx.Pipettes[p.ID]; dup {
			return nil, gen.RobotState{}, nil, fmt.Errorf("duplicate pipette id %q", p.ID)
		}
		if p.MaxVolume <= 0 {
			return nil, gen.RobotState{}, nil, fmt.Errorf("pipette %q: max_volume must be positive", p.ID)
		}
		channels := p.Channels
		if channels == 0 {
			channels = 1
		}
		if channels != 1 && channels != 8 {
			return nil, gen.RobotState{}, nil, fmt.Errorf("pipette %q: channels must be 1 or 8, got %d", p.ID, channels)
		}
		if p.Tiprack != "" {
			rack, ok := ctx.Labware[p.Tiprack]
			if !ok {
				return nil, gen.RobotState{}, nil, fmt.Errorf("pipette %q: tiprack %q is not a declared labware", p.ID, p.Tiprack)
			}
			if !rack.IsTiprack {
				return nil, gen.RobotState{}, nil, fmt.Errorf("pipette %q: labware %q is not a tip rack", p.ID, p.Tiprack)
			}
		}
		ctx.Pipettes[p.ID] = gen.PipetteSpec{
			Name:                    p.Name,
			MaxVolume:               p.MaxVolume,
			MinVolume:               p.MinVolume,
			Channels:                channels,
			DefaultAspirateFlowRate: p.AspirateFlowRate,
			DefaultDispenseFlowRate: p.DispenseFlowRate,
			DefaultBlowoutFlowRate:  p.BlowoutFlowRate,
			TiprackID:               p.Tiprack,
		}
	}

	for _, m := range spec.Modules {
		if m.ID == "" {
			return nil, gen.RobotState{}, nil, fmt.Errorf("module with empty id")
		}
		if _, dup := ctx.Modules[m.ID]; dup {
			return nil, gen.RobotState{}, nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		if m.Labware != "" {
			if _, ok := ctx.Labware[m.Labware]; !ok {
				return nil, gen.RobotState{}, nil, fmt.Errorf("module %q: labware %q is not a declared labware", m.ID, m.Labware)
			}
		}
		ctx.Modules[m.ID] = gen.ModuleDef{Model: m.Model, Slot: m.Slot, LabwareID: m.Labware}
	}

	if spec.Trash.Labware != "" {
		if _, cerr := ctx.Well(spec.Trash.Labware, spec.Trash.Well); cerr != nil {
			return nil, gen.RobotState{}, nil, fmt.Errorf("trash location: %s", cerr.Message)
		}
	}

	state := gen.NewRobotState()
	for _, p := range spec.Pipettes {
		if p.StartsWithTip {
			state = state.WithTip(p.ID, true)
		}
	}
	for _, liq := range spec.Liquids {
		if _, cerr := ctx.Well(liq.Labware, liq.Well); cerr != nil {
			return nil, gen.RobotState{}, nil, fmt.Errorf("liquid placement: %s", cerr.Message)
		}
		if liq.Volume < 0 {
			return nil, gen.RobotState{}, nil, fmt.Errorf("liquid placement %s/%s: negative volume", liq.Labware, liq.Well)
		}
		key := gen.WellKey{Labware: liq.Labware, Well: liq.Well}
		ingredient := liq.Ingredient
		if ingredient == "" {
			ingredient = "unnamed"
		}
		contents := state.Liquids[key]
		volume := contents.Volume + liq.Volume
		ingredients := map[string]float64{ingredient: liq.Volume}
		for name, vol := range contents.Ingredients {
			ingredients[name] += vol
		}
		state = state.WithLiquid(key, gen.WellContents{Volume: volume, Ingredients: ingredients})
	}

	ops := make([]gen.Operation, 0, len(spec.Operations))
	for i, opSpec := range spec.Operations {
		op, err := buildOperation(spec, opSpec)
		if err != nil {
			return nil, gen.RobotState{}, nil, fmt.Errorf("operation %d (%s): %w", i, opSpec.Kind, err)
		}
		ops = append(ops, op)
	}

	return ctx, state, ops, nil
}

// buildLabware expands a LabwareSpec into a LabwareDef, generating grid wells
// when no explicit well map is given.
func buildLabware(lw LabwareSpec) (gen.LabwareDef, error) {
	if lw.ID == "" {
		return gen.LabwareDef{}, fmt.Errorf("labware with empty id")
	}
	def := gen.LabwareDef{Name: lw.Name, IsTiprack: lw.IsTiprack}
	switch {
	case len(lw.Wells) > 0:
		def.Wells = make(map[string]gen.WellDef, len(lw.Wells))
		for name, w := range lw.Wells {
			def.Wells[name] = gen.WellDef{MaxVolume: w.MaxVolume, DepthMm: w.DepthMm}
		}
		// Explicit wells keep grid ordering when rows/cols are also given;
		// otherwise names are sorted column-major so that tip consumption and
		// iteration order are deterministic regardless of map iteration.
		if lw.Rows > 0 && lw.Cols > 0 {
			def.Ordering = gen.GenerateWellOrdering(lw.Rows, lw.Cols)
			for _, name := range def.Ordering {
				if _, ok := lw.Wells[name]; !ok {
					return gen.LabwareDef{}, fmt.Errorf("grid declares well %q but no geometry was given", name)
				}
			}
		} else {
			def.Ordering = orderedWellNames(lw.Wells)
		}
	case lw.Rows > 0 && lw.Cols > 0:
		def.Ordering = gen.GenerateWellOrdering(lw.Rows, lw.Cols)
		def.Wells = make(map[string]gen.WellDef, len(def.Ordering))
		for _, name := range def.Ordering {
			def.Wells[name] = gen.WellDef{MaxVolume: lw.WellMaxVolume, DepthMm: lw.WellDepthMm}
		}
	default:
		return gen.LabwareDef{}, fmt.Errorf("labware needs either rows/cols or an explicit well map")
	}
	return def, nil
}

// orderedWellNames sorts an explicit well map into column-major order
// (column number, then row letter), matching generated grid orderings.
func orderedWellNames(wells map[string]WellSpec) []string {
	names := make([]string, 0, len(wells))
	for name := range wells {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := gen.WellColumn(names[i]), gen.WellColumn(names[j])
		if ci != cj {
			return ci < cj
		}
		return names[i] < names[j]
	})
	return names
}

// buildOptions maps the shared sub-behavior fields onto gen.PipettingOptions,
// defaulting disposal and drop-tip locations to the protocol trash.
func buildOptions(spec *Spec, op OperationSpec) gen.PipettingOptions {
	opts := gen.PipettingOptions{
		ChangeTip:            gen.ChangeTipPolicy(op.ChangeTip),
		PreWetTip:            op.PreWetTip,
		AspirateAirGapVolume: op.AspirateAirGapVolume,
		DisposalVolume:       op.DisposalVolume,
		BlowoutFlowRate:      op.BlowoutFlowRate,
		BlowoutOffsetMm:      op.BlowoutOffsetMm,
		AspirateFlowRate:     op.AspirateFlowRate,
		DispenseFlowRate:     op.DispenseFlowRate,

		AspirateOffsetFromBottomMm: op.AspirateOffsetMmFromBottom,
		DispenseOffsetFromBottomMm: op.DispenseOffsetMmFromBottom,

		DropTipLabware: spec.Trash.Labware,
		DropTipWell:    spec.Trash.Well,
	}
	if opts.ChangeTip == "" {
		opts.ChangeTip = gen.ChangeTipAlways
	}
	if op.MixBeforeAspirate != nil {
		opts.MixBeforeAspirate = &gen.MixSpec{Times: op.MixBeforeAspirate.Times, Volume: op.MixBeforeAspirate.Volume}
	}
	if op.AspirateDelay != nil {
		opts.AspirateDelay = &gen.DelaySpec{Seconds: op.AspirateDelay.Seconds, MmFromBottom: op.AspirateDelay.MmFromBottom}
	}
	if op.DispenseDelay != nil {
		opts.DispenseDelay = &gen.DelaySpec{Seconds: op.DispenseDelay.Seconds, MmFromBottom: op.DispenseDelay.MmFromBottom}
	}
	if op.TouchTipAfterAspirate != nil {
		opts.TouchTipAfterAspirate = true
		opts.TouchTipAfterAspirateOffsetMm = op.TouchTipAfterAspirate.OffsetMmFromBottom
	}
	if op.TouchTipAfterDispense != nil {
		opts.TouchTipAfterDispense = true
		opts.TouchTipAfterDispenseOffsetMm = op.TouchTipAfterDispense.OffsetMmFromBottom
	}
	if op.DisposalLocation != nil {
		opts.DisposalLabware = op.DisposalLocation.Labware
		opts.DisposalWell = op.DisposalLocation.Well
	} else if op.DisposalVolume > 0 {
		opts.DisposalLabware = spec.Trash.Labware
		opts.DisposalWell = spec.Trash.Well
	}
	return opts
}

// buildOperation maps one OperationSpec onto the matching compound creator
// arguments, checking the fields its kind requires.
func buildOperation(spec *Spec, op OperationSpec) (gen.Operation, error) {
	opts := buildOptions(spec, op)
	switch op.Kind {
	case "distribute":
		if op.Source == nil || op.DestLabware == "" || len(op.DestWells) == 0 {
			return nil, fmt.Errorf("distribute requires source and dest_labware/dest_wells")
		}
		return gen.DistributeArgs{
			Pipette:       op.Pipette,
			SourceLabware: op.Source.Labware,
			SourceWell:    op.Source.Well,
			DestLabware:   op.DestLabware,
			DestWells:     op.DestWells,
			VolumePerWell: op.Volume,
			Options:       opts,
		}, nil
	case "consolidate":
		if op.Dest == nil || op.SourceLabware == "" || len(op.SourceWells) == 0 {
			return nil, fmt.Errorf("consolidate requires dest and source_labware/source_wells")
		}
		args := gen.ConsolidateArgs{
			Pipette:       op.Pipette,
			SourceLabware: op.SourceLabware,
			SourceWells:   op.SourceWells,
			DestLabware:   op.Dest.Labware,
			DestWell:      op.Dest.Well,
			VolumePerWell: op.Volume,
			Options:       opts,
		}
		if op.MixInDestination != nil {
			args.MixInDestination = &gen.MixSpec{Times: op.MixInDestination.Times, Volume: op.MixInDestination.Volume}
		}
		return args, nil
	case "transfer":
		if op.SourceLabware == "" || op.DestLabware == "" {
			return nil, fmt.Errorf("transfer requires source_labware/source_wells and dest_labware/dest_wells")
		}
		return gen.TransferArgs{
			Pipette:       op.Pipette,
			SourceLabware: op.SourceLabware,
			SourceWells:   op.SourceWells,
			DestLabware:   op.DestLabware,
			DestWells:     op.DestWells,
			Volume:        op.Volume,
			Options:       opts,
		}, nil
	case "mix":
		if op.Labware == "" || len(op.Wells) == 0 {
			return nil, fmt.Errorf("mix requires labware and wells")
		}
		return gen.MixArgs{
			Pipette:      op.Pipette,
			Labware:      op.Labware,
			Wells:        op.Wells,
			Times:        op.Times,
			Volume:       op.Volume,
			Options:      opts,
			BlowoutAfter: op.BlowoutAfter,
		}, nil
	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
