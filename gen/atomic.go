// Atomic command creators: pure functions that turn arguments plus the
// current RobotState into exactly one Instruction and a successor state, or a
// fatal CommandError. Creators validate "just in time" against the state they
// are given; they never mutate it.

package gen

import "fmt"

// StepResult is the successful outcome of one atomic step.
type StepResult struct {
	Instruction Instruction
	State       RobotState
	Warnings    []CommandWarning
}

// CommandCreator produces one atomic step. Creators are the only unit the
// Accumulator knows how to apply.
type CommandCreator func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError)

// LiquidArgs parameterizes aspirate, dispense, and the air-gap variants.
type LiquidArgs struct {
	Pipette            string
	Labware            string
	Well               string
	Volume             float64
	FlowRate           float64 // 0 means the pipette's default for the action
	OffsetFromBottomMm float64
}

// PositionArgs parameterizes touch-tip and move-to-well.
type PositionArgs struct {
	Pipette            string
	Labware            string
	Well               string
	OffsetFromBottomMm float64
}

// BlowoutArgs parameterizes blow-out.
type BlowoutArgs struct {
	Pipette            string
	Labware            string
	Well               string
	FlowRate           float64 // 0 means the pipette's default blow-out rate
	OffsetFromBottomMm float64
}

// validateLiquidStep runs the checks shared by all four liquid-moving kinds.
func validateLiquidStep(ctx *StaticContext, state RobotState, args LiquidArgs) (PipetteSpec, *CommandError) {
	spec, cerr := ctx.Pipette(args.Pipette)
	if cerr != nil {
		return PipetteSpec{}, cerr
	}
	if _, cerr := ctx.Well(args.Labware, args.Well); cerr != nil {
		return PipetteSpec{}, cerr
	}
	if args.Volume > spec.MaxVolume+volumeTolerance {
		return PipetteSpec{}, &CommandError{
			Kind: ErrPipetteVolumeExceeded,
			Message: fmt.Sprintf("volume %.1fuL exceeds pipette %q capacity %.1fuL",
				args.Volume, args.Pipette, spec.MaxVolume),
			Detail: args.Pipette,
		}
	}
	if !state.HasTip(args.Pipette) {
		return PipetteSpec{}, &CommandError{
			Kind:    ErrInsufficientTips,
			Message: fmt.Sprintf("pipette %q has no tip attached", args.Pipette),
			Detail:  args.Pipette,
		}
	}
	return spec, nil
}

// Aspirate draws liquid from a well. The source well's tracked volume is
// decremented; drawing past the tracked volume clamps the well at zero and
// surfaces a warning instead of failing.
func Aspirate(args LiquidArgs) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		spec, cerr := validateLiquidStep(ctx, state, args)
		if cerr != nil {
			return nil, cerr
		}
		flowRate := args.FlowRate
		if flowRate == 0 {
			flowRate = spec.DefaultAspirateFlowRate
		}
		key := WellKey{Labware: args.Labware, Well: args.Well}
		var warnings []CommandWarning
		contents, tracked := state.Liquids[key]
		switch {
		case !tracked:
			warnings = append(warnings, CommandWarning{
				Kind:    WarnAspirateFromPristineWell,
				Message: fmt.Sprintf("aspirating from %s, which has no tracked liquid", key),
			})
		case args.Volume > contents.Volume:
			warnings = append(warnings, CommandWarning{
				Kind: WarnAspirateMoreThanWellContents,
				Message: fmt.Sprintf("aspirating %.1fuL from %s, which holds only %.1fuL",
					args.Volume, key, contents.Volume),
			})
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:               KindAspirate,
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               args.Well,
				Volume:             args.Volume,
				FlowRate:           flowRate,
				OffsetFromBottomMm: args.OffsetFromBottomMm,
			},
			State:    state.WithLiquidRemoved(key, args.Volume),
			Warnings: warnings,
		}, nil
	}
}

// Dispense pushes liquid into a well, incrementing its tracked volume.
func Dispense(args LiquidArgs) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		spec, cerr := validateLiquidStep(ctx, state, args)
		if cerr != nil {
			return nil, cerr
		}
		flowRate := args.FlowRate
		if flowRate == 0 {
			flowRate = spec.DefaultDispenseFlowRate
		}
		key := WellKey{Labware: args.Labware, Well: args.Well}
		return &StepResult{
			Instruction: Instruction{
				Kind:               KindDispense,
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               args.Well,
				Volume:             args.Volume,
				FlowRate:           flowRate,
				OffsetFromBottomMm: args.OffsetFromBottomMm,
			},
			State: state.WithLiquidAdded(key, args.Volume),
		}, nil
	}
}

// AirGap aspirates air above the liquid. Identical validation to Aspirate but
// excluded from liquid bookkeeping: air has no composition.
func AirGap(args LiquidArgs) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		spec, cerr := validateLiquidStep(ctx, state, args)
		if cerr != nil {
			return nil, cerr
		}
		flowRate := args.FlowRate
		if flowRate == 0 {
			flowRate = spec.DefaultAspirateFlowRate
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:               KindAirGap,
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               args.Well,
				Volume:             args.Volume,
				FlowRate:           flowRate,
				OffsetFromBottomMm: args.OffsetFromBottomMm,
			},
			State: state,
		}, nil
	}
}

// DispenseAirGap expels a previously taken air gap; no liquid bookkeeping.
func DispenseAirGap(args LiquidArgs) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		spec, cerr := validateLiquidStep(ctx, state, args)
		if cerr != nil {
			return nil, cerr
		}
		flowRate := args.FlowRate
		if flowRate == 0 {
			flowRate = spec.DefaultDispenseFlowRate
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:               KindDispenseAirGap,
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               args.Well,
				Volume:             args.Volume,
				FlowRate:           flowRate,
				OffsetFromBottomMm: args.OffsetFromBottomMm,
			},
			State: state,
		}, nil
	}
}

// Delay emits a wait instruction; no validation, no state change.
func Delay(seconds float64) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		return &StepResult{
			Instruction: Instruction{Kind: KindDelay, WaitSeconds: seconds},
			State:       state,
		}, nil
	}
}

// MoveToWell positions the pipette over a well at a vertical offset. Used to
// hold position during a delayed aspirate or dispense.
func MoveToWell(args PositionArgs) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		if _, cerr := ctx.Pipette(args.Pipette); cerr != nil {
			return nil, cerr
		}
		if _, cerr := ctx.Well(args.Labware, args.Well); cerr != nil {
			return nil, cerr
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:               KindMoveToWell,
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               args.Well,
				OffsetFromBottomMm: args.OffsetFromBottomMm,
			},
			State: state,
		}, nil
	}
}

// TouchTip taps the tip against the well wall to shed droplets. Requires a tip.
func TouchTip(args PositionArgs) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		if _, cerr := ctx.Pipette(args.Pipette); cerr != nil {
			return nil, cerr
		}
		if _, cerr := ctx.Well(args.Labware, args.Well); cerr != nil {
			return nil, cerr
		}
		if !state.HasTip(args.Pipette) {
			return nil, &CommandError{
				Kind:    ErrInsufficientTips,
				Message: fmt.Sprintf("touch-tip requires a tip on pipette %q", args.Pipette),
				Detail:  args.Pipette,
			}
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:               KindTouchTip,
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               args.Well,
				OffsetFromBottomMm: args.OffsetFromBottomMm,
			},
			State: state,
		}, nil
	}
}

// Blowout forcefully expels any residual liquid at the given well. Requires a
// tip. Residual volume is compound-layer knowledge, so state is unchanged.
func Blowout(args BlowoutArgs) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		spec, cerr := ctx.Pipette(args.Pipette)
		if cerr != nil {
			return nil, cerr
		}
		if _, cerr := ctx.Well(args.Labware, args.Well); cerr != nil {
			return nil, cerr
		}
		if !state.HasTip(args.Pipette) {
			return nil, &CommandError{
				Kind:    ErrInsufficientTips,
				Message: fmt.Sprintf("blow-out requires a tip on pipette %q", args.Pipette),
				Detail:  args.Pipette,
			}
		}
		flowRate := args.FlowRate
		if flowRate == 0 {
			flowRate = spec.DefaultBlowoutFlowRate
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:               KindBlowout,
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               args.Well,
				FlowRate:           flowRate,
				OffsetFromBottomMm: args.OffsetFromBottomMm,
			},
			State: state,
		}, nil
	}
}

// PickUpTip attaches a fresh tip from the pipette's assigned tip rack,
// consuming the next unconsumed rack well in ordering. An 8-channel pipette
// consumes a whole column and requires all eight wells of it to be fresh.
// Fails with INSUFFICIENT_TIPS when the rack cannot satisfy the pick-up.
func PickUpTip(pipette string) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		spec, cerr := ctx.Pipette(pipette)
		if cerr != nil {
			return nil, cerr
		}
		rack, cerr := ctx.LabwareByID(spec.TiprackID)
		if cerr != nil {
			return nil, cerr
		}
		wells, cerr := nextTips(rack, spec, state)
		if cerr != nil {
			return nil, cerr
		}
		next := state
		for _, w := range wells {
			next = next.WithUsedTip(WellKey{Labware: spec.TiprackID, Well: w})
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:    KindPickUpTip,
				Pipette: pipette,
				Labware: spec.TiprackID,
				Well:    wells[0],
			},
			State: next.WithTip(pipette, true),
		}, nil
	}
}

// DropTip discards the pipette's tip into the given well (commonly a trash
// well). Dropping with no tip attached is a no-op on state but still emits
// the instruction, matching hardware behavior.
func DropTip(pipette, labware, well string) CommandCreator {
	return func(ctx *StaticContext, state RobotState) (*StepResult, *CommandError) {
		if _, cerr := ctx.Pipette(pipette); cerr != nil {
			return nil, cerr
		}
		if _, cerr := ctx.Well(labware, well); cerr != nil {
			return nil, cerr
		}
		return &StepResult{
			Instruction: Instruction{
				Kind:    KindDropTip,
				Pipette: pipette,
				Labware: labware,
				Well:    well,
			},
			State: state.WithTip(pipette, false),
		}, nil
	}
}
