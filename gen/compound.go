// Shared plumbing for the compound command creators (distribute, consolidate,
// transfer, mix): option types, tip-exchange handling, sub-behavior templates,
// and default resolution against well geometry.

package gen

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ChangeTipPolicy governs how often a fresh tip is acquired across the chunks
// of one operation.
type ChangeTipPolicy string

const (
	ChangeTipNever  ChangeTipPolicy = "never"
	ChangeTipOnce   ChangeTipPolicy = "once"
	ChangeTipAlways ChangeTipPolicy = "always"
)

// MixSpec configures a mix sub-behavior: Times repetitions of an
// aspirate/dispense cycle of Volume each.
type MixSpec struct {
	Times  int
	Volume float64
}

// DelaySpec configures a wait after an aspirate or dispense. MmFromBottom, if
// nonzero, holds the tip at that height during the wait.
type DelaySpec struct {
	Seconds      float64
	MmFromBottom float64
}

// PipettingOptions carries the optional sub-behaviors shared by the compound
// creators. Constructed once by the caller and read-only during compilation.
type PipettingOptions struct {
	ChangeTip ChangeTipPolicy

	MixBeforeAspirate *MixSpec
	PreWetTip         bool

	AspirateDelay *DelaySpec
	DispenseDelay *DelaySpec

	AspirateAirGapVolume float64

	TouchTipAfterAspirate         bool
	TouchTipAfterAspirateOffsetMm float64 // 0 means 1mm below the well top
	TouchTipAfterDispense         bool
	TouchTipAfterDispenseOffsetMm float64

	// Disposal volume is extra liquid aspirated per chunk and expelled via
	// blow-out at the disposal well, keeping dispense accuracy consistent.
	DisposalVolume  float64
	DisposalLabware string
	DisposalWell    string

	BlowoutFlowRate  float64 // 0 means the pipette default
	BlowoutOffsetMm  float64 // 0 means the disposal well top
	AspirateFlowRate float64 // 0 means the pipette default
	DispenseFlowRate float64 // 0 means the pipette default

	AspirateOffsetFromBottomMm float64 // 0 means 1mm
	DispenseOffsetFromBottomMm float64 // 0 means 1mm

	// Tips are dropped here when the change-tip policy requires an exchange.
	DropTipLabware string
	DropTipWell    string
}

// Operation is one declarative liquid-handling step. Compile never mutates
// the input state: on failure it returns the state it was given.
type Operation interface {
	Compile(ctx *StaticContext, state RobotState) (CompilationResult, RobotState)
}

const defaultPipettingOffsetMm = 1.0

// volumeTolerance absorbs floating-point error in capacity arithmetic:
// 0.3/0.1 evaluates to 2.999... and must still count as 3 wells per chunk.
const volumeTolerance = 1e-9

func (o PipettingOptions) aspirateOffset() float64 {
	if o.AspirateOffsetFromBottomMm == 0 {
		return defaultPipettingOffsetMm
	}
	return o.AspirateOffsetFromBottomMm
}

func (o PipettingOptions) dispenseOffset() float64 {
	if o.DispenseOffsetFromBottomMm == 0 {
		return defaultPipettingOffsetMm
	}
	return o.DispenseOffsetFromBottomMm
}

// touchTipOffset resolves the touch-tip height for a well: explicit override,
// else 1mm below the well top.
func touchTipOffset(override float64, well WellDef) float64 {
	if override != 0 {
		return override
	}
	return well.DepthMm - 1.0
}

// blowoutOffset resolves the blow-out height: explicit override, else the
// well top.
func blowoutOffset(override float64, well WellDef) float64 {
	if override != 0 {
		return override
	}
	return well.DepthMm
}

// needsTipExchange decides whether a tip exchange happens before the chunk at
// chunkIdx under the given policy.
func needsTipExchange(policy ChangeTipPolicy, chunkIdx int) bool {
	switch policy {
	case ChangeTipAlways:
		return true
	case ChangeTipOnce:
		return chunkIdx == 0
	default: // never
		return false
	}
}

// exchangeTip drops the held tip (if any) and picks up a fresh one. Drives
// the accumulator directly because the drop is conditional on current state.
func exchangeTip(acc *Accumulator, pipette string, opts PipettingOptions) {
	if acc.Failed() {
		return
	}
	if opts.DropTipLabware == "" || opts.DropTipWell == "" {
		acc.Fail(&CommandError{
			Kind:    ErrBadOperationArgs,
			Message: fmt.Sprintf("change-tip policy %q requires a drop-tip location", opts.ChangeTip),
		})
		return
	}
	if acc.State().HasTip(pipette) {
		acc.Chain(DropTip(pipette, opts.DropTipLabware, opts.DropTipWell))
	}
	acc.Chain(PickUpTip(pipette))
}

// mixCycle emits times x [aspirate volume, optional wait, dispense volume,
// optional wait] at a single well. Used for mix-before-aspirate, mix-in-
// destination, and the mix operation itself.
func mixCycle(acc *Accumulator, pipette, labware, well string, mix MixSpec, opts PipettingOptions) {
	for i := 0; i < mix.Times; i++ {
		acc.Chain(Aspirate(LiquidArgs{
			Pipette:            pipette,
			Labware:            labware,
			Well:               well,
			Volume:             mix.Volume,
			FlowRate:           opts.AspirateFlowRate,
			OffsetFromBottomMm: opts.aspirateOffset(),
		}))
		if opts.AspirateDelay != nil {
			acc.Chain(Delay(opts.AspirateDelay.Seconds))
		}
		acc.Chain(Dispense(LiquidArgs{
			Pipette:            pipette,
			Labware:            labware,
			Well:               well,
			Volume:             mix.Volume,
			FlowRate:           opts.DispenseFlowRate,
			OffsetFromBottomMm: opts.dispenseOffset(),
		}))
		if opts.DispenseDelay != nil {
			acc.Chain(Delay(opts.DispenseDelay.Seconds))
		}
	}
}

// warnPreWet records the pre-wet gap once per operation. The pre-wet volume
// was never specified upstream, so the flag is acknowledged and skipped.
func warnPreWet(acc *Accumulator, pipette string) {
	logrus.Debugf("pre-wet requested for %q but pre-wet volume is undefined; skipping", pipette)
	acc.Warn(CommandWarning{
		Kind:    WarnPreWetNotImplemented,
		Message: fmt.Sprintf("pre-wet-tip requested for pipette %q is not implemented and was skipped", pipette),
	})
}

// delayWithPosition emits move-to-well + delay when the delay carries a
// height, or a bare delay otherwise.
func delayWithPosition(acc *Accumulator, pipette, labware, well string, d DelaySpec) {
	if d.MmFromBottom != 0 {
		acc.Chain(MoveToWell(PositionArgs{
			Pipette:            pipette,
			Labware:            labware,
			Well:               well,
			OffsetFromBottomMm: d.MmFromBottom,
		}))
	}
	acc.Chain(Delay(d.Seconds))
}

// airGapAtWellTop emits an air-gap aspirate held at the well top, where the
// tip is clear of the liquid.
func airGapAtWellTop(acc *Accumulator, ctx *StaticContext, pipette, labware, well string, volume, flowRate float64) {
	if acc.Failed() {
		return
	}
	w, cerr := ctx.Well(labware, well)
	if cerr != nil {
		acc.Fail(cerr)
		return
	}
	acc.Chain(AirGap(LiquidArgs{
		Pipette:            pipette,
		Labware:            labware,
		Well:               well,
		Volume:             volume,
		FlowRate:           flowRate,
		OffsetFromBottomMm: w.DepthMm,
	}))
}

// dispenseAirGapAtWellTop expels a held air gap at the well top before the
// main dispense.
func dispenseAirGapAtWellTop(acc *Accumulator, ctx *StaticContext, pipette, labware, well string, volume, flowRate float64) {
	if acc.Failed() {
		return
	}
	w, cerr := ctx.Well(labware, well)
	if cerr != nil {
		acc.Fail(cerr)
		return
	}
	acc.Chain(DispenseAirGap(LiquidArgs{
		Pipette:            pipette,
		Labware:            labware,
		Well:               well,
		Volume:             volume,
		FlowRate:           flowRate,
		OffsetFromBottomMm: w.DepthMm,
	}))
}

// touchTipAt emits a touch-tip at the well, resolving the default height from
// well geometry.
func touchTipAt(acc *Accumulator, ctx *StaticContext, pipette, labware, well string, override float64) {
	if acc.Failed() {
		return
	}
	w, cerr := ctx.Well(labware, well)
	if cerr != nil {
		acc.Fail(cerr)
		return
	}
	acc.Chain(TouchTip(PositionArgs{
		Pipette:            pipette,
		Labware:            labware,
		Well:               well,
		OffsetFromBottomMm: touchTipOffset(override, w),
	}))
}

// blowoutDisposal emits the end-of-chunk blow-out at the disposal well.
// Callers only invoke this when the disposal volume is nonzero.
func blowoutDisposal(acc *Accumulator, ctx *StaticContext, pipette string, opts PipettingOptions) {
	if acc.Failed() {
		return
	}
	well, cerr := ctx.Well(opts.DisposalLabware, opts.DisposalWell)
	if cerr != nil {
		acc.Fail(cerr)
		return
	}
	acc.Chain(Blowout(BlowoutArgs{
		Pipette:            pipette,
		Labware:            opts.DisposalLabware,
		Well:               opts.DisposalWell,
		FlowRate:           opts.BlowoutFlowRate,
		OffsetFromBottomMm: blowoutOffset(opts.BlowoutOffsetMm, well),
	}))
}
