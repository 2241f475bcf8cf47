// Consolidate: move liquid from many source wells into one destination well,
// several aspirates feeding one shared dispense per chunk.

package gen

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ConsolidateArgs is the declarative input for one consolidate operation.
type ConsolidateArgs struct {
	Pipette       string
	SourceLabware string
	SourceWells   []string
	DestLabware   string
	DestWell      string
	VolumePerWell float64
	Options       PipettingOptions

	// MixInDestination, if set, mixes the destination after each chunk's
	// dispense.
	MixInDestination *MixSpec
}

// Compile plans the chunking for a consolidate and emits the instruction
// stream. Chunks are bounded the same way distribute's are: the accumulated
// liquid per chunk plus disposal must fit the pipette.
func (args ConsolidateArgs) Compile(ctx *StaticContext, initial RobotState) (CompilationResult, RobotState) {
	acc := NewAccumulator(ctx, initial)
	opts := args.Options

	spec, cerr := ctx.Pipette(args.Pipette)
	if cerr != nil {
		acc.Fail(cerr)
		return acc.Result(), acc.State()
	}
	if args.VolumePerWell <= 0 || len(args.SourceWells) == 0 {
		acc.Fail(&CommandError{
			Kind:    ErrBadOperationArgs,
			Message: "consolidate requires a positive per-well volume and at least one source well",
		})
		return acc.Result(), acc.State()
	}

	maxVolumePerChunk := spec.MaxVolume - opts.DisposalVolume
	if args.VolumePerWell > maxVolumePerChunk+volumeTolerance {
		acc.Fail(&CommandError{
			Kind: ErrPipetteVolumeExceeded,
			Message: fmt.Sprintf("cannot consolidate %.1fuL per well: pipette %q holds %.1fuL minus %.1fuL disposal",
				args.VolumePerWell, args.Pipette, spec.MaxVolume, opts.DisposalVolume),
			Detail: args.Pipette,
		})
		return acc.Result(), acc.State()
	}

	chunkSize := int(maxVolumePerChunk/args.VolumePerWell + volumeTolerance)
	chunks := chunkWells(args.SourceWells, chunkSize)
	logrus.Debugf("consolidate: %d source wells in %d chunks of <=%d (%.1fuL per well)",
		len(args.SourceWells), len(chunks), chunkSize, args.VolumePerWell)

	if opts.PreWetTip {
		warnPreWet(acc, args.Pipette)
	}

	for chunkIdx, chunk := range chunks {
		if needsTipExchange(opts.ChangeTip, chunkIdx) {
			exchangeTip(acc, args.Pipette, opts)
		}

		// Mix precedes the chunk's first aspirate, in that source well.
		if opts.MixBeforeAspirate != nil {
			mixCycle(acc, args.Pipette, args.SourceLabware, chunk[0], *opts.MixBeforeAspirate, opts)
		}

		for _, sourceWell := range chunk {
			acc.Chain(Aspirate(LiquidArgs{
				Pipette:            args.Pipette,
				Labware:            args.SourceLabware,
				Well:               sourceWell,
				Volume:             args.VolumePerWell,
				FlowRate:           opts.AspirateFlowRate,
				OffsetFromBottomMm: opts.aspirateOffset(),
			}))
			if opts.AspirateDelay != nil {
				delayWithPosition(acc, args.Pipette, args.SourceLabware, sourceWell, *opts.AspirateDelay)
			}
			if opts.TouchTipAfterAspirate {
				touchTipAt(acc, ctx, args.Pipette, args.SourceLabware, sourceWell, opts.TouchTipAfterAspirateOffsetMm)
			}
		}

		// One air gap over the chunk's last source before moving to the
		// destination.
		airGapTaken := false
		if opts.AspirateAirGapVolume > 0 {
			airGapAtWellTop(acc, ctx, args.Pipette, args.SourceLabware, chunk[len(chunk)-1],
				opts.AspirateAirGapVolume, opts.AspirateFlowRate)
			if opts.AspirateDelay != nil {
				acc.Chain(Delay(opts.AspirateDelay.Seconds))
			}
			airGapTaken = true
		}

		if airGapTaken {
			dispenseAirGapAtWellTop(acc, ctx, args.Pipette, args.DestLabware, args.DestWell,
				opts.AspirateAirGapVolume, opts.DispenseFlowRate)
			if opts.AspirateDelay != nil {
				acc.Chain(Delay(opts.AspirateDelay.Seconds))
			}
		}
		acc.Chain(Dispense(LiquidArgs{
			Pipette:            args.Pipette,
			Labware:            args.DestLabware,
			Well:               args.DestWell,
			Volume:             float64(len(chunk)) * args.VolumePerWell,
			FlowRate:           opts.DispenseFlowRate,
			OffsetFromBottomMm: opts.dispenseOffset(),
		}))
		if opts.DispenseDelay != nil {
			delayWithPosition(acc, args.Pipette, args.DestLabware, args.DestWell, *opts.DispenseDelay)
		}
		if opts.TouchTipAfterDispense {
			touchTipAt(acc, ctx, args.Pipette, args.DestLabware, args.DestWell, opts.TouchTipAfterDispenseOffsetMm)
		}
		if args.MixInDestination != nil {
			mixCycle(acc, args.Pipette, args.DestLabware, args.DestWell, *args.MixInDestination, opts)
		}

		if opts.DisposalVolume > 0 {
			blowoutDisposal(acc, ctx, args.Pipette, opts)
		}
	}

	return acc.Result(), acc.State()
}
