// Distribute: move liquid from one source well to many destination wells,
// one shared aspirate serving several dispenses per chunk. Chunk size is
// bounded by pipette capacity minus the disposal volume.

package gen

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DistributeArgs is the declarative input for one distribute operation.
type DistributeArgs struct {
	Pipette       string
	SourceLabware string
	SourceWell    string
	DestLabware   string
	DestWells     []string
	VolumePerWell float64
	Options       PipettingOptions
}

// Compile plans the chunking for a distribute and emits the instruction
// stream. A doomed operation fails before any instruction is produced; a
// failure mid-stream discards everything compiled for the operation.
func (args DistributeArgs) Compile(ctx *StaticContext, initial RobotState) (CompilationResult, RobotState) {
	acc := NewAccumulator(ctx, initial)
	opts := args.Options

	spec, cerr := ctx.Pipette(args.Pipette)
	if cerr != nil {
		acc.Fail(cerr)
		return acc.Result(), acc.State()
	}
	if args.VolumePerWell <= 0 || len(args.DestWells) == 0 {
		acc.Fail(&CommandError{
			Kind:    ErrBadOperationArgs,
			Message: "distribute requires a positive per-well volume and at least one destination well",
		})
		return acc.Result(), acc.State()
	}

	// Capacity check happens up front, during chunk-size computation, so a
	// doomed distribute never partially compiles.
	maxVolumePerChunk := spec.MaxVolume - opts.DisposalVolume
	if args.VolumePerWell > maxVolumePerChunk+volumeTolerance {
		acc.Fail(&CommandError{
			Kind: ErrPipetteVolumeExceeded,
			Message: fmt.Sprintf("cannot distribute %.1fuL per well: pipette %q holds %.1fuL minus %.1fuL disposal",
				args.VolumePerWell, args.Pipette, spec.MaxVolume, opts.DisposalVolume),
			Detail: args.Pipette,
		})
		return acc.Result(), acc.State()
	}

	chunkSize := int(maxVolumePerChunk/args.VolumePerWell + volumeTolerance)
	chunks := chunkWells(args.DestWells, chunkSize)
	logrus.Debugf("distribute: %d destination wells in %d chunks of <=%d (%.1fuL per well, %.1fuL disposal)",
		len(args.DestWells), len(chunks), chunkSize, args.VolumePerWell, opts.DisposalVolume)

	if opts.PreWetTip {
		warnPreWet(acc, args.Pipette)
	}

	for chunkIdx, chunk := range chunks {
		if needsTipExchange(opts.ChangeTip, chunkIdx) {
			exchangeTip(acc, args.Pipette, opts)
		}

		if opts.MixBeforeAspirate != nil {
			mixCycle(acc, args.Pipette, args.SourceLabware, args.SourceWell, *opts.MixBeforeAspirate, opts)
		}

		chunkVolume := float64(len(chunk))*args.VolumePerWell + opts.DisposalVolume
		acc.Chain(Aspirate(LiquidArgs{
			Pipette:            args.Pipette,
			Labware:            args.SourceLabware,
			Well:               args.SourceWell,
			Volume:             chunkVolume,
			FlowRate:           opts.AspirateFlowRate,
			OffsetFromBottomMm: opts.aspirateOffset(),
		}))
		if opts.AspirateDelay != nil {
			delayWithPosition(acc, args.Pipette, args.SourceLabware, args.SourceWell, *opts.AspirateDelay)
		}

		airGapTaken := false
		if opts.AspirateAirGapVolume > 0 {
			airGapAtWellTop(acc, ctx, args.Pipette, args.SourceLabware, args.SourceWell,
				opts.AspirateAirGapVolume, opts.AspirateFlowRate)
			if opts.AspirateDelay != nil {
				acc.Chain(Delay(opts.AspirateDelay.Seconds))
			}
			airGapTaken = true
		}

		if opts.TouchTipAfterAspirate {
			touchTipAt(acc, ctx, args.Pipette, args.SourceLabware, args.SourceWell, opts.TouchTipAfterAspirateOffsetMm)
		}

		for _, destWell := range chunk {
			// The air gap is expelled into the first destination of the chunk
			// and is gone after that.
			if airGapTaken {
				dispenseAirGapAtWellTop(acc, ctx, args.Pipette, args.DestLabware, destWell,
					opts.AspirateAirGapVolume, opts.DispenseFlowRate)
				if opts.AspirateDelay != nil {
					acc.Chain(Delay(opts.AspirateDelay.Seconds))
				}
				airGapTaken = false
			}
			acc.Chain(Dispense(LiquidArgs{
				Pipette:            args.Pipette,
				Labware:            args.DestLabware,
				Well:               destWell,
				Volume:             args.VolumePerWell,
				FlowRate:           opts.DispenseFlowRate,
				OffsetFromBottomMm: opts.dispenseOffset(),
			}))
			if opts.DispenseDelay != nil {
				delayWithPosition(acc, args.Pipette, args.DestLabware, destWell, *opts.DispenseDelay)
			}
			if opts.TouchTipAfterDispense {
				touchTipAt(acc, ctx, args.Pipette, args.DestLabware, destWell, opts.TouchTipAfterDispenseOffsetMm)
			}
		}

		if opts.DisposalVolume > 0 {
			blowoutDisposal(acc, ctx, args.Pipette, opts)
		}
	}

	return acc.Result(), acc.State()
}
