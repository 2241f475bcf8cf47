// Transfer: 1:1 movement between paired source and destination wells. A pair
// whose volume exceeds pipette capacity is split across several equal
// aspirate/dispense cycles.

package gen

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// TransferArgs is the declarative input for one transfer operation. Source
// and destination lists pair up index by index; a single-well list on either
// side is broadcast against the other.
type TransferArgs struct {
	Pipette       string
	SourceLabware string
	SourceWells   []string
	DestLabware   string
	DestWells     []string
	Volume        float64
	Options       PipettingOptions
}

// wellPairs resolves the source/destination pairing, broadcasting a
// single-well side.
func (args TransferArgs) wellPairs() ([][2]string, *CommandError) {
	ns, nd := len(args.SourceWells), len(args.DestWells)
	if ns == 0 || nd == 0 {
		return nil, &CommandError{
			Kind:    ErrBadOperationArgs,
			Message: "transfer requires at least one source and one destination well",
		}
	}
	if ns != nd && ns != 1 && nd != 1 {
		return nil, &CommandError{
			Kind: ErrBadOperationArgs,
			Message: fmt.Sprintf("transfer well lists must pair up: %d sources vs %d destinations",
				ns, nd),
		}
	}
	n := max(ns, nd)
	pairs := make([][2]string, n)
	for i := 0; i < n; i++ {
		src := args.SourceWells[min(i, ns-1)]
		dst := args.DestWells[min(i, nd-1)]
		pairs[i] = [2]string{src, dst}
	}
	return pairs, nil
}

// Compile splits each well pair into capacity-sized cycles and emits the
// instruction stream.
func (args TransferArgs) Compile(ctx *StaticContext, initial RobotState) (CompilationResult, RobotState) {
	acc := NewAccumulator(ctx, initial)
	opts := args.Options

	spec, cerr := ctx.Pipette(args.Pipette)
	if cerr != nil {
		acc.Fail(cerr)
		return acc.Result(), acc.State()
	}
	if args.Volume <= 0 {
		acc.Fail(&CommandError{
			Kind:    ErrBadOperationArgs,
			Message: "transfer requires a positive volume",
		})
		return acc.Result(), acc.State()
	}
	pairs, cerr := args.wellPairs()
	if cerr != nil {
		acc.Fail(cerr)
		return acc.Result(), acc.State()
	}

	capacity := spec.MaxVolume - opts.DisposalVolume
	if capacity <= 0 {
		acc.Fail(&CommandError{
			Kind: ErrPipetteVolumeExceeded,
			Message: fmt.Sprintf("disposal volume %.1fuL leaves pipette %q no working capacity",
				opts.DisposalVolume, args.Pipette),
			Detail: args.Pipette,
		})
		return acc.Result(), acc.State()
	}

	// Oversized pair volumes split into equal parts rather than a full cycle
	// plus a remainder, keeping dispense accuracy uniform.
	cycles := int(math.Ceil(args.Volume/capacity - volumeTolerance))
	if cycles < 1 {
		cycles = 1
	}
	volumePerCycle := args.Volume / float64(cycles)
	logrus.Debugf("transfer: %d well pairs, %d cycles of %.1fuL each", len(pairs), cycles, volumePerCycle)

	if opts.PreWetTip {
		warnPreWet(acc, args.Pipette)
	}

	cycleIdx := 0
	for _, pair := range pairs {
		src, dst := pair[0], pair[1]
		for c := 0; c < cycles; c++ {
			if needsTipExchange(opts.ChangeTip, cycleIdx) {
				exchangeTip(acc, args.Pipette, opts)
			}
			cycleIdx++

			if opts.MixBeforeAspirate != nil {
				mixCycle(acc, args.Pipette, args.SourceLabware, src, *opts.MixBeforeAspirate, opts)
			}
			acc.Chain(Aspirate(LiquidArgs{
				Pipette:            args.Pipette,
				Labware:            args.SourceLabware,
				Well:               src,
				Volume:             volumePerCycle + opts.DisposalVolume,
				FlowRate:           opts.AspirateFlowRate,
				OffsetFromBottomMm: opts.aspirateOffset(),
			}))
			if opts.AspirateDelay != nil {
				delayWithPosition(acc, args.Pipette, args.SourceLabware, src, *opts.AspirateDelay)
			}
			airGapTaken := false
			if opts.AspirateAirGapVolume > 0 {
				airGapAtWellTop(acc, ctx, args.Pipette, args.SourceLabware, src,
					opts.AspirateAirGapVolume, opts.AspirateFlowRate)
				if opts.AspirateDelay != nil {
					acc.Chain(Delay(opts.AspirateDelay.Seconds))
				}
				airGapTaken = true
			}
			if opts.TouchTipAfterAspirate {
				touchTipAt(acc, ctx, args.Pipette, args.SourceLabware, src, opts.TouchTipAfterAspirateOffsetMm)
			}

			if airGapTaken {
				dispenseAirGapAtWellTop(acc, ctx, args.Pipette, args.DestLabware, dst,
					opts.AspirateAirGapVolume, opts.DispenseFlowRate)
				if opts.AspirateDelay != nil {
					acc.Chain(Delay(opts.AspirateDelay.Seconds))
				}
			}
			acc.Chain(Dispense(LiquidArgs{
				Pipette:            args.Pipette,
				Labware:            args.DestLabware,
				Well:               dst,
				Volume:             volumePerCycle,
				FlowRate:           opts.DispenseFlowRate,
				OffsetFromBottomMm: opts.dispenseOffset(),
			}))
			if opts.DispenseDelay != nil {
				delayWithPosition(acc, args.Pipette, args.DestLabware, dst, *opts.DispenseDelay)
			}
			if opts.TouchTipAfterDispense {
				touchTipAt(acc, ctx, args.Pipette, args.DestLabware, dst, opts.TouchTipAfterDispenseOffsetMm)
			}

			if opts.DisposalVolume > 0 {
				blowoutDisposal(acc, ctx, args.Pipette, opts)
			}
		}
	}

	return acc.Result(), acc.State()
}
