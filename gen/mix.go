// Mix: repeated aspirate/dispense at one or more wells, with no cross-well
// movement.

package gen

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// MixArgs is the declarative input for one mix operation.
type MixArgs struct {
	Pipette string
	Labware string
	Wells   []string
	Times   int
	Volume  float64
	Options PipettingOptions

	// BlowoutAfter, if true, blows out at the mixed well's top once mixing
	// there finishes.
	BlowoutAfter bool
}

// Compile emits Times aspirate/dispense cycles per well.
func (args MixArgs) Compile(ctx *StaticContext, initial RobotState) (CompilationResult, RobotState) {
	acc := NewAccumulator(ctx, initial)
	opts := args.Options

	spec, cerr := ctx.Pipette(args.Pipette)
	if cerr != nil {
		acc.Fail(cerr)
		return acc.Result(), acc.State()
	}
	if args.Volume <= 0 || args.Times <= 0 {
		acc.Fail(&CommandError{
			Kind: ErrMixBadVolume,
			Message: fmt.Sprintf("mix requires positive volume and repetitions, got %.1fuL x %d",
				args.Volume, args.Times),
		})
		return acc.Result(), acc.State()
	}
	if len(args.Wells) == 0 {
		acc.Fail(&CommandError{
			Kind:    ErrBadOperationArgs,
			Message: "mix requires at least one well",
		})
		return acc.Result(), acc.State()
	}
	if args.Volume > spec.MaxVolume+volumeTolerance {
		acc.Fail(&CommandError{
			Kind: ErrPipetteVolumeExceeded,
			Message: fmt.Sprintf("cannot mix %.1fuL with pipette %q (capacity %.1fuL)",
				args.Volume, args.Pipette, spec.MaxVolume),
			Detail: args.Pipette,
		})
		return acc.Result(), acc.State()
	}

	logrus.Debugf("mix: %d wells, %d cycles of %.1fuL", len(args.Wells), args.Times, args.Volume)

	for wellIdx, well := range args.Wells {
		if needsTipExchange(opts.ChangeTip, wellIdx) {
			exchangeTip(acc, args.Pipette, opts)
		}

		mixCycle(acc, args.Pipette, args.Labware, well, MixSpec{Times: args.Times, Volume: args.Volume}, opts)

		if opts.TouchTipAfterDispense {
			touchTipAt(acc, ctx, args.Pipette, args.Labware, well, opts.TouchTipAfterDispenseOffsetMm)
		}
		if args.BlowoutAfter {
			if acc.Failed() {
				break
			}
			w, cerr := ctx.Well(args.Labware, well)
			if cerr != nil {
				acc.Fail(cerr)
				break
			}
			acc.Chain(Blowout(BlowoutArgs{
				Pipette:            args.Pipette,
				Labware:            args.Labware,
				Well:               well,
				FlowRate:           opts.BlowoutFlowRate,
				OffsetFromBottomMm: blowoutOffset(opts.BlowoutOffsetMm, w),
			}))
		}
	}

	return acc.Result(), acc.State()
}
