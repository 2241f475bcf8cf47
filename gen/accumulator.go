// The Accumulator threads RobotState through an ordered list of command
// creators. It is the sole way compound creators apply atomic steps: state
// never advances outside of Chain.

package gen

import "github.com/sirupsen/logrus"

// CompilationResult is the output contract of one compiled operation: either
// an ordered instruction stream plus warnings, or an ordered error list with
// zero instructions. Errors is a list to allow multi-error reporting later,
// though creators currently short-circuit on the first fatal failure.
type CompilationResult struct {
	Instructions []Instruction    `json:"instructions"`
	Warnings     []CommandWarning `json:"warnings,omitempty"`
	Errors       []CommandError   `json:"errors,omitempty"`
}

// OK reports whether compilation produced a usable instruction stream.
func (r CompilationResult) OK() bool {
	return len(r.Errors) == 0
}

// Accumulator folds command creators over a starting state, collecting
// instructions and warnings and stopping at the first fatal error.
type Accumulator struct {
	ctx          *StaticContext
	state        RobotState
	initial      RobotState
	instructions []Instruction
	warnings     []CommandWarning
	err          *CommandError
}

// NewAccumulator starts an accumulation at the given state.
func NewAccumulator(ctx *StaticContext, initial RobotState) *Accumulator {
	return &Accumulator{ctx: ctx, state: initial, initial: initial}
}

// Chain applies creators in order against the current state. After a fatal
// error the accumulator is poisoned: further calls are no-ops, so compound
// creators can chain unconditionally and check Failed() once at the end.
func (a *Accumulator) Chain(creators ...CommandCreator) *Accumulator {
	for _, creator := range creators {
		if a.err != nil {
			return a
		}
		result, cerr := creator(a.ctx, a.state)
		if cerr != nil {
			logrus.Debugf("compilation aborted: %v", cerr)
			a.err = cerr
			return a
		}
		a.instructions = append(a.instructions, result.Instruction)
		a.warnings = append(a.warnings, result.Warnings...)
		a.state = result.State
	}
	return a
}

// Warn records an operation-level warning computed outside any creator.
func (a *Accumulator) Warn(w CommandWarning) *Accumulator {
	if a.err == nil {
		a.warnings = append(a.warnings, w)
	}
	return a
}

// Failed reports whether a fatal error has poisoned the accumulator.
func (a *Accumulator) Failed() bool {
	return a.err != nil
}

// Fail poisons the accumulator with an error computed outside any creator
// (e.g. up-front chunk-size validation). No-op if already failed.
func (a *Accumulator) Fail(cerr *CommandError) *Accumulator {
	if a.err == nil {
		a.err = cerr
	}
	return a
}

// State returns the current state on success, or the initial state after a
// fatal error: a failed operation leaves the world untouched.
func (a *Accumulator) State() RobotState {
	if a.err != nil {
		return a.initial
	}
	return a.state
}

// Result finalizes the accumulation. On failure every instruction compiled so
// far is discarded; an operation never partially succeeds.
func (a *Accumulator) Result() CompilationResult {
	if a.err != nil {
		return CompilationResult{Errors: []CommandError{*a.err}}
	}
	return CompilationResult{Instructions: a.instructions, Warnings: a.warnings}
}
