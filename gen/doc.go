// Package gen compiles declarative liquid-handling operations into ordered
// streams of atomic hardware instructions.
//
// # Reading Guide
//
// Start with these three files to understand the compilation kernel:
//   - instruction.go: the flat Instruction record, the wire contract with the executor
//   - state.go: RobotState, the immutable simulation snapshot threaded through every step
//   - accumulator.go: the Accumulator, the only way state advances during compilation
//
// # Architecture
//
// Compilation is a pure function of three inputs: an operation's arguments,
// a read-only StaticContext (pipette and labware registries), and the current
// RobotState. Atomic command creators (atomic.go) each produce exactly one
// Instruction plus a successor state, or a fatal CommandError. Compound
// creators (distribute.go, consolidate.go, transfer.go, mix.go) plan the
// chunking for one declarative operation and drive the Accumulator over a
// sequence of atomic creators. A fatal error anywhere discards every
// instruction compiled for that operation.
//
// The protocol file model that feeds this package lives in gen/protocol.
//
// # Key Types
//
//   - StaticContext: registries shared read-only across a whole run
//   - RobotState: tip presence, per-well liquid, tip-rack depletion
//   - CommandCreator: (ctx, state) -> (instruction, state', warnings) | error
//   - Accumulator: short-circuiting fold over CommandCreators
//   - CompilationResult: ordered instructions + warnings, or ordered errors
package gen
