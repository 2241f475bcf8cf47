// Defines the Instruction record emitted by compilation. Instructions are the
// wire contract with the downstream executor: a flat, immutable record tagged
// by Kind, ordered exactly as the hardware must perform them.

package gen

import "fmt"

// InstructionKind tags one atomic hardware action. The set is closed; the
// executor matches exhaustively over it.
type InstructionKind string

const (
	KindAspirate       InstructionKind = "aspirate"
	KindDispense       InstructionKind = "dispense"
	KindAirGap         InstructionKind = "air-gap"
	KindDispenseAirGap InstructionKind = "dispense-air-gap"
	KindDelay          InstructionKind = "delay"
	KindTouchTip       InstructionKind = "touch-tip"
	KindBlowout        InstructionKind = "blow-out"
	KindPickUpTip      InstructionKind = "pick-up-tip"
	KindDropTip        InstructionKind = "drop-tip"
	KindMoveToWell     InstructionKind = "move-to-well"
)

// Instruction is a single resolved hardware step. Fields are populated per
// Kind; zero-valued fields are omitted on the wire. The field set must remain
// structurally stable across versions.
type Instruction struct {
	Kind               InstructionKind `json:"kind"`
	Pipette            string          `json:"pipetteId,omitempty"`
	Labware            string          `json:"labwareId,omitempty"`
	Well               string          `json:"well,omitempty"`
	Volume             float64         `json:"volume,omitempty"`
	FlowRate           float64         `json:"flowRate,omitempty"`
	OffsetFromBottomMm float64         `json:"offsetFromBottomMm,omitempty"`
	WaitSeconds        float64         `json:"waitSeconds,omitempty"`
}

func (in Instruction) String() string {
	switch in.Kind {
	case KindDelay:
		return fmt.Sprintf("%s(%.1fs)", in.Kind, in.WaitSeconds)
	case KindPickUpTip, KindDropTip, KindTouchTip, KindBlowout, KindMoveToWell:
		return fmt.Sprintf("%s(%s %s/%s)", in.Kind, in.Pipette, in.Labware, in.Well)
	default:
		return fmt.Sprintf("%s(%s %.1fuL %s/%s)", in.Kind, in.Pipette, in.Volume, in.Labware, in.Well)
	}
}
