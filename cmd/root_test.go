package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepgen/stepgen/gen"
	"github.com/stepgen/stepgen/gen/protocol"
)

const testProtocol = `
version: "1"
trash:
  labware: trash
  well: A1
pipettes:
  - id: p300
    max_volume: 300
    channels: 1
    tiprack: tiprack1
labware:
  - id: plate1
    rows: 8
    cols: 12
    well_max_volume: 360
    well_depth_mm: 10.5
  - id: tiprack1
    tiprack: true
    rows: 8
    cols: 12
  - id: trash
    wells:
      A1:
        max_volume: 100000
        depth_mm: 40
liquids:
  - labware: plate1
    well: A1
    volume: 1000
operations:
  - kind: distribute
    pipette: p300
    source:
      labware: plate1
      well: A1
    dest_labware: plate1
    dest_wells: [A2, A3]
    volume: 60
    change_tip: once
  - kind: mix
    pipette: p300
    labware: plate1
    wells: [A2]
    times: 2
    volume: 30
    change_tip: never
`

func loadTestProtocol(t *testing.T) (*gen.StaticContext, gen.RobotState, []gen.Operation) {
	t.Helper()
	spec, err := protocol.Parse([]byte(testProtocol))
	require.NoError(t, err)
	ctx, state, ops, err := protocol.Convert(spec)
	require.NoError(t, err)
	return ctx, state, ops
}

func TestCompileAll_ThreadsStateAcrossOperations(t *testing.T) {
	// GIVEN a distribute followed by a mix at one of its destinations
	ctx, state, ops := loadTestProtocol(t)

	results, final, failed := CompileAll(ctx, state, ops)

	// THEN both operations compile and the mix sees the distribute's output
	require.False(t, failed)
	require.Len(t, results, 2)
	assert.Equal(t, 60.0, final.Liquids[gen.WellKey{Labware: "plate1", Well: "A2"}].Volume)
	assert.Equal(t, 880.0, final.Liquids[gen.WellKey{Labware: "plate1", Well: "A1"}].Volume)
	assert.True(t, final.TipUsed(gen.WellKey{Labware: "tiprack1", Well: "A1"}))

	// Distribute picked up a tip once; the never-policy mix reused it.
	var pickups int
	for _, res := range results {
		for _, in := range res.Instructions {
			if in.Kind == gen.KindPickUpTip {
				pickups++
			}
		}
	}
	assert.Equal(t, 1, pickups)
}

func TestCompileAll_FirstFailureStopsTheRun(t *testing.T) {
	ctx, state, ops := loadTestProtocol(t)
	doomed := gen.DistributeArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWell:    "A1",
		DestLabware:   "plate1",
		DestWells:     []string{"A4"},
		VolumePerWell: 999,
		Options:       gen.PipettingOptions{ChangeTip: gen.ChangeTipNever},
	}
	ops = append([]gen.Operation{ops[0], doomed}, ops[1:]...)

	results, final, failed := CompileAll(ctx, state, ops)

	require.True(t, failed)
	assert.Nil(t, results, "a failed protocol yields no instruction stream at all")
	assert.Equal(t, state, final, "failure hands back the initial state")
}

func TestWriteInstructions_File(t *testing.T) {
	instructions := []gen.Instruction{
		{Kind: gen.KindAspirate, Pipette: "p300", Labware: "plate1", Well: "A1", Volume: 120, OffsetFromBottomMm: 1},
		{Kind: gen.KindDispense, Pipette: "p300", Labware: "plate1", Well: "A2", Volume: 60, OffsetFromBottomMm: 1},
	}
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, writeInstructions(instructions, path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "aspirate", decoded[0]["kind"])
	assert.Equal(t, "p300", decoded[0]["pipetteId"])
	assert.Equal(t, 120.0, decoded[0]["volume"])
	_, hasWait := decoded[0]["waitSeconds"]
	assert.False(t, hasWait, "zero-valued fields stay out of the JSON")
}
