package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWells(state RobotState, labware string, volume float64, wells ...string) RobotState {
	for _, w := range wells {
		state = state.WithLiquid(WellKey{Labware: labware, Well: w}, WellContents{
			Volume:      volume,
			Ingredients: map[string]float64{"sample": volume},
		})
	}
	return state
}

func TestConsolidate_SingleChunk(t *testing.T) {
	// GIVEN 60uL from three wells into B1, all fitting a single chunk
	ctx := newTestContext()
	state := seedWells(newTestState(true, 0), "plate1", 200, "A1", "A2", "A3")
	args := ConsolidateArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWells:   []string{"A1", "A2", "A3"},
		DestLabware:   "plate1",
		DestWell:      "B1",
		VolumePerWell: 60,
		Options:       trashOptions(ChangeTipNever, 0),
	}

	result, final := args.Compile(ctx, state)

	require.True(t, result.OK())
	assert.Equal(t, []InstructionKind{
		KindAspirate, KindAspirate, KindAspirate, KindDispense,
	}, kinds(result.Instructions))
	assert.Equal(t, 180.0, result.Instructions[3].Volume, "one pooled dispense per chunk")
	assert.Equal(t, "B1", result.Instructions[3].Well)

	// AND each source lost its share while the destination gained the pool
	for _, w := range []string{"A1", "A2", "A3"} {
		assert.Equal(t, 140.0, final.Liquids[WellKey{Labware: "plate1", Well: w}].Volume)
	}
	assert.Equal(t, 180.0, final.Liquids[WellKey{Labware: "plate1", Well: "B1"}].Volume)
}

func TestConsolidate_ChunkingByCapacity(t *testing.T) {
	// GIVEN 100uL from five wells with a 300uL pipette: 3 + 2 sources per chunk
	ctx := newTestContext()
	sources := []string{"A1", "A2", "A3", "A4", "A5"}
	state := seedWells(newTestState(true, 0), "plate1", 300, sources...)
	args := ConsolidateArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWells:   sources,
		DestLabware:   "plate1",
		DestWell:      "H12",
		VolumePerWell: 100,
		Options:       trashOptions(ChangeTipNever, 0),
	}

	result, _ := args.Compile(ctx, state)

	require.True(t, result.OK())
	assert.Equal(t, []InstructionKind{
		KindAspirate, KindAspirate, KindAspirate, KindDispense,
		KindAspirate, KindAspirate, KindDispense,
	}, kinds(result.Instructions))
	assert.Equal(t, 300.0, result.Instructions[3].Volume)
	assert.Equal(t, 200.0, result.Instructions[6].Volume)
}

func TestConsolidate_DisposalShrinksChunksAndAddsBlowout(t *testing.T) {
	// GIVEN a 50uL disposal volume: capacity 250, so only two 100uL sources
	// fit per chunk. Disposal adds a blow-out but no extra aspirated liquid.
	ctx := newTestContext()
	sources := []string{"A1", "A2", "A3"}
	state := seedWells(newTestState(true, 0), "plate1", 300, sources...)
	args := ConsolidateArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWells:   sources,
		DestLabware:   "plate1",
		DestWell:      "H12",
		VolumePerWell: 100,
		Options:       trashOptions(ChangeTipNever, 50),
	}

	result, _ := args.Compile(ctx, state)

	require.True(t, result.OK())
	assert.Equal(t, []InstructionKind{
		KindAspirate, KindAspirate, KindDispense, KindBlowout,
		KindAspirate, KindDispense, KindBlowout,
	}, kinds(result.Instructions))
	for _, in := range result.Instructions {
		if in.Kind == KindAspirate {
			assert.Equal(t, 100.0, in.Volume, "disposal never inflates consolidate aspirates")
		}
	}
}

func TestConsolidate_AirGapOverLastSourceOfChunk(t *testing.T) {
	ctx := newTestContext()
	state := seedWells(newTestState(true, 0), "plate1", 200, "A1", "A2")
	opts := trashOptions(ChangeTipNever, 0)
	opts.AspirateAirGapVolume = 10
	args := ConsolidateArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWells:   []string{"A1", "A2"},
		DestLabware:   "plate1",
		DestWell:      "B1",
		VolumePerWell: 60,
		Options:       opts,
	}

	result, _ := args.Compile(ctx, state)

	require.True(t, result.OK())
	assert.Equal(t, []InstructionKind{
		KindAspirate, KindAspirate,
		KindAirGap,
		KindDispenseAirGap, KindDispense,
	}, kinds(result.Instructions))
	assert.Equal(t, "A2", result.Instructions[2].Well, "air gap taken over the chunk's last source")
	assert.Equal(t, "B1", result.Instructions[3].Well)
}

func TestConsolidate_MixSubBehaviors(t *testing.T) {
	// Mix-before-aspirate happens in the chunk's first source; mix-in-
	// destination happens after the pooled dispense.
	ctx := newTestContext()
	state := seedWells(newTestState(true, 0), "plate1", 200, "A1", "A2")
	opts := trashOptions(ChangeTipNever, 0)
	opts.MixBeforeAspirate = &MixSpec{Times: 1, Volume: 40}
	args := ConsolidateArgs{
		Pipette:          "p300",
		SourceLabware:    "plate1",
		SourceWells:      []string{"A1", "A2"},
		DestLabware:      "plate1",
		DestWell:         "B1",
		VolumePerWell:    60,
		Options:          opts,
		MixInDestination: &MixSpec{Times: 2, Volume: 80},
	}

	result, _ := args.Compile(ctx, state)

	require.True(t, result.OK())
	assert.Equal(t, []InstructionKind{
		KindAspirate, KindDispense, // mix before, at A1
		KindAspirate, KindAspirate,
		KindDispense,
		KindAspirate, KindDispense, KindAspirate, KindDispense, // mix in destination
	}, kinds(result.Instructions))
	assert.Equal(t, "A1", result.Instructions[0].Well)
	assert.Equal(t, "B1", result.Instructions[5].Well)
	assert.Equal(t, 80.0, result.Instructions[5].Volume)
}

func TestConsolidate_FractionalVolumesChunkByFullCapacity(t *testing.T) {
	// Same float hazard as distribute: 0.3/0.1 must chunk as three sources.
	ctx := newTestContext()
	ctx.Pipettes["p03"] = PipetteSpec{
		Name:                    "p0.3",
		MaxVolume:               0.3,
		Channels:                1,
		DefaultAspirateFlowRate: 1,
		DefaultDispenseFlowRate: 1,
		DefaultBlowoutFlowRate:  1,
		TiprackID:               "tiprack1",
	}
	state := seedWells(NewRobotState().WithTip("p03", true), "plate1", 5, "A1", "A2", "A3")
	args := ConsolidateArgs{
		Pipette:       "p03",
		SourceLabware: "plate1",
		SourceWells:   []string{"A1", "A2", "A3"},
		DestLabware:   "plate1",
		DestWell:      "B1",
		VolumePerWell: 0.1,
		Options:       trashOptions(ChangeTipNever, 0),
	}

	result, _ := args.Compile(ctx, state)

	require.True(t, result.OK())
	assert.Equal(t, []InstructionKind{
		KindAspirate, KindAspirate, KindAspirate, KindDispense,
	}, kinds(result.Instructions))
	assert.InDelta(t, 0.3, result.Instructions[3].Volume, 1e-9)
}

func TestConsolidate_VolumeOverCapacity_Fails(t *testing.T) {
	ctx := newTestContext()
	state := seedWells(newTestState(true, 0), "plate1", 500, "A1")
	args := ConsolidateArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWells:   []string{"A1"},
		DestLabware:   "plate1",
		DestWell:      "B1",
		VolumePerWell: 320,
		Options:       trashOptions(ChangeTipNever, 0),
	}

	result, _ := args.Compile(ctx, state)

	require.False(t, result.OK())
	assert.Empty(t, result.Instructions)
	assert.Equal(t, ErrPipetteVolumeExceeded, result.Errors[0].Kind)
}

func TestConsolidate_NoSourceWells_Fails(t *testing.T) {
	ctx := newTestContext()
	state := newTestState(true, 0)
	args := ConsolidateArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWells:   nil,
		DestLabware:   "plate1",
		DestWell:      "B1",
		VolumePerWell: 60,
		Options:       trashOptions(ChangeTipNever, 0),
	}

	result, _ := args.Compile(ctx, state)

	require.False(t, result.OK())
	assert.Equal(t, ErrBadOperationArgs, result.Errors[0].Kind)
}

func TestConsolidate_UnknownSourceWell_DiscardsChunk(t *testing.T) {
	// A bad well name inside the stream poisons the whole operation.
	ctx := newTestContext()
	state := seedWells(newTestState(true, 0), "plate1", 200, "A1")
	args := ConsolidateArgs{
		Pipette:       "p300",
		SourceLabware: "plate1",
		SourceWells:   []string{"A1", "Z9"},
		DestLabware:   "plate1",
		DestWell:      "B1",
		VolumePerWell: 60,
		Options:       trashOptions(ChangeTipNever, 0),
	}

	result, final := args.Compile(ctx, state)

	require.False(t, result.OK())
	assert.Empty(t, result.Instructions)
	assert.Equal(t, ErrWellDoesNotExist, result.Errors[0].Kind)
	assert.Equal(t, 200.0, final.Liquids[WellKey{Labware: "plate1", Well: "A1"}].Volume)
}
