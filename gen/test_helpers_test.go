package gen

// Shared fixtures for the gen package tests: a single-channel p300 with a
// 96-tip rack, a 96-well plate, a trough source, and a trash well.

func newTestContext() *StaticContext {
	plateWells := make(map[string]WellDef)
	plateOrdering := GenerateWellOrdering(8, 12)
	for _, name := range plateOrdering {
		plateWells[name] = WellDef{MaxVolume: 360, DepthMm: 10.5}
	}
	tipWells := make(map[string]WellDef)
	for _, name := range plateOrdering {
		tipWells[name] = WellDef{}
	}
	return &StaticContext{
		Pipettes: map[string]PipetteSpec{
			"p300": {
				Name:                    "p300_single",
				MaxVolume:               300,
				MinVolume:               30,
				Channels:                1,
				DefaultAspirateFlowRate: 150,
				DefaultDispenseFlowRate: 300,
				DefaultBlowoutFlowRate:  300,
				TiprackID:               "tiprack1",
			},
			"p300multi": {
				Name:                    "p300_multi",
				MaxVolume:               300,
				Channels:                8,
				DefaultAspirateFlowRate: 150,
				DefaultDispenseFlowRate: 300,
				DefaultBlowoutFlowRate:  300,
				TiprackID:               "tiprack1",
			},
		},
		Labware: map[string]LabwareDef{
			"plate1": {
				Name:     "96-flat",
				Ordering: plateOrdering,
				Wells:    plateWells,
			},
			"tiprack1": {
				Name:      "tiprack-300ul",
				IsTiprack: true,
				Ordering:  plateOrdering,
				Wells:     tipWells,
			},
			"trash": {
				Name:     "fixed-trash",
				Ordering: []string{"A1"},
				Wells:    map[string]WellDef{"A1": {MaxVolume: 100000, DepthMm: 40}},
			},
		},
	}
}

// newTestState seeds liquid into plate1/A1 and optionally attaches a tip.
func newTestState(withTip bool, sourceVolume float64) RobotState {
	state := NewRobotState()
	if sourceVolume > 0 {
		state = state.WithLiquid(WellKey{Labware: "plate1", Well: "A1"}, WellContents{
			Volume:      sourceVolume,
			Ingredients: map[string]float64{"water": sourceVolume},
		})
	}
	if withTip {
		state = state.WithTip("p300", true)
	}
	return state
}

// trashOptions returns options with drop-tip and disposal wired to the trash.
func trashOptions(policy ChangeTipPolicy, disposalVolume float64) PipettingOptions {
	opts := PipettingOptions{
		ChangeTip:      policy,
		DropTipLabware: "trash",
		DropTipWell:    "A1",
		DisposalVolume: disposalVolume,
	}
	if disposalVolume > 0 {
		opts.DisposalLabware = "trash"
		opts.DisposalWell = "A1"
	}
	return opts
}

// kinds projects an instruction stream onto its ordered kind tags.
func kinds(instructions []Instruction) []InstructionKind {
	out := make([]InstructionKind, len(instructions))
	for i, in := range instructions {
		out[i] = in.Kind
	}
	return out
}
