// Well naming and tip-rack geometry helpers. Well names follow the
// row-letter/column-number convention (A1, B1, ... H12); orderings are
// column-major, which is also the order tips are consumed in.

package gen

import "fmt"

// rowLetters covers up to 16 rows (384-well plates).
const rowLetters = "ABCDEFGHIJKLMNOP"

// GenerateWellOrdering builds a column-major well name list for a rows x cols
// grid: A1, B1, ..., A2, B2, ...
func GenerateWellOrdering(rows, cols int) []string {
	if rows < 1 || rows > len(rowLetters) || cols < 1 {
		panic(fmt.Sprintf("GenerateWellOrdering: invalid grid %dx%d", rows, cols))
	}
	ordering := make([]string, 0, rows*cols)
	for c := 1; c <= cols; c++ {
		for r := 0; r < rows; r++ {
			ordering = append(ordering, fmt.Sprintf("%c%d", rowLetters[r], c))
		}
	}
	return ordering
}

// WellColumn extracts the column number from a well name ("B11" -> 11).
// Returns 0 for names that do not parse.
func WellColumn(well string) int {
	if len(well) < 2 {
		return 0
	}
	col := 0
	for _, ch := range well[1:] {
		if ch < '0' || ch > '9' {
			return 0
		}
		col = col*10 + int(ch-'0')
	}
	return col
}

// nextTips locates the tip-rack wells the next pick-up will consume: the
// first unconsumed well in ordering for a single-channel pipette, or the
// first fully fresh column for an 8-channel pipette.
func nextTips(rack LabwareDef, spec PipetteSpec, state RobotState) ([]string, *CommandError) {
	if spec.Channels == 8 {
		return nextTipColumn(rack, spec, state)
	}
	for _, well := range rack.Ordering {
		if !state.TipUsed(WellKey{Labware: spec.TiprackID, Well: well}) {
			return []string{well}, nil
		}
	}
	return nil, &CommandError{
		Kind:    ErrInsufficientTips,
		Message: fmt.Sprintf("tip rack %q has no tips left for pipette %q", spec.TiprackID, spec.Name),
		Detail:  spec.TiprackID,
	}
}

// nextTipColumn groups the rack ordering by column and returns the first
// column with all eight tips unconsumed.
func nextTipColumn(rack LabwareDef, spec PipetteSpec, state RobotState) ([]string, *CommandError) {
	byColumn := make(map[int][]string)
	order := []int{}
	for _, well := range rack.Ordering {
		col := WellColumn(well)
		if len(byColumn[col]) == 0 {
			order = append(order, col)
		}
		byColumn[col] = append(byColumn[col], well)
	}
	for _, col := range order {
		wells := byColumn[col]
		if len(wells) != 8 {
			continue
		}
		fresh := true
		for _, w := range wells {
			if state.TipUsed(WellKey{Labware: spec.TiprackID, Well: w}) {
				fresh = false
				break
			}
		}
		if fresh {
			return wells, nil
		}
	}
	return nil, &CommandError{
		Kind:    ErrInsufficientTips,
		Message: fmt.Sprintf("tip rack %q has no full column left for 8-channel pipette %q", spec.TiprackID, spec.Name),
		Detail:  spec.TiprackID,
	}
}

// chunkWells greedily partitions wells into chunks of at most chunkSize,
// preserving order. Only the last chunk may be smaller.
func chunkWells(wells []string, chunkSize int) [][]string {
	if chunkSize < 1 {
		panic(fmt.Sprintf("chunkWells: chunkSize must be >= 1, got %d", chunkSize))
	}
	chunks := make([][]string, 0, (len(wells)+chunkSize-1)/chunkSize)
	for start := 0; start < len(wells); start += chunkSize {
		end := min(start+chunkSize, len(wells))
		chunks = append(chunks, wells[start:end])
	}
	return chunks
}
