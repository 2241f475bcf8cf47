// Aggregates statistics across the compiled operations of a run for final
// reporting. Useful for eyeballing a protocol before sending it to hardware.

package gen

import "fmt"

// Summary aggregates instruction counts and liquid totals over one or more
// compilation results.
type Summary struct {
	Operations      int
	Instructions    int
	CountsByKind    map[InstructionKind]int
	TotalAspirated  float64 // uL through aspirate instructions
	TotalDispensed  float64 // uL through dispense instructions
	TipsConsumed    int
	WarningsEmitted int
}

// Summarize folds compiled results into a Summary.
func Summarize(results []CompilationResult) Summary {
	s := Summary{CountsByKind: make(map[InstructionKind]int)}
	for _, r := range results {
		s.Operations++
		for _, in := range r.Instructions {
			s.Instructions++
			s.CountsByKind[in.Kind]++
			switch in.Kind {
			case KindAspirate:
				s.TotalAspirated += in.Volume
			case KindDispense:
				s.TotalDispensed += in.Volume
			case KindPickUpTip:
				s.TipsConsumed++
			}
		}
		s.WarningsEmitted += len(r.Warnings)
	}
	return s
}

// Print displays the summary at the end of a compile run.
func (s Summary) Print() {
	fmt.Println("=== Compilation Summary ===")
	fmt.Printf("Operations compiled  : %d\n", s.Operations)
	fmt.Printf("Instructions emitted : %d\n", s.Instructions)
	for _, kind := range []InstructionKind{
		KindPickUpTip, KindDropTip, KindAspirate, KindDispense, KindAirGap,
		KindDispenseAirGap, KindDelay, KindMoveToWell, KindTouchTip, KindBlowout,
	} {
		if n := s.CountsByKind[kind]; n > 0 {
			fmt.Printf("  %-18s : %d\n", kind, n)
		}
	}
	fmt.Printf("Total aspirated      : %.1f uL\n", s.TotalAspirated)
	fmt.Printf("Total dispensed      : %.1f uL\n", s.TotalDispensed)
	fmt.Printf("Tips consumed        : %d\n", s.TipsConsumed)
	if s.WarningsEmitted > 0 {
		fmt.Printf("Warnings             : %d\n", s.WarningsEmitted)
	}
}
