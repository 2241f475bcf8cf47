package cmd

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stepgen/stepgen/gen"
	"github.com/stepgen/stepgen/gen/protocol"
)

var (
	// CLI flags for the compile command
	protocolPath string // Path to the protocol YAML file
	outputPath   string // Instruction stream destination ("" = stdout)
	logLevel     string // Log verbosity level
	pretty       bool   // Indent the instruction JSON
	showSummary  bool   // Print a compilation summary to stdout
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "stepgen",
	Short: "Compiler from declarative liquid-handling operations to atomic hardware instructions",
}

// compileCmd compiles a protocol file into an ordered instruction stream
var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a protocol file",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if protocolPath == "" {
			logrus.Fatalf("No protocol file provided. Use --protocol.")
		}

		spec, err := protocol.Load(protocolPath)
		if err != nil {
			logrus.Fatalf("Loading protocol: %v", err)
		}
		ctx, state, ops, err := protocol.Convert(spec)
		if err != nil {
			logrus.Fatalf("Invalid protocol: %v", err)
		}

		logrus.Infof("Compiling %d operations against %d pipettes and %d labware",
			len(ops), len(ctx.Pipettes), len(ctx.Labware))

		results, _, failed := CompileAll(ctx, state, ops)
		if failed {
			os.Exit(1)
		}

		var instructions []gen.Instruction
		for _, res := range results {
			instructions = append(instructions, res.Instructions...)
		}
		if err := writeInstructions(instructions, outputPath, pretty); err != nil {
			logrus.Fatalf("Writing instructions: %v", err)
		}

		if showSummary {
			gen.Summarize(results).Print()
		}
		logrus.Info("Compilation complete.")
	},
}

// CompileAll threads state through the protocol's operations in order. A
// protocol is a sequence: each operation consumes the previous operation's
// final state. The first failing operation stops the run; its errors are
// logged and failed is set.
func CompileAll(ctx *gen.StaticContext, initial gen.RobotState, ops []gen.Operation) (results []gen.CompilationResult, final gen.RobotState, failed bool) {
	state := initial
	for i, op := range ops {
		result, next := op.Compile(ctx, state)
		for _, w := range result.Warnings {
			logrus.Warnf("operation %d: [%s] %s", i, w.Kind, w.Message)
		}
		if !result.OK() {
			for _, cerr := range result.Errors {
				logrus.Errorf("operation %d failed: [%s] %s", i, cerr.Kind, cerr.Message)
			}
			return nil, initial, true
		}
		results = append(results, result)
		state = next
	}
	return results, state, false
}

// writeInstructions marshals the instruction stream to the output path, or
// stdout when no path is given.
func writeInstructions(instructions []gen.Instruction, path string, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(instructions, "", "  ")
	} else {
		data, err = json.Marshal(instructions)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	compileCmd.Flags().StringVar(&protocolPath, "protocol", "", "Path to the protocol YAML file")
	compileCmd.Flags().StringVar(&outputPath, "output", "", "Write the instruction JSON here instead of stdout")
	compileCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	compileCmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the instruction JSON")
	compileCmd.Flags().BoolVar(&showSummary, "summary", false, "Print a compilation summary")

	// Attach `compile` as a subcommand to `root`
	rootCmd.AddCommand(compileCmd)
}
