package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alonsoveliz1/layton/cmd/internal/cmderr"
	"github.com/alonsoveliz1/layton/cmd/internal/devices"
	"github.com/alonsoveliz1/layton/cmd/internal/run"
	"github.com/alonsoveliz1/layton/printer"
	"github.com/alonsoveliz1/layton/util"
	"github.com/alonsoveliz1/layton/version"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:           "layton",
	Short:         "Real-time TCP flow capture and attack classification.",
	Long:          "layton captures live TCP traffic, tracks bidirectional flows, and classifies each one as benign or an attack family using a pair of ONNX models.",
	Version:       version.CLIDisplayString(),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "If set, outputs detailed information for debugging.")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(devices.Cmd)
	rootCmd.AddCommand(run.Cmd)
}

func Execute() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		if _, isCLIErr := err.(cmderr.CLIErr); !isCLIErr {
			cmd.Println(cmd.UsageString())
		}

		exitCode := 1
		var exitErr util.ExitError
		if isExitErr := errors.As(err, &exitErr); isExitErr {
			exitCode = exitErr.ExitCode
		}
		printer.Stderr.Errorf("%s\n", err)
		os.Exit(exitCode)
	}
}
