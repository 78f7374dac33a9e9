// Package devices implements the "layton devices" command tree: listing
// capturable network interfaces and showing the detail of one.
package devices

import (
	"encoding/json"
	"fmt"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/alonsoveliz1/layton/capture"
	"github.com/alonsoveliz1/layton/cmd/internal/cmderr"
	"github.com/alonsoveliz1/layton/printer"
)

var Cmd = &cobra.Command{
	Use:   "devices",
	Short: "List and inspect capturable network interfaces.",
}

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "List network interfaces layton can capture from.",
	RunE:         listDevices,
	SilenceUsage: true,
}

var infoCmd = &cobra.Command{
	Use:          "info [interface]",
	Short:        "Show the description and addresses of one interface.",
	Args:         cobra.MaximumNArgs(1),
	RunE:         deviceInfo,
	SilenceUsage: true,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(infoCmd)
}

func listDevices(cmd *cobra.Command, args []string) error {
	devs, err := capture.ListDevices()
	if err != nil {
		return cmderr.CLIErr{Err: errors.Wrap(err, "failed to list network interfaces")}
	}
	if len(devs) == 0 {
		printer.Infof("No capturable network interfaces found.\n")
		return nil
	}
	for _, d := range devs {
		printer.Infof("%-12s %s  %v\n", d.Name, d.Description, d.Addresses)
	}
	return nil
}

func deviceInfo(cmd *cobra.Command, args []string) error {
	name, err := resolveInterfaceName(args)
	if err != nil {
		return cmderr.CLIErr{Err: err}
	}

	dev, err := capture.DeviceInfo(name)
	if err != nil {
		return cmderr.CLIErr{Err: errors.Wrapf(err, "no such interface %q", name)}
	}

	encoded, err := json.MarshalIndent(dev, "", "  ")
	if err != nil {
		return cmderr.CLIErr{Err: err}
	}
	fmt.Println(string(encoded))
	return nil
}

// resolveInterfaceName returns the interface named by args, or, if args
// is empty, prompts the operator to pick one from the list of capturable
// interfaces. It does not check whether stdin is a terminal.
func resolveInterfaceName(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	devs, err := capture.ListDevices()
	if err != nil {
		return "", err
	}
	if len(devs) == 0 {
		return "", errors.New("no capturable network interfaces found")
	}

	names := make([]string, len(devs))
	for i, d := range devs {
		names[i] = d.Name
	}

	var chosen string
	prompt := &survey.Select{
		Message: "Which interface?",
		Options: names,
	}
	if err := survey.AskOne(prompt, &chosen); err != nil {
		return "", errors.Wrap(err, "failed to read interface selection")
	}
	return chosen, nil
}
