// Package run implements "layton run": starting capture on an interface
// and serving the HTTP control/observability surface alongside it.
package run

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/alonsoveliz1/layton/cmd/internal/cmderr"
	"github.com/alonsoveliz1/layton/nids"
	"github.com/alonsoveliz1/layton/printer"
)

const shutdownTimeout = 5 * time.Second

var portFlag uint16

var Cmd = &cobra.Command{
	Use:          "run [interface]",
	Short:        "Capture an interface and classify its TCP flows in real time.",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runPipeline,
}

func init() {
	Cmd.Flags().Uint16Var(&portFlag, "port", 8981, "Port to serve the HTTP control and metrics surface on.")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	iface := args[0]

	pipeline, err := nids.NewPipeline()
	if err != nil {
		return cmderr.CLIErr{Err: errors.Wrap(err, "failed to create pipeline")}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := pipeline.Start(ctx, iface); err != nil {
		return cmderr.CLIErr{Err: errors.Wrapf(err, "failed to start capture on %s", iface)}
	}
	printer.Infof("layton listening on :%d (run %s)\n", portFlag, pipeline.RunID())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", portFlag),
		Handler: pipeline.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		printer.Infof("shutting down\n")
	case err := <-serverErr:
		pipeline.Stop()
		return cmderr.CLIErr{Err: errors.Wrap(err, "HTTP server failed")}
	}

	pipeline.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
