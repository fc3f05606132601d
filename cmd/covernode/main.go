package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/calvinmclean/covernode"
	"github.com/calvinmclean/covernode/controller"
	"github.com/calvinmclean/covernode/firmware/commands"
	"github.com/calvinmclean/covernode/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := controller.ConfigFromEnv()

	root := &cobra.Command{
		Use:          "covernode",
		Short:        "Talk to cover nodes on an RS485 bus",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfg.SerialPort, "port", "p", cfg.SerialPort, "serial port of the bus adapter (env COVERNODE_PORT)")
	root.PersistentFlags().StringVarP(&cfg.BaudRate, "baud", "b", cfg.BaudRate, "baud rate (env COVERNODE_BAUD)")

	root.AddCommand(
		newPortsCommand(),
		newCommandsCommand(),
		newSendCommand(&cfg),
		newMonitorCommand(&cfg),
		newUICommand(&cfg),
	)
	return root
}

func newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List USB serial adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := controller.GetSerialPorts()
			if err != nil {
				return err
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newCommandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands a node understands",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printCommands(cmd.OutOrStdout())
		},
	}
}

func printCommands(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, c := range commands.All() {
		fmt.Fprintf(w, "%s\t%s\n", c.Usage, c.Description)
	}
	w.Flush()
}

func parseAddress(s string) (int, error) {
	addr, err := strconv.Atoi(s)
	if err != nil || addr < 0 {
		return 0, errors.Errorf("invalid address %q", s)
	}
	return addr, nil
}

func newSendCommand(cfg *controller.Config) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "send <address> <command>",
		Short: "Send a command and print the replies of the node",
		Example: `  covernode send 5 ABRIR1
  covernode send 5 75-2
  covernode send 128 STOP`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}

			client, err := controller.New(*cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Send(addr, strings.Join(args[1:], " ")); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			return client.Listen(ctx, func(r covernode.Reply) {
				if r.Kind == covernode.ReplyHeartbeat {
					return
				}
				if r.Kind != covernode.ReplyUnknown && addr != covernode.BroadcastAddr && r.Addr != addr {
					return
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.Raw)
			})
		},
	}
	cmd.Flags().DurationVarP(&wait, "wait", "w", 2*time.Second, "how long to wait for replies")

	return cmd
}

func newMonitorCommand(cfg *controller.Config) *cobra.Command {
	var (
		addr       int
		heartbeats bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print every line sent by the nodes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := controller.New(*cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			return client.Listen(cmd.Context(), func(r covernode.Reply) {
				if addr >= 0 && r.Kind != covernode.ReplyUnknown && r.Addr != addr {
					return
				}
				if r.Kind == covernode.ReplyHeartbeat && !heartbeats {
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", time.Now().Format("15:04:05.000"), r.Kind, r.Raw)
			})
		},
	}
	cmd.Flags().IntVarP(&addr, "address", "a", -1, "only show this node")
	cmd.Flags().BoolVar(&heartbeats, "heartbeats", true, "show heartbeats")

	return cmd
}

func newUICommand(cfg *controller.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop console",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ui.NewNodeUI(*cfg).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&cfg.Address, "address", "a", "", "node address")

	return cmd
}
