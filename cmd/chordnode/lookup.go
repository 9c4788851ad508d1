package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	chordring "go-chordring"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	var (
		via     string
		key     string
		bits    int
		timeout time.Duration
	)

	var cmd = &cobra.Command{
		Use:   "lookup [id]",
		Short: "Find the node responsible for an identifier or key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target chordring.ID
			switch {
			case key != "":
				target = chordring.HashToID(key, bits)
			case len(args) == 1:
				value, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid identifier %q: %w", args[0], err)
				}
				target = chordring.ID(value)
			default:
				return errors.New("either an identifier or --key is required")
			}

			var ctx, cancel = context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var client = chordring.NewClient(timeout, nil)
			result, err := client.FindSuccessor(ctx, via, target)
			if err != nil {
				return err
			}

			fmt.Printf("%s %d -> %s %s\n",
				color.CyanString("id"), target,
				color.GreenString(result.Node.String()),
				color.New(color.Faint).Sprintf("(%d hops)", result.Hops))
			return nil
		},
	}

	cmd.Flags().StringVar(&via, "via", "127.0.0.1:7000", "Address of the ring member to ask")
	cmd.Flags().StringVar(&key, "key", "", "Hash this key instead of passing an identifier")
	cmd.Flags().IntVar(&bits, "bits", 32, "Identifier width used to hash --key")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Overall lookup timeout")

	return cmd
}

func newPingCmd() *cobra.Command {
	var timeout time.Duration

	var cmd = &cobra.Command{
		Use:   "ping <addr>",
		Short: "Check that a node answers and show its successor and predecessor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				addr        = args[0]
				ctx, cancel = context.WithTimeout(cmd.Context(), timeout)
				client      = chordring.NewClient(timeout, nil)
			)
			defer cancel()

			self, err := client.Ping(ctx, addr)
			if err != nil {
				return err
			}
			successor, err := client.GetSuccessor(ctx, addr)
			if err != nil {
				return err
			}
			predecessor, found, err := client.GetPredecessor(ctx, addr)
			if err != nil {
				return err
			}

			color.Green("✓ %s is alive", self)
			fmt.Printf("  successor:   %s\n", successor)
			if found {
				fmt.Printf("  predecessor: %s\n", predecessor)
			} else {
				fmt.Printf("  predecessor: <unset>\n")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "Call timeout")
	return cmd
}
