package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	chordring "go-chordring"

	"github.com/eiannone/keyboard"
	"github.com/fatih/color"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

type runFlags struct {
	addr        string
	join        string
	bits        int
	timeout     time.Duration
	stabilize   time.Duration
	dbURL       string
	ringID      string
	memberTTL   time.Duration
	logLevel    string
	interactive bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	var cmd = &cobra.Command{
		Use:   "run",
		Short: "Run a ring node until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "127.0.0.1:7000", "Listen address, also hashed into the node identifier")
	cmd.Flags().StringVar(&flags.join, "join", "", "Address of any ring member to join through")
	cmd.Flags().IntVar(&flags.bits, "bits", 32, "Identifier width m; the ring has 2^m identifiers")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 2*time.Second, "Timeout for every outbound call")
	cmd.Flags().DurationVar(&flags.stabilize, "stabilize", 0, "Stabilization period, 0 disables it")
	cmd.Flags().StringVar(&flags.dbURL, "db", "", "PostgreSQL URL of the peer directory (optional)")
	cmd.Flags().StringVar(&flags.ringID, "ring-id", "demo_ring", "Ring identifier in the peer directory")
	cmd.Flags().DurationVar(&flags.memberTTL, "member-ttl", 15*time.Second, "Directory registration time-to-live")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&flags.interactive, "interactive", false, "Show a live status view with keyboard controls")

	return cmd
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	// Logs go to stderr so they don't get cleared by status updates
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func runNode(ctx context.Context, flags runFlags) error {
	var logger, err = newLogger(flags.logLevel)
	if err != nil {
		return err
	}

	var opts = []chordring.Option{
		chordring.WithRingBits(flags.bits),
		chordring.WithCallTimeout(flags.timeout),
		chordring.WithStabilizeInterval(flags.stabilize),
		chordring.WithLogger(logger),
	}

	if flags.dbURL != "" {
		db, err := sql.Open("postgres", flags.dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		directory, err := chordring.NewPostgresDirectory(ctx, db, flags.ringID, flags.memberTTL)
		if err != nil {
			return err
		}
		defer func() {
			if err := directory.Remove(context.Background(), flags.addr); err != nil {
				logger.Warn("failed to leave directory", "error", err)
			}
		}()

		opts = append(opts, chordring.WithDirectory(directory), chordring.WithMemberTTL(flags.memberTTL))
	}

	node, err := chordring.NewNode(flags.addr, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !flags.interactive {
		return node.Run(ctx, flags.join)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var done = make(chan error, 1)
	go func() { done <- node.Run(ctx, flags.join) }()

	return interact(ctx, cancel, node, done)
}

func interact(ctx context.Context, cancel context.CancelFunc, node *chordring.Node, done <-chan error) error {
	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	defer keyboard.Close()

	var keyCh = make(chan rune)
	go func() {
		for {
			char, _, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case keyCh <- char:
			case <-ctx.Done():
				return
			}
		}
	}()

	var ticker = time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastRefresh error
	printStatus(node, lastRefresh)

	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			printStatus(node, lastRefresh)
		case key := <-keyCh:
			switch key {
			case 'f', 'F':
				var refreshCtx, refreshCancel = context.WithTimeout(ctx, 10*time.Second)
				lastRefresh = node.Refresh(refreshCtx)
				refreshCancel()
				printStatus(node, lastRefresh)
			case 'c', 'C':
				fmt.Printf("\n\n💥 Crashing immediately (no cleanup)...\n")
				os.Exit(1)
			case 'q', 'Q':
				fmt.Printf("\n\nShutting down...\n")
				cancel()
				if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				fmt.Printf("✓ Node stopped\n")
				return nil
			}
		}
	}
}

func printStatus(node *chordring.Node, lastRefresh error) {
	fmt.Print("\033[2J\033[H") // Clear screen and move cursor to top
	fmt.Println(node.String())

	if node.Joined() {
		color.Green("\n● JOINED")
	} else {
		color.Yellow("\n○ STANDALONE")
	}

	if lastRefresh != nil {
		color.Red("⚠️  last refresh failed: %v", lastRefresh)
	}

	fmt.Printf("\nControls:\n")
	fmt.Printf("  [f] Refresh successor and fingers\n")
	fmt.Printf("  [c] Crash without cleanup\n")
	fmt.Printf("  [q] Quit\n")
}
