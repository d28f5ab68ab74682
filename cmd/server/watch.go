package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jengzang/activity-tracker-go/internal/config"
	"github.com/jengzang/activity-tracker-go/internal/notify"
	"github.com/jengzang/activity-tracker-go/internal/stream"
	"github.com/jengzang/activity-tracker-go/internal/tracking"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live session events through Redis",
	Long:  `Subscribe to the Redis relay of a running server and print session events as they arrive.`,
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("Watching %s on %s\n", stream.Pattern(cfg.Redis.ChannelPrefix), cfg.Redis.Addr)

	return stream.Watch(ctx, client, cfg.Redis.ChannelPrefix, printEvent)
}

func printEvent(ev tracking.Event) {
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	at := time.UnixMilli(ev.AtMs).Format("15:04:05")
	fmt.Printf("%s session %d ", at, ev.SessionID)

	switch ev.Kind {
	case tracking.EventSessionStarted, tracking.EventSessionResumed:
		green.Printf("%-17s", ev.Kind)
	case tracking.EventSessionPaused:
		yellow.Printf("%-17s", ev.Kind)
	case tracking.EventSessionStopped, tracking.EventSessionAborted:
		red.Printf("%-17s", ev.Kind)
	default:
		fmt.Printf("%-17s", ev.Kind)
	}

	fmt.Printf(" %.2f km  %s", ev.Snapshot.DistanceKm, notify.FormatDuration(ev.Snapshot.ElapsedMs))
	if n := len(ev.Fixes); n > 0 {
		fmt.Printf("  +%d fixes", n)
	}
	fmt.Println()
}
