package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jengzang/activity-tracker-go/internal/config"
	"github.com/jengzang/activity-tracker-go/internal/database"
	"github.com/jengzang/activity-tracker-go/internal/notify"
	"github.com/jengzang/activity-tracker-go/internal/repository"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print finished activities",
	Long:  `Print finished activities from the database, newest first, followed by totals.`,
	Example: `  tracker history
  tracker -c tracker.yaml history --limit 5`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of activities to print (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.Open(database.Config{Path: cfg.Database.Path}, zerolog.Nop())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := repository.NewActivityRepository(db)

	activities, err := repo.GetSessions(ctx)
	if err != nil {
		return err
	}
	stats, err := repo.GetStats(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if len(activities) == 0 {
		yellow.Println("No finished activities")
		return nil
	}

	cyan.Printf("%-6s %-6s %-17s %10s %10s %10s\n", "ID", "TYPE", "STARTED", "DISTANCE", "DURATION", "AVG SPEED")
	for i, a := range activities {
		if historyLimit > 0 && i >= historyLimit {
			yellow.Printf("... %d more\n", len(activities)-historyLimit)
			break
		}
		fmt.Printf("%-6d %-6s %-17s ", a.ID, a.Type, time.UnixMilli(a.StartTimeMs).Format("2006-01-02 15:04"))
		green.Printf("%7.2f km", a.DistanceKm)
		fmt.Printf(" %10s %6.1f km/h\n",
			notify.FormatDuration(int64(a.DurationSeconds*1000)), a.AvgSpeedKmh)
	}

	fmt.Println()
	cyan.Print("Total: ")
	fmt.Printf("%d activities, %.2f km, %s\n",
		stats.TotalActivities,
		stats.TotalDistanceKm,
		(time.Duration(stats.TotalDurationSeconds) * time.Second).String())
	return nil
}
