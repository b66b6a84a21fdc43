package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/completion"
	"github.com/lingora/lingora/internal/config"
	"github.com/lingora/lingora/internal/gate"
	"github.com/lingora/lingora/internal/quota"
	"github.com/lingora/lingora/internal/storage"
)

var checkUserKey string

var checkCmd = &cobra.Command{
	Use:   "check FEATURE",
	Short: "Check a gate decision interactively",
	Long:  `Check what decision the feature gate would make for a user right now, without consuming quota.`,
	Example: `  lingora -c config.yaml check definition-lookup --user alice@example.com
  lingora check writing-review --user user-123`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkUserKey, "user", "", "User key to check (required)")
	checkCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	feature := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Quiet logger for check mode
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	store := openStorage(cfg, logger)
	defer store.Close()

	days, err := clock.NewDayKeeper(clock.RealClock{}, cfg.Quota.DailyResetTime)
	if err != nil {
		return fmt.Errorf("invalid daily_reset_time: %w", err)
	}

	var max int64
	switch feature {
	case "definition-lookup":
		max = int64(cfg.Quota.DefinitionsPerDay)
	case "writing-review":
		max = int64(cfg.Quota.ReviewsPerDay)
	default:
		return fmt.Errorf("unknown feature: %s (expected definition-lookup or writing-review)", feature)
	}

	quotaService := quota.NewService(store.Counters(), days, logger)
	completionService := completion.NewService(store.Flags(), days, nil, logger)
	featureGate := gate.New(quotaService, completionService, days, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	decision := featureGate.Check(ctx, checkUserKey, feature, max)
	count := quotaService.GetCount(ctx, checkUserKey, feature)
	status := completionService.GetStatus(ctx, checkUserKey, feature)

	printCheckResult(feature, days, decision, count, max, status)
	return nil
}

// printCheckResult prints the gate check result with colors
func printCheckResult(feature string, days *clock.DayKeeper, decision gate.Decision, count, max int64, status storage.FlagStatus) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	cyan.Println("FEATURE GATE CHECK")
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Feature:    %s\n", feature)
	fmt.Printf("User:       %s\n", checkUserKey)
	fmt.Printf("Day:        %s\n", days.TodayKey())
	fmt.Printf("Usage:      %d of %d\n", count, max)
	fmt.Printf("Completion: %s\n", status)
	fmt.Println()

	cyan.Print("Decision:   ")
	switch decision {
	case gate.Allowed:
		green.Println("ALLOWED")
		fmt.Printf("            → %d uses left today\n", max-count)
	case gate.DeniedQuota:
		red.Println("DENIED (quota)")
		fmt.Println("            → Daily limit reached")
		fmt.Printf("            → Resets in %s\n", formatSeconds(days.SecondsUntilRollover()))
	case gate.DeniedCompleted:
		yellow.Println("DENIED (completed)")
		fmt.Println("            → Today's work for this feature is done")
		fmt.Printf("            → Resets in %s\n", formatSeconds(days.SecondsUntilRollover()))
	default:
		fmt.Printf("UNKNOWN (%s)\n", decision)
	}

	fmt.Println()
	cyan.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
}

// formatSeconds renders a second count as HHh MMm.
func formatSeconds(seconds int) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
}
