package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hakbang/internal/activity"
	"hakbang/internal/goal"
	"hakbang/internal/recording"
	"hakbang/internal/sensor"
	"hakbang/internal/service"
	"hakbang/internal/session"
	"hakbang/internal/tui"
)

var trackCmd = &cobra.Command{
	Use:   "track [recording]",
	Short: "Track a session from a recording",
	Long: `Replay a recorded session (.jsonl, .gpx or .fit) through the
tracking engine. Samples are paced by their timestamps, scaled by --speed.
Interactive mode shows the live dashboard; --headless prints progress and
saves the session when it qualifies.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringP("kind", "k", "walk", "Activity: walk, jog, run, cycle, pushup, squat, situp, reps; add :proximity or :accelerometer for reps")
	trackCmd.Flags().String("goal-unit", "", "Goal unit: km, minutes, reps, pace, calories")
	trackCmd.Flags().Float64("goal-target", 0, "Goal target in goal-unit")
	trackCmd.Flags().Float64("speed", -1, "Replay speed factor, 0 for as fast as possible (default from config)")
	trackCmd.Flags().Bool("headless", false, "Run without the dashboard")
	trackCmd.Flags().Bool("no-save", false, "Discard the session instead of saving it (headless)")
}

func runTrack(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := activity.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	g, err := goalFromFlags(cmd)
	if err != nil {
		return err
	}

	samples, err := recording.Load(args[0])
	if err != nil {
		return err
	}

	headless, _ := cmd.Flags().GetBool("headless")
	e, err := loadEnv(!headless)
	if err != nil {
		return err
	}
	defer e.Close()

	speed, _ := cmd.Flags().GetFloat64("speed")
	if speed < 0 {
		speed = e.cfg.Tracking.ReplaySpeed
	}

	replay := service.NewReplayService(e.history, e.cfg.Engine(), speed, e.logger)

	if headless {
		noSave, _ := cmd.Flags().GetBool("no-save")
		return trackHeadless(cmd.Context(), replay, kind, g, samples, !noSave)
	}

	units := tui.NewUnits(e.cfg.Display)
	track := tui.NewTrackModel(replay, kind, g, samples, units)
	app := tui.NewApp(e.history, units, &track)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	engine := replay.Engine()
	switch engine.State() {
	case session.StateSaved:
		if fs := app.Track().Saved(); fs != nil {
			fmt.Printf("Saved session %s\n", fs.ID)
		}
	case session.StateEnded, session.StateTracking, session.StatePaused:
		engine.Discard()
		fmt.Println("Session was not saved")
	}
	return nil
}

func goalFromFlags(cmd *cobra.Command) (*goal.Goal, error) {
	unit, _ := cmd.Flags().GetString("goal-unit")
	target, _ := cmd.Flags().GetFloat64("goal-target")
	if unit == "" && target == 0 {
		return nil, nil
	}
	g := &goal.Goal{ID: "cli", Unit: goal.Unit(unit), Target: target}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func trackHeadless(ctx context.Context, replay *service.ReplayService, k activity.Kind, g *goal.Goal, samples []sensor.Sample, save bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := make(chan service.ReplayProgress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			m := p.Snapshot.Metrics
			if k.DistanceBased() {
				fmt.Printf("\r%5d/%-5d  %7.0f m  %6.0f s", p.Completed, p.Total, m.DistanceMeters, m.DurationSeconds)
			} else {
				fmt.Printf("\r%5d/%-5d  %4d reps  %6.0f s", p.Completed, p.Total, m.RepCount, m.DurationSeconds)
			}
		}
		fmt.Println()
	}()

	result, err := replay.Run(ctx, k, g, samples, progress)
	<-done
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	engine := replay.Engine()
	final := engine.CurrentMetrics()
	printSummary(final, engine.CurrentProgress())
	if result != nil {
		fmt.Printf("Samples replayed: %s of %s\n", humanize.Comma(int64(result.Samples)), humanize.Comma(int64(len(samples))))
	}

	if !save {
		engine.Discard()
		fmt.Println("Session discarded")
		return nil
	}

	fs, err := engine.Save(ctx)
	if errors.Is(err, session.ErrValidation) {
		engine.Discard()
		fmt.Printf("Session not saved: %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Saved session %s\n", fs.ID)
	return nil
}

func printSummary(s session.Snapshot, progress float64) {
	m := s.Metrics
	fmt.Printf("Activity:  %s\n", s.Kind.String())
	fmt.Printf("Duration:  %s\n", formatDuration(m.DurationSeconds))
	if s.Kind.DistanceBased() {
		fmt.Printf("Distance:  %.2f km\n", m.DistanceKm())
		fmt.Printf("Pace:      %s /km\n", formatPace(m.PaceSecondsPerKm))
		fmt.Printf("Speed:     %.1f km/h\n", m.AvgSpeedKph)
	} else {
		fmt.Printf("Reps:      %d\n", m.RepCount)
	}
	fmt.Printf("Calories:  %.0f kcal\n", m.Calories)
	if s.Goal != nil {
		fmt.Printf("Goal:      %.0f%% of %v %s\n", progress*100, s.Goal.Target, s.Goal.Unit)
	}
}
