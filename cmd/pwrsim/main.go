package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/averyjl/pwrsim/internal/config"
	"github.com/averyjl/pwrsim/internal/engine"
	"github.com/averyjl/pwrsim/internal/eventlog"
	"github.com/averyjl/pwrsim/internal/metrics"
	"github.com/averyjl/pwrsim/internal/plant"
	"github.com/averyjl/pwrsim/internal/sched"
	"github.com/averyjl/pwrsim/internal/store"
	"github.com/averyjl/pwrsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	ticks      int
	audit      bool
	timeScale  float64
	pumps      int
	stagger    int
	outPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pwrsim",
		Short: "PWR cold-shutdown heatup simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pwrsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless heatup and save the result",
		RunE:  runHeadless,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset lineup")
	runCmd.Flags().IntVar(&ticks, "ticks", 0, "tick count (0 uses the config value)")
	runCmd.Flags().BoolVar(&audit, "audit", false, "run with the conservation audit active")
	runCmd.Flags().IntVar(&pumps, "pumps", 4, "reactor coolant pumps to start")
	runCmd.Flags().IntVar(&stagger, "pump-stagger", 90, "ticks between pump starts")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the live operator console",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset lineup")
	liveCmd.Flags().Float64Var(&timeScale, "time-scale", 0, "sim seconds per wall second (0 uses the config value)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run's trends",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the full run to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSONRun,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to <run_id>.json)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset lineups",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers preset, config file, then CLI flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			names := config.ListPresets()
			sort.Strings(names)
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, names)
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("ticks") {
		cfg.Run.HeadlessTicks = ticks
	}
	if cmd.Flags().Changed("audit") {
		cfg.Run.Audit = audit
	}
	if cmd.Flags().Changed("time-scale") {
		cfg.Run.TimeScale = timeScale
	}
	return cfg, cfg.Validate()
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	eng := engine.New(cfg.EngineParams())
	sch := sched.New(eng, cfg.SchedOptions())
	if cfg.Run.Audit {
		eng.BeginAudit()
	}

	set := metrics.DefaultSet()

	fmt.Printf("running %d ticks (%.0f sim seconds)...\n",
		cfg.Run.HeadlessTicks, float64(cfg.Run.HeadlessTicks)*cfg.TickSeconds)
	start := time.Now()

	run, runErr := executeRun(eng, sch, set, cfg.Run.HeadlessTicks, pumps, stagger)
	elapsed := time.Since(start)

	runID, err := st.Save(presetName(), cfg.TickSeconds, run, set.Values())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	if n := len(run); n > 0 {
		last := run[n-1]
		fmt.Printf("final: tavg %.1f °F, pressure %.0f psia, bubble formed %v\n",
			last.TavgF, last.PressurePsia, last.BubbleFormed)
	}
	fmt.Printf("alarms: %d, fatals: %d\n",
		eng.EventCount(eventlog.Alarm), eng.EventCount(eventlog.Fatal))
	printNotableEvents(eng.EventTail(64))
	fmt.Println("\nmetrics:")
	vals := set.Values()
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, vals[name])
	}

	return runErr
}

// executeRun drives the scheduler one tick at a time so pump starts land on
// their scheduled ticks and every snapshot feeds the metric set. A fatal tick
// error ends the run early; whatever was collected is still saved.
func executeRun(eng *engine.Engine, sch *sched.Scheduler, set *metrics.Set, n, pumps, stagger int) ([]plant.Snapshot, error) {
	if pumps > 4 {
		pumps = 4
	}
	if stagger < 1 {
		stagger = 1
	}
	snaps := make([]plant.Snapshot, 0, n)
	for i := 0; i < n; i++ {
		for pump := 0; pump < pumps; pump++ {
			if i == pump*stagger {
				eng.StartRCP(pump)
			}
		}
		if _, err := sch.RunTicks(1); err != nil {
			return snaps, err
		}
		snap := eng.Snapshot()
		set.Observe(snap)
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func printNotableEvents(events []eventlog.Event) {
	notable := events[:0:0]
	for _, ev := range events {
		if ev.Severity >= eventlog.Warning {
			notable = append(notable, ev)
		}
	}
	if len(notable) == 0 {
		return
	}
	fmt.Println("\nevents:")
	for _, ev := range notable {
		fmt.Printf("  [%7.0fs] %-5s %s\n", ev.SimTime, ev.Severity, ev.Message)
	}
}

func presetName() string {
	if preset != "" {
		return preset
	}
	return "custom"
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	eng := engine.New(cfg.EngineParams())
	sch := sched.New(eng, cfg.SchedOptions())
	if cfg.Run.Audit {
		eng.BeginAudit()
	}

	p := tea.NewProgram(viz.NewModel(sch), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTICKS\tFINAL TAVG\tFINAL PSIA\tBUBBLE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f\t%.0f\t%v\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.FinalTavgF,
			run.FinalPsia,
			run.BubbleFormed,
		)
	}
	return w.Flush()
}

// plotColumns are the trends the plot command renders, in order.
var plotColumns = []struct{ name, caption string }{
	{"tavg_f", "bulk average temperature (°F)"},
	{"pressure_psia", "RCS pressure (psia)"},
	{"przr_level_pct", "pressurizer level (%)"},
	{"coupling_alpha", "coupling factor"},
	{"heater_kw", "heater power (kW)"},
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := store.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(series.Rows))

	for _, col := range plotColumns {
		data := series.Column(col.name)
		if len(data) < 2 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSONRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	path := outPath
	if path == "" {
		path = runID + ".json"
	}
	st := store.New(dataDir)
	if err := st.ExportJSON(runID, path); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, path)
	return nil
}
