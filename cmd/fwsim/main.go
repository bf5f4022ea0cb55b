// Command fwsim is a small harness around the corefw packages: it
// boots the demo module table, drives it through a scenario of
// synthetic events and interrupts, and exposes the result over logs
// and Prometheus metrics. The firmware core itself has no CLI; this
// binary exists to link the library packages together and exercise
// them outside of real hardware.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/fwerr"
	"github.com/scpfw/corefw/pkg/log"
	"github.com/scpfw/corefw/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fwsim",
	Short: "fwsim - demo harness for the corefw event-driven core runtime",
	Long: `fwsim links the corefw packages (identifiers, arena, dispatcher,
notification broker, module lifecycle, main loop) against a small demo
module table so the runtime can be booted, driven, and measured
outside of real firmware.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("fwsim version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().Int("pool-capacity", 8, "Event pool capacity")
	rootCmd.PersistentFlags().Bool("strict", true, "Enable strict id validation on put_event")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(injectIRQCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func newRunID() string {
	return uuid.New().String()
}

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot the demo module table and run one scenario to completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity, _ := cmd.Flags().GetInt("pool-capacity")
		strict, _ := cmd.Flags().GetBool("strict")
		scenarioPath, _ := cmd.Flags().GetString("scenario")

		runID := newRunID()
		boot := log.WithComponent("boot")
		boot.Info().Str("run_id", runID).Msg("booting demo runtime")

		core := buildDemoCore(capacity, strict)
		if err := core.rt.Boot(); err != nil {
			return fmt.Errorf("boot: %w", err)
		}
		boot.Info().Msg("module table booted")

		scenario := defaultScenario()
		if scenarioPath != "" {
			s, err := LoadScenario(scenarioPath)
			if err != nil {
				return err
			}
			scenario = s
		}
		runScenario(core, scenario)

		boot.Info().
			Int("free_slots", core.pool.FreeCount()).
			Int("capacity", core.pool.Capacity()).
			Msg("scenario complete")
		return nil
	},
}

func init() {
	bootCmd.Flags().String("scenario", "", "Path to a YAML scenario file (uses a built-in demo scenario if omitted)")
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Boot the demo module table and print its module list",
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity, _ := cmd.Flags().GetInt("pool-capacity")
		strict, _ := cmd.Flags().GetBool("strict")

		core := buildDemoCore(capacity, strict)
		if err := core.rt.Boot(); err != nil {
			return fmt.Errorf("boot: %w", err)
		}

		fmt.Printf("%-3s %-12s %-10s %s\n", "IDX", "NAME", "ELEMENTS", "STATE")
		for i := 0; i < core.table.ModuleCount(); i++ {
			ctx := core.table.Module(i)
			fmt.Printf("%-3d %-12s %-10d %d\n", i, ctx.Desc.Name, len(ctx.Elements), ctx.State)
		}
		return nil
	},
}

var injectIRQCmd = &cobra.Command{
	Use:   "inject-irq IRQ",
	Short: "Boot the demo runtime and inject a single synthetic interrupt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity, _ := cmd.Flags().GetInt("pool-capacity")
		strict, _ := cmd.Flags().GetBool("strict")

		var irq int
		if _, err := fmt.Sscanf(args[0], "%d", &irq); err != nil {
			return fmt.Errorf("invalid irq %q: %w", args[0], err)
		}

		core := buildDemoCore(capacity, strict)
		if err := core.rt.Boot(); err != nil {
			return fmt.Errorf("boot: %w", err)
		}

		// Prime the echo module's delayed response so the injected IRQ has
		// something to complete, then fire it (S2/S3's "ISR completes a
		// delayed response" shape).
		if _, code := core.fireEchoDelayed(); code != fwerr.Success {
			return fmt.Errorf("fire echo-delayed: %s", code)
		}
		core.rt.Step()

		if err := core.sim.Inject(arch.IRQ(irq)); err != nil {
			return fmt.Errorf("inject irq %d: %w", irq, err)
		}
		core.rt.Step()

		fmt.Printf("injected irq %d; free slots %d/%d\n", irq, core.pool.FreeCount(), core.pool.Capacity())
		return nil
	},
}

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Boot the demo runtime, run its loop in the background, and serve /metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		capacity, _ := cmd.Flags().GetInt("pool-capacity")
		strict, _ := cmd.Flags().GetBool("strict")
		addr, _ := cmd.Flags().GetString("addr")

		core := buildDemoCore(capacity, strict)
		if err := core.rt.Boot(); err != nil {
			return fmt.Errorf("boot: %w", err)
		}

		http.Handle("/metrics", metrics.Handler())
		http.Handle("/health", metrics.HealthHandler())
		http.Handle("/ready", metrics.ReadyHandler())
		http.Handle("/live", metrics.LivenessHandler())

		errCh := make(chan error, 1)
		go func() {
			if err := http.ListenAndServe(addr, nil); err != nil {
				errCh <- err
			}
		}()
		fmt.Printf("metrics: http://%s/metrics\n", addr)

		stop := make(chan struct{})
		go core.rt.Run(stop)

		go func() {
			for {
				time.Sleep(50 * time.Millisecond)
				core.sim.Wake()
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
		case err := <-errCh:
			close(stop)
			return err
		}
		close(stop)
		return nil
	},
}

func init() {
	serveMetricsCmd.Flags().String("addr", "127.0.0.1:9090", "Metrics server listen address")
}

// runScenario executes every step against core, sleeping for its delay
// and calling Step once the action has been enqueued so the dispatcher
// actually drains it before the next step fires.
func runScenario(core *demoCore, s *Scenario) {
	l := log.WithComponent("scenario")
	l.Info().Str("name", s.Name).Int("steps", len(s.Steps)).Msg("running scenario")
	for i, step := range s.Steps {
		time.Sleep(step.After)
		switch step.Action {
		case "echo":
			_, code := core.fireEchoImmediate()
			l.Info().Int("step", i).Str("action", step.Action).Str("code", code.String()).Msg("fired")
		case "echo-delayed":
			_, code := core.fireEchoDelayed()
			l.Info().Int("step", i).Str("action", step.Action).Str("code", code.String()).Msg("fired")
		case "notify":
			count, code := core.fireNotification()
			l.Info().Int("step", i).Str("action", step.Action).Int("fanout", count).Str("code", code.String()).Msg("fired")
		case "irq":
			if err := core.sim.Inject(arch.IRQ(step.IRQ)); err != nil {
				l.Warn().Int("step", i).Err(err).Msg("irq injection failed")
			}
		default:
			l.Warn().Int("step", i).Str("action", step.Action).Msg("unknown scenario action")
		}
		core.rt.Step()
	}
}
