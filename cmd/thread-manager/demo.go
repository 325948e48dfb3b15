package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harsh-khajruia/thread-manager/internal/logger"
	"github.com/harsh-khajruia/thread-manager/internal/pool"
	"github.com/harsh-khajruia/thread-manager/internal/syncprim"
)

var (
	demoTasks    int
	demoDuration time.Duration
	demoFailNth  int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a demo workload through the pool",
	Long: `Submit a batch of sample tasks and coordinate them with a barrier, a
counting semaphore and a countdown latch, then print the resulting task
records.`,
	Run: runDemo,
}

func init() {
	demoCmd.Flags().IntVarP(&demoTasks, "tasks", "n", 8, "Number of pipeline tasks to submit")
	demoCmd.Flags().DurationVarP(&demoDuration, "duration", "d", 300*time.Millisecond, "Duration of each pipeline task")
	demoCmd.Flags().IntVar(&demoFailNth, "fail-every", 4, "Make every Nth task fail (0 = never)")
}

const rendezvousParties = 3

func runDemo(cmd *cobra.Command, args []string) {
	applyFlags()

	log, err := logger.InitForCLI(cfg.App.LogLevel)
	if err != nil {
		fmt.Println("Failed to initialize logger:", err)
		return
	}
	defer func() {
		_ = log.Sync()
	}()

	// The rendezvous phase parks three tasks on a barrier at the same
	// time, so the demo needs a few slots beyond the barrier parties.
	workers := cfg.Pool.MaxWorkers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if workers < rendezvousParties+1 {
		workers = rendezvousParties + 1
	}

	err = pool.Scope(pool.Options{
		MaxWorkers: workers,
		NamePrefix: cfg.Pool.NamePrefix,
		Logger:     log,
	}, func(mgr *pool.Manager) error {
		return demoWorkload(mgr, log)
	})
	if err != nil {
		log.Error("demo failed", zap.Error(err))
	}
}

func demoWorkload(mgr *pool.Manager, log *zap.Logger) error {
	sem, err := syncprim.NewSemaphore(2)
	if err != nil {
		return err
	}
	latch, err := syncprim.NewLatch(demoTasks)
	if err != nil {
		return err
	}
	barrier, err := syncprim.NewBarrier(rendezvousParties)
	if err != nil {
		return err
	}

	// Pipeline tasks: at most two run their critical section at a time,
	// each one counts down the latch on every exit path.
	for i := 1; i <= demoTasks; i++ {
		n := i
		if _, err := mgr.Submit(func(ctx context.Context, report pool.ProgressFunc) (any, error) {
			defer latch.CountDown()

			permit, err := sem.Acquire(10 * time.Second)
			if err != nil {
				return nil, err
			}
			defer permit.Release()

			steps := 5
			for s := 1; s <= steps; s++ {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(demoDuration / time.Duration(steps)):
				}
				report(s * 100 / steps)
			}
			if demoFailNth > 0 && n%demoFailNth == 0 {
				return nil, fmt.Errorf("pipeline task %d failed on purpose", n)
			}
			return fmt.Sprintf("pipeline-%d ok", n), nil
		}); err != nil {
			return err
		}
	}

	// Rendezvous tasks: all three meet at the barrier before finishing.
	rendezvous := make([]string, 0, rendezvousParties)
	for i := 0; i < rendezvousParties; i++ {
		id, err := mgr.Submit(func(ctx context.Context, report pool.ProgressFunc) (any, error) {
			report(50)
			if err := barrier.Wait(5 * time.Second); err != nil {
				return nil, err
			}
			report(100)
			return "rendezvous ok", nil
		})
		if err != nil {
			return err
		}
		rendezvous = append(rendezvous, id)
	}

	if err := latch.Wait(30 * time.Second); err != nil {
		return fmt.Errorf("pipeline phase did not finish: %w", err)
	}
	for _, id := range rendezvous {
		if err := mgr.Wait(id, 10*time.Second); err != nil {
			return fmt.Errorf("rendezvous task %s: %w", id, err)
		}
	}

	printResults(mgr.Tasks())
	printSummary(mgr.Stats())
	return nil
}

func printResults(tasks []pool.TaskInfo) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Task", "State", "Progress", "Outcome", "Duration"})

	for _, t := range tasks {
		outcome := t.Error
		if t.State == pool.StateTerminated {
			outcome = fmt.Sprintf("%v", t.Result)
		}
		duration := ""
		if t.StartedAt != nil && t.FinishedAt != nil {
			duration = t.FinishedAt.Sub(*t.StartedAt).Round(time.Millisecond).String()
		}
		table.Append([]string{
			t.ID[:8],
			colorState(t.State),
			fmt.Sprintf("%d%%", t.Progress),
			outcome,
			duration,
		})
	}
	table.Render()
}

func colorState(state pool.TaskState) string {
	switch state {
	case pool.StateTerminated:
		return color.GreenString(string(state))
	case pool.StateError:
		return color.RedString(string(state))
	case pool.StateRunning:
		return color.YellowString(string(state))
	default:
		return string(state)
	}
}

func printSummary(st pool.Stats) {
	fmt.Printf("\nWorkers: %d  Submitted: %d  Completed: %d  Failed: %d  Uptime: %s\n",
		st.MaxWorkers, st.Submitted, st.Completed, st.Failed, st.Uptime.Round(time.Millisecond))

	if st.Failed > 0 {
		color.Yellow("%d task(s) finished in the error state; see the table above.", st.Failed)
	} else {
		color.Green("All tasks completed successfully.")
	}
}
