// Package cleanupcmder provides the `playback cleanup` CLI command.
package cleanupcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/appenv"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/retention"
	"github.com/papercomputeco/playback/pkg/utils"
)

const cleanupLongDesc string = `Apply retention policies and reclaim disk space.

With --auto (or no action flags) both the temp tree and the recordings are
swept using the configured policies. --policy sweeps both with one policy;
--temp-policy and --recording-policy pick one side each. --orphaned,
--vacuum, and --report can be combined with any of them and run in that
order. --dry-run reports what would be removed without touching anything.

Examples:
  playback cleanup
  playback cleanup --dry-run
  playback cleanup --policy 1_week
  playback cleanup --temp-policy 1_day
  playback cleanup --recording-policy 1_month --vacuum
  playback cleanup --orphaned --report`

const cleanupShortDesc string = "Apply retention policies and reclaim space"

type cleanupCommander struct {
	auto            bool
	policy          string
	tempPolicy      string
	recordingPolicy string
	orphaned        bool
	vacuum          bool
	report          bool
	dryRun          bool
	verbose         bool
}

// NewCleanupCmd creates the cleanup cobra command.
func NewCleanupCmd() *cobra.Command {
	cmder := &cleanupCommander{}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: cleanupShortDesc,
		Long:  cleanupLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.auto, "auto", false, "Sweep temp and recordings with the configured policies")
	cmd.Flags().StringVar(&cmder.policy, "policy", "", "Sweep temp and recordings with this policy (never, 1_day, 1_week, 1_month)")
	cmd.Flags().StringVar(&cmder.tempPolicy, "temp-policy", "", "Sweep temp frames with this policy")
	cmd.Flags().StringVar(&cmder.recordingPolicy, "recording-policy", "", "Sweep recorded segments with this policy")
	cmd.Flags().BoolVar(&cmder.orphaned, "orphaned", false, "Remove catalog rows whose video files are gone")
	cmd.Flags().BoolVar(&cmder.vacuum, "vacuum", false, "Rebuild the catalog file after sweeping")
	cmd.Flags().BoolVar(&cmder.report, "report", false, "Print a disk usage report after the run")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Report what would be removed without deleting")
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Show the resolved policies before sweeping")

	return cmd
}

func (c *cleanupCommander) run(ctx context.Context, cmd *cobra.Command) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// No explicit action means a full auto sweep.
	if !c.auto && c.policy == "" && c.tempPolicy == "" && c.recordingPolicy == "" && !c.orphaned && !c.vacuum && !c.report {
		c.auto = true
	}

	tempPolicy, recordingPolicy, err := c.resolvePolicies(env)
	if err != nil {
		return err
	}

	sweepTemp := c.auto || c.policy != "" || c.tempPolicy != ""
	sweepRecordings := c.auto || c.policy != "" || c.recordingPolicy != ""

	// A recordings sweep under the never policy touches nothing, so a
	// fresh install without a catalog can still run the default sweep.
	needsCatalog := (sweepRecordings && recordingPolicy != retention.PolicyNever) ||
		c.orphaned || c.vacuum || c.report

	catalogPath := env.Tree.CatalogPath()
	if needsCatalog && !catalog.Exists(catalogPath) {
		return fmt.Errorf("%w: %s (run `playback init` or `playback build` first)", retention.ErrNoCatalog, catalogPath)
	}

	var cat *catalog.Catalog
	if needsCatalog {
		cat, err = catalog.Open(catalogPath, env.Logger)
		if err != nil {
			return err
		}
		defer func() { _ = cat.Close() }()
	}

	publisher := env.Publisher()
	defer func() { _ = publisher.Close() }()

	sweeper := retention.NewSweeper(env.Tree, cat, publisher, env.Logger)

	if c.dryRun {
		fmt.Fprintln(out, "Dry run mode, nothing will be deleted")
	}
	if c.verbose {
		fmt.Fprintf(out, "Data dir: %s\n", env.Tree.Root())
		fmt.Fprintf(out, "Policies: temp=%s recordings=%s\n", tempPolicy, recordingPolicy)
	}

	if sweepTemp {
		result, err := sweeper.SweepTemp(ctx, tempPolicy, c.dryRun)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "temp: %s\n", result.Summary())
	}

	if sweepRecordings {
		result, err := sweeper.SweepRecordings(ctx, recordingPolicy, c.dryRun)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "recordings: %s\n", result.Summary())
	}

	if c.orphaned {
		removed, err := sweeper.ReconcileOrphans(ctx, c.dryRun)
		if err != nil {
			return err
		}
		verb := "removed"
		if c.dryRun {
			verb = "would remove"
		}
		fmt.Fprintf(out, "orphans: %s %d catalog rows\n", verb, removed)
	}

	if c.vacuum && !c.dryRun {
		freed, err := sweeper.VacuumStore(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "vacuum: reclaimed %s\n", utils.FormatSize(freed))
	}

	if c.report {
		usage, err := sweeper.Usage()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "usage: %s\n", usage.Summary())
	}

	return nil
}

// resolvePolicies picks flag policies over configured ones, parsing both.
// Specific flags beat --policy, which beats the config.
func (c *cleanupCommander) resolvePolicies(env *appenv.Env) (retention.Policy, retention.Policy, error) {
	tempRaw := c.tempPolicy
	if tempRaw == "" {
		tempRaw = c.policy
	}
	if tempRaw == "" {
		tempRaw = env.Config.Retention.Temp
	}
	recordingRaw := c.recordingPolicy
	if recordingRaw == "" {
		recordingRaw = c.policy
	}
	if recordingRaw == "" {
		recordingRaw = env.Config.Retention.Recording
	}

	tempPolicy, err := retention.ParsePolicy(tempRaw)
	if err != nil {
		return "", "", fmt.Errorf("temp policy: %w", err)
	}
	recordingPolicy, err := retention.ParsePolicy(recordingRaw)
	if err != nil {
		return "", "", fmt.Errorf("recording policy: %w", err)
	}
	return tempPolicy, recordingPolicy, nil
}
