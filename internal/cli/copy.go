package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvs-project/fcp/internal/engine"
	"github.com/jvs-project/fcp/internal/journal"
	"github.com/jvs-project/fcp/internal/tui"
	"github.com/jvs-project/fcp/pkg/color"
	"github.com/jvs-project/fcp/pkg/config"
	"github.com/jvs-project/fcp/pkg/logging"
	"github.com/jvs-project/fcp/pkg/metrics"
	"github.com/jvs-project/fcp/pkg/model"
	"github.com/jvs-project/fcp/pkg/progress"
	"github.com/jvs-project/fcp/pkg/webhook"
)

const webhookTimeout = 30 * time.Second

type copyOptions struct {
	overwrite       bool
	noClobber       bool
	chunkSize       int
	tui             bool
	noTUI           bool
	noProgress      bool
	sync            bool
	preserveTimes   bool
	metricsTextfile string
	journal         string
}

func newCopyCmd(g *globalOptions) *cobra.Command {
	o := &copyOptions{}

	cmd := &cobra.Command{
		Use:     "copy <source> <destination>",
		Aliases: []string{"cp"},
		Short:   "Copy a file with progress, pause and cancel",
		Long: `Copy one file to a destination path.

While the copy runs:
  p / space      pause or resume (interactive mode)
  c / Ctrl+C     cancel and remove the partial destination
  SIGUSR1        toggle pause (non-interactive mode)

If the destination already exists you are asked whether to overwrite it,
unless --overwrite or --no-clobber decides up front.

Exit status is 0 when the copy completed or was skipped, 1 on failure
and 130 when canceled.

Examples:
  fcp copy big.iso /mnt/usb/big.iso
  fcp copy --overwrite data.bin backup/data.bin
  fcp copy --json --no-clobber a.txt b.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, g, o, model.PathSpec{From: args[0], To: args[1]})
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.overwrite, "overwrite", "f", false, "replace an existing destination without asking")
	f.BoolVarP(&o.noClobber, "no-clobber", "n", false, "never replace an existing destination")
	f.IntVar(&o.chunkSize, "chunk-size", config.DefaultChunkSize, "bytes per read/write cycle")
	f.BoolVar(&o.tui, "tui", false, "force the interactive terminal UI")
	f.BoolVar(&o.noTUI, "no-tui", false, "disable the interactive terminal UI")
	f.BoolVar(&o.noProgress, "no-progress", false, "do not draw a progress bar")
	f.BoolVar(&o.sync, "sync", true, "fsync the destination before reporting success")
	f.BoolVar(&o.preserveTimes, "preserve-times", false, "copy the source modification time")
	f.StringVar(&o.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when done")
	f.StringVar(&o.journal, "journal", "", "append the result to this history file (default from config)")
	cmd.MarkFlagsMutuallyExclusive("overwrite", "no-clobber")
	cmd.MarkFlagsMutuallyExclusive("tui", "no-tui")
	return cmd
}

func runCopy(cmd *cobra.Command, g *globalOptions, o *copyOptions, spec model.PathSpec) error {
	cfg := g.cfg
	if cfg == nil {
		cfg = config.Default()
	}

	chunkSize := cfg.ChunkSize
	if cmd.Flags().Changed("chunk-size") {
		chunkSize = o.chunkSize
	}
	if chunkSize <= 0 {
		return fmt.Errorf("--chunk-size must be positive, got %d", chunkSize)
	}
	syncDst := cfg.Sync
	if cmd.Flags().Changed("sync") {
		syncDst = o.sync
	}
	preserve := cfg.PreserveTimes || o.preserveTimes

	reg := metrics.Default()
	opts := []engine.Option{
		engine.WithChunkSize(chunkSize),
		engine.WithSync(syncDst),
		engine.WithPreserveTimes(preserve),
		engine.WithMetrics(reg),
	}

	policy := o.conflictPolicy(cfg)
	label := filepath.Base(spec.From)

	var (
		e   *engine.CopyEngine
		res model.Result
	)
	if o.useTUI(cfg, g.jsonOutput, cmd) {
		session := tui.NewSession()
		opts = append(opts, engine.WithResolver(resolverFor(policy, session)))
		e = engine.NewCopyEngine(spec, opts...)

		stop := watchSignals(e, nil)
		var err error
		res, err = session.Run(cmd.Context(), e, label)
		stop()
		if err != nil {
			logging.Warn("terminal UI failed", map[string]any{"error": err.Error()})
		}
	} else {
		var ask engine.ConflictResolver
		if isTerminal(cmd.InOrStdin()) {
			prompt := &promptResolver{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}
			defer prompt.Close()
			ask = prompt
		} else if policy == config.ConflictAsk {
			logging.Warn("stdin is not a terminal, existing destination will be kept", nil)
		}
		opts = append(opts, engine.WithResolver(resolverFor(policy, ask)))
		e = engine.NewCopyEngine(spec, opts...)

		bar := progress.NewTerminal(label, o.progressEnabled(cfg, cmd))
		bar.SetWriter(cmd.ErrOrStderr())
		e.OnProgress(bar.Callback())

		stop := watchSignals(e, bar.SetPaused)
		res = e.Run(cmd.Context())
		stop()
		bar.Done(string(res.Status))
	}

	o.record(cmd, cfg, reg, e.ID(), res)

	if err := printResult(cmd.OutOrStdout(), g.jsonOutput, res); err != nil {
		return err
	}
	return exitFor(res)
}

// record appends res to the journal, notifies webhooks and writes the
// metrics textfile. Failures are logged; they never change the exit status.
func (o *copyOptions) record(cmd *cobra.Command, cfg *config.Config, reg *metrics.Registry, copyID string, res model.Result) {
	journalPath := cfg.Journal
	if o.journal != "" {
		journalPath = o.journal
	}
	if journalPath != "" {
		if err := journal.New(journalPath).Append(journal.NewEntry(copyID, res)); err != nil {
			logging.ErrorErr("append journal", err)
		}
	}

	if len(cfg.Webhooks) > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), webhookTimeout)
		err := webhook.NewClient(cfg.Webhooks).Send(ctx, webhook.NewEvent(copyID, res))
		cancel()
		if err != nil {
			logging.Global().WarnErr("webhook delivery failed", err)
		}
	}

	if o.metricsTextfile != "" {
		if err := reg.WriteTextfile(o.metricsTextfile); err != nil {
			logging.ErrorErr("write metrics textfile", err)
		}
	}
}

func (o *copyOptions) conflictPolicy(cfg *config.Config) string {
	switch {
	case o.overwrite:
		return config.ConflictOverwrite
	case o.noClobber:
		return config.ConflictAbandon
	}
	return cfg.OnConflict
}

// resolverFor maps a policy to a resolver. ask is used for "ask" and may be
// nil, in which case the destination is kept.
func resolverFor(policy string, ask engine.ConflictResolver) engine.ConflictResolver {
	switch policy {
	case config.ConflictOverwrite:
		return engine.Overwrite
	case config.ConflictAsk:
		if ask != nil {
			return ask
		}
	}
	return engine.Abandon
}

func (o *copyOptions) useTUI(cfg *config.Config, jsonOutput bool, cmd *cobra.Command) bool {
	switch {
	case jsonOutput:
		return false
	case o.tui:
		return true
	case o.noTUI:
		return false
	case cfg.TUI != nil:
		return *cfg.TUI
	}
	return isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout())
}

func (o *copyOptions) progressEnabled(cfg *config.Config, cmd *cobra.Command) bool {
	if o.noProgress {
		return false
	}
	if cfg.ProgressEnabled != nil {
		return *cfg.ProgressEnabled
	}
	return isTerminal(cmd.ErrOrStderr())
}

// copyOutput is the JSON form of a copy result.
type copyOutput struct {
	From         string       `json:"from"`
	To           string       `json:"to"`
	Status       model.Status `json:"status"`
	Bytes        int64        `json:"bytes"`
	Total        int64        `json:"total"`
	Attempts     int          `json:"attempts"`
	DurationMS   int64        `json:"duration_ms"`
	Error        string       `json:"error,omitempty"`
	CleanupError string       `json:"cleanup_error,omitempty"`
}

func newCopyOutput(res model.Result) copyOutput {
	out := copyOutput{
		From:       res.Spec.From,
		To:         res.Spec.To,
		Status:     res.Status,
		Bytes:      res.BytesCopied,
		Total:      res.TotalBytes,
		Attempts:   res.Attempts,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	if res.CleanupErr != nil {
		out.CleanupError = res.CleanupErr.Error()
	}
	return out
}

func printResult(w io.Writer, jsonOutput bool, res model.Result) error {
	if jsonOutput {
		return outputJSON(w, newCopyOutput(res))
	}

	switch res.Status {
	case model.StatusCompleted:
		fmt.Fprintf(w, "%s %s -> %s (%d bytes)\n", color.Success("Copied"),
			color.Path(res.Spec.From), color.Path(res.Spec.To), res.BytesCopied)
	case model.StatusAbandoned:
		fmt.Fprintf(w, "%s %s: destination exists\n", color.Warning("Skipped"), color.Path(res.Spec.To))
	case model.StatusCanceled:
		fmt.Fprintf(w, "%s after %d bytes\n", color.Warning("Canceled"), res.BytesCopied)
		if res.CleanupErr != nil {
			fmt.Fprintf(w, "Partial file left at %s: %v\n", color.Path(res.Spec.To), res.CleanupErr)
		}
	}
	return nil
}

func exitFor(res model.Result) error {
	switch res.Status {
	case model.StatusCanceled:
		return &exitError{code: exitCanceled}
	case model.StatusFailed:
		return &exitError{code: exitFailed, err: res.Err}
	}
	return nil
}
