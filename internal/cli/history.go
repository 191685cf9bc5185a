package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvs-project/fcp/internal/journal"
	"github.com/jvs-project/fcp/pkg/color"
	"github.com/jvs-project/fcp/pkg/model"
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var (
		limit  int
		verify bool
		path   string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished copies from the journal",
		Long: `Show finished copies recorded in the journal file.

The journal is enabled by setting "journal" in the config file or by
passing --journal to copy. Each entry is chained to the previous one by
hash; --verify checks the chain.

Examples:
  fcp history
  fcp history -n 5
  fcp history --verify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = g.cfg.Journal
			}
			if path == "" {
				return errors.New("no journal configured (set it with " + color.Code("fcp config set journal <path>") + ")")
			}
			j := journal.New(path)

			if verify {
				n, err := j.Verify()
				if err != nil {
					return err
				}
				if g.jsonOutput {
					return outputJSON(cmd.OutOrStdout(), map[string]any{"path": path, "entries": n, "ok": true})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d entries verified\n", color.Success("ok:"), n)
				return nil
			}

			entries, err := j.Entries(limit)
			if err != nil {
				return err
			}
			if g.jsonOutput {
				if entries == nil {
					entries = []journal.Entry{}
				}
				return outputJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No copies recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSTATUS\tBYTES\tFROM\tTO")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					e.Timestamp.Local().Format(time.DateTime), statusText(e.Status), e.Bytes, e.From, e.To)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many entries (0 for all)")
	cmd.Flags().BoolVar(&verify, "verify", false, "check the hash chain instead of listing")
	cmd.Flags().StringVar(&path, "journal", "", "journal file (default from config)")
	return cmd
}

func statusText(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return color.Success(string(s))
	case model.StatusFailed:
		return color.Error(string(s))
	}
	return color.Warning(string(s))
}
