package cmd

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/plot"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	plKind    string
	plColumns []string
	plOut     string
	plCommand string
	plTimeout time.Duration
	plDryRun  bool
)

var plotCmd = &cobra.Command{
	Use:   "plot <file> --kind <kind> --columns a[,b] --out chart.png",
	Short: "Render numeric columns through an external plotting command",
	Long: `Build a chart request from numeric columns and hand it to an external renderer.
The renderer is invoked as '<command> <kind> <out>' and receives the request as
JSON on stdin. Kinds: line, bar, scatter (2 columns), pie (1 column), histogram.

Use --dry-run to print the request instead of running the renderer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := plot.ParseKind(plKind)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		req, err := plot.BuildRequest(ds, kind, splitList(plColumns), plOut)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if plDryRun {
			b, err := utils.PrettyJSON(req)
			if err != nil {
				return err
			}
			printf(out, "%s\n", b)
			return nil
		}
		command := plCommand
		if command == "" && cfg != nil {
			command = cfg.PlotCommand
		}
		r := plot.Runner{Command: command, Timeout: plTimeout, Logger: logger}
		if err := r.Run(cmd.Context(), req); err != nil {
			return err
		}
		printf(out, "✓ Wrote %s chart to %s\n", req.Kind, req.Output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringVarP(&plKind, "kind", "k", "line", fmt.Sprintf("chart kind: %v", plot.Kinds))
	plotCmd.Flags().StringSliceVarP(&plColumns, "columns", "c", nil, "numeric columns to plot")
	plotCmd.Flags().StringVar(&plOut, "out", "", "image path handed to the renderer")
	plotCmd.Flags().StringVar(&plCommand, "command", "", "renderer command (overrides plot_command)")
	plotCmd.Flags().DurationVar(&plTimeout, "timeout", 60*time.Second, "renderer timeout")
	plotCmd.Flags().BoolVar(&plDryRun, "dry-run", false, "print the request JSON instead of rendering")
}
