package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hieragent/pkg/hieragent"
)

func selftestCommand() *cobra.Command {
	store := &storeFlags{}
	req := hieragent.SelftestRequest{}
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the staged forward-pass check on synthetic inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := store.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			report, err := client.Selftest(req)
			if err != nil {
				return err
			}
			for _, stage := range report.Stages {
				fmt.Printf("%-22s %s\n", stage.Name, formatShape(stage.Shape))
			}
			fmt.Printf("batch=%d timesteps=%d params=%s ok\n",
				report.Batch, report.Timesteps, humanize.Comma(int64(report.ParamCount)))
			return nil
		},
	}
	store.register(cmd)
	cmd.Flags().IntVar(&req.Batch, "batch", 10, "batch size")
	cmd.Flags().IntVar(&req.Timesteps, "timesteps", 4, "frames per sequence")
	cmd.Flags().IntVar(&req.VocabularySize, "vocab", 10, "instruction vocabulary size")
	cmd.Flags().IntVar(&req.NumInstructions, "instructions", 4, "number of candidate instructions")
	cmd.Flags().IntVar(&req.NumObjects, "objects", 6, "number of candidate objects")
	cmd.Flags().IntVar(&req.NumActions, "actions", 8, "number of primitive actions")
	cmd.Flags().Uint64Var(&req.Seed, "seed", 0, "weight and input seed")
	return cmd
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
