package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hieragent/pkg/hieragent"
)

type storeFlags struct {
	Kind   string
	DBPath string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Kind, "store", "memory", "store backend: memory|sqlite")
	cmd.Flags().StringVar(&f.DBPath, "db-path", "hieragent.db", "sqlite database path")
}

func (f *storeFlags) client() (*hieragent.Client, error) {
	return hieragent.New(hieragent.Options{StoreKind: f.Kind, DBPath: f.DBPath})
}

type networkFlags struct {
	Vocabulary   int
	Instructions int
	Objects      int
	Actions      int
	Seed         uint64
}

func (f *networkFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.Vocabulary, "vocab", 10, "instruction vocabulary size")
	cmd.Flags().IntVar(&f.Instructions, "instructions", 4, "number of candidate instructions")
	cmd.Flags().IntVar(&f.Objects, "objects", 6, "number of candidate objects")
	cmd.Flags().IntVar(&f.Actions, "actions", 8, "number of primitive actions")
	cmd.Flags().Uint64Var(&f.Seed, "seed", 0, "weight initialization seed")
}

func (f *networkFlags) spec() hieragent.NetworkSpec {
	return hieragent.NetworkSpec{
		VocabularySize:  f.Vocabulary,
		NumInstructions: f.Instructions,
		NumObjects:      f.Objects,
		NumActions:      f.Actions,
		Seed:            f.Seed,
	}
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hieragentctl",
		Short:         "Inspect and exercise hierarchical agent networks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		selftestCommand(),
		initCommand(),
		checkpointsCommand(),
		describeCommand(),
		benchCommand(),
	)

	return cmd
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
