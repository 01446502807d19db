package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func initCommand() *cobra.Command {
	store := &storeFlags{}
	network := &networkFlags{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a network and save its first checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := store.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			info, err := client.InitNetwork(cmd.Context(), network.spec())
			if err != nil {
				return err
			}
			fmt.Printf("checkpoint=%s store=%s params=%s\n", info.ID, store.Kind, humanize.Comma(int64(info.ParamCount)))
			return nil
		},
	}
	store.register(cmd)
	network.register(cmd)
	return cmd
}

func checkpointsCommand() *cobra.Command {
	store := &storeFlags{}
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "List stored checkpoints, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := store.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			checkpoints, err := client.Checkpoints(cmd.Context())
			if err != nil {
				return err
			}
			if len(checkpoints) == 0 {
				fmt.Println("no checkpoints")
				return nil
			}
			for _, c := range checkpoints {
				fmt.Printf("%s  created=%s  vocab=%d arity=%d/%d/%d params=%s\n",
					c.ID, c.CreatedAtUTC,
					c.Spec.VocabularySize, c.Spec.NumInstructions, c.Spec.NumObjects, c.Spec.NumActions,
					humanize.Comma(int64(c.ParamCount)))
			}
			return nil
		},
	}
	store.register(cmd)
	return cmd
}

func describeCommand() *cobra.Command {
	store := &storeFlags{}
	network := &networkFlags{}
	var checkpointID string
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Break the parameter budget down by component",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := store.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			summary, err := client.Describe(cmd.Context(), checkpointID, network.spec())
			if err != nil {
				return err
			}
			for _, component := range summary.Components {
				fmt.Printf("%-20s %s\n", component.Name, humanize.Comma(int64(component.Params)))
			}
			fmt.Printf("%-20s %s\n", "total", humanize.Comma(int64(summary.ParamCount)))
			return nil
		},
	}
	store.register(cmd)
	network.register(cmd)
	cmd.Flags().StringVar(&checkpointID, "checkpoint-id", "", "describe a stored checkpoint instead of a fresh network")
	return cmd
}
