package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"hieragent/internal/agent"
	"hieragent/internal/tensor"
)

func benchCommand() *cobra.Command {
	store := &storeFlags{}
	network := &networkFlags{}
	var (
		batch        int
		timesteps    int
		iterations   int
		checkpointID string
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure forward-pass throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			var net *agent.Network
			var err error
			if checkpointID != "" {
				client, clientErr := store.client()
				if clientErr != nil {
					return clientErr
				}
				net, err = client.Restore(ctx, checkpointID)
				closeErr := client.Close()
				if err != nil {
					return err
				}
				if closeErr != nil {
					return closeErr
				}
			} else {
				net, err = agent.New(agent.Config{
					VocabularySize:  network.Vocabulary,
					NumInstructions: network.Instructions,
					NumObjects:      network.Objects,
					NumActions:      network.Actions,
					Seed:            network.Seed,
				})
				if err != nil {
					return err
				}
			}

			rng := rand.New(rand.NewSource(network.Seed + 1))
			frames := tensor.New(batch, timesteps, agent.FrameChannels, agent.FrameSize, agent.FrameSize)
			data := frames.Data()
			for i := range data {
				data[i] = rng.Float64()
			}
			instructions := make([][]int, batch)
			for b := range instructions {
				tokens := make([]int, 3)
				for i := range tokens {
					tokens[i] = rng.Intn(net.Config.VocabularySize)
				}
				instructions[b] = tokens
			}

			writer := uilive.New()
			writer.Start()
			defer writer.Stop()

			start := time.Now()
			done := 0
			for ; done < iterations; done++ {
				select {
				case <-ctx.Done():
					fmt.Fprintf(writer, "interrupted after %d/%d passes\n", done, iterations)
					writer.Flush()
					return nil
				default:
				}
				if _, err := net.Forward(frames, instructions); err != nil {
					return err
				}
				elapsed := time.Since(start)
				fmt.Fprintf(writer, "pass %d/%d elapsed=%s rate=%.2f passes/s\n",
					done+1, iterations, elapsed.Round(time.Millisecond), float64(done+1)/elapsed.Seconds())
				writer.Flush()
			}

			elapsed := time.Since(start)
			sequences := float64(done * batch)
			fmt.Fprintf(writer, "done passes=%d batch=%d elapsed=%s throughput=%.2f sequences/s\n",
				done, batch, elapsed.Round(time.Millisecond), sequences/elapsed.Seconds())
			writer.Flush()
			return nil
		},
	}
	store.register(cmd)
	network.register(cmd)
	cmd.Flags().IntVar(&batch, "batch", 4, "batch size")
	cmd.Flags().IntVar(&timesteps, "timesteps", 4, "frames per sequence")
	cmd.Flags().IntVar(&iterations, "iterations", 10, "forward passes to run")
	cmd.Flags().StringVar(&checkpointID, "checkpoint-id", "", "restore weights from a stored checkpoint")
	return cmd
}
