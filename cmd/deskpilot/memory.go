package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ent0n29/deskpilot/internal/memory"
)

func newMemoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear the conversation memory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the remembered app and recent exchanges as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				mem, err := openMemory(cmd, c)
				if err != nil {
					return err
				}
				defer mem.Close()
				raw, err := json.MarshalIndent(mem.Snapshot(), "", "    ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the last app and the conversation history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				mem, err := openMemory(cmd, c)
				if err != nil {
					return err
				}
				defer mem.Close()
				if err := mem.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Memory cleared.")
				return nil
			},
		},
	)
	return cmd
}

func openMemory(cmd *cobra.Command, c *cli) (*memory.Memory, error) {
	store, err := memory.NewStore(cmd.Context(), memory.Options{
		Backend:     c.cfg.MemoryBackend,
		Path:        c.cfg.MemoryPath,
		DatabaseURL: c.cfg.DatabaseURL,
		Profile:     c.cfg.MemoryProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}
	mem, err := memory.Open(cmd.Context(), store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return mem, nil
}
