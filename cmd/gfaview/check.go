package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gfaview/gfaview/internal/gpu"
)

func newCheckCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the input files and the bundled shaders",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(cfg)
			if err != nil {
				return err
			}
			if err := gpu.ValidateShaders(); err != nil {
				return err
			}

			ok := color.New(color.FgGreen).SprintFunc()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s layout: %d nodes\n", ok("ok"), in.positions.NodeCount())
			fmt.Fprintf(out, "%s graph: %d nodes, %d edges, %d paths\n",
				ok("ok"), in.graph.NodeCount(), in.graph.EdgeCount(), in.graph.PathCount())
			for _, coll := range in.annots {
				fmt.Fprintf(out, "%s annotations: %d records from %s\n", ok("ok"), coll.Len(), coll.FileName())
			}
			fmt.Fprintf(out, "%s shaders: %d modules compiled\n", ok("ok"), len(gpu.ShaderNames()))
			return nil
		},
	}
}
