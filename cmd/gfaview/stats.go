package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gfaview/gfaview/graph"
)

func newStatsCmd(cfg *config) *cobra.Command {
	var nodeID uint32

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print graph statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(cfg)
			if err != nil {
				return err
			}
			w := graph.NewQueryWorker(in.graph)
			defer w.Close()

			head := color.New(color.Bold).SprintFunc()
			out := cmd.OutOrStdout()

			gs := w.RequestBlocking(graph.StatsRequest{Kind: graph.StatsGraph})
			fmt.Fprintln(out, head("graph"))
			fmt.Fprintf(out, "  nodes:  %d\n", gs.NodeCount)
			fmt.Fprintf(out, "  edges:  %d\n", gs.EdgeCount)
			fmt.Fprintf(out, "  paths:  %d\n", gs.PathCount)
			fmt.Fprintf(out, "  length: %d bp\n", gs.TotalLen)

			for _, id := range in.graph.PathIDs() {
				ps := w.RequestBlocking(graph.StatsRequest{Kind: graph.StatsPath, Path: id})
				fmt.Fprintf(out, "%s %s\n", head("path"), in.graph.PathName(id))
				fmt.Fprintf(out, "  steps:  %d\n", ps.StepCount)
				fmt.Fprintf(out, "  length: %d bp\n", ps.PathLen)
			}

			if nodeID != 0 {
				ns := w.RequestBlocking(graph.StatsRequest{Kind: graph.StatsNode, Node: graph.NodeID(nodeID)})
				fmt.Fprintf(out, "%s %d\n", head("node"), nodeID)
				fmt.Fprintf(out, "  length:   %d bp\n", ns.NodeLen)
				fmt.Fprintf(out, "  degree:   %d in, %d out\n", ns.DegreeIn, ns.DegreeOut)
				fmt.Fprintf(out, "  coverage: %d steps\n", ns.Coverage)
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&nodeID, "node", 0, "also report on a single node id")
	return cmd
}
