// schemacheck inspects a schema descriptor from the command line: validate
// it, report graph connectivity, and compute join paths without running the
// engine.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/klinika-ai/klinika-engine/pkg/graph"
	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/planner"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
)

var (
	descriptorPath string
	hubPenalty     float64
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "schemacheck",
		Short: "Inspect a schema descriptor and its relationship graph",
		// Subcommands handle their own errors; silence cobra's duplicate.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&descriptorPath, "descriptor", "d", "schema.yaml", "path to the schema descriptor")
	root.PersistentFlags().Float64Var(&hubPenalty, "hub-penalty", 1.0, "hub avoidance weight for path finding")

	root.AddCommand(lintCmd(), pathCmd(), contextCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func load() (*schema.Model, *graph.Graph, error) {
	model, err := schema.LoadFile(descriptorPath)
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.Build(model, graph.WithHubPenalty(hubPenalty))
	if err != nil {
		return nil, nil, err
	}
	return model, g, nil
}

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Validate the descriptor and report graph connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, g, err := load()
			if err != nil {
				return err
			}

			fmt.Printf("Database:      %s\n", model.Database())
			fmt.Printf("Tables:        %d\n", len(model.Tables()))
			fmt.Printf("Relationships: %d\n", len(model.Relationships()))

			components, islands := g.Components()
			fmt.Printf("Components:    %d\n", len(components))
			for i, c := range components {
				fmt.Printf("  %d. %d table(s): %v\n", i+1, c.Size, c.Tables)
			}
			if len(islands) > 0 {
				fmt.Printf("Islands:       %v\n", islands)
			}

			if hubs := g.HubTables(3); len(hubs) > 0 {
				fmt.Printf("Hub tables:    %v\n", hubs)
			}
			return nil
		},
	}
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <table>...",
		Short: "Compute the join path connecting two or more tables",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, err := load()
			if err != nil {
				return err
			}

			path, connected := g.MultiTablePath(args)
			if !connected {
				return fmt.Errorf("no join path connects %v", args)
			}
			if len(path) == 0 {
				fmt.Println("(tables are identical, no joins needed)")
				return nil
			}
			fmt.Println(path.Render())
			return nil
		},
	}
}

func contextCmd() *cobra.Command {
	var maxChars int
	cmd := &cobra.Command{
		Use:   "context <table>...",
		Short: "Render the schema context for a set of tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, g, err := load()
			if err != nil {
				return err
			}

			var tablePtrs []*models.Table
			for _, name := range args {
				t := model.Table(name)
				if t == nil {
					return fmt.Errorf("unknown table %q", name)
				}
				tablePtrs = append(tablePtrs, t)
			}

			path, _ := g.MultiTablePath(args)
			builder := planner.NewContextBuilder(g, planner.DefaultMaxColumnsPerTable)
			fmt.Println(builder.Build(tablePtrs, path, maxChars))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxChars, "max-chars", planner.DefaultMaxContextChars, "character budget for the rendered context")
	return cmd
}
