package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/atelier/internal/models"
)

var projectDesigner string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project commands",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a designer's projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath, false)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		designer, err := store.Users().GetByEmail(ctx, projectDesigner)
		if err != nil {
			return fmt.Errorf("find designer: %w", err)
		}
		if designer == nil || !designer.IsDesigner() {
			return fmt.Errorf("designer %q not found", projectDesigner)
		}

		list, err := store.Projects().ListByDesigner(ctx, designer.ID)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		out := cmd.OutOrStdout()
		if output == "json" {
			if list == nil {
				list = []*models.Project{}
			}
			return printJSON(out, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, "No projects found.")
			return nil
		}

		fmt.Fprintf(out, "%-6s  %-24s  %-32s  %-12s  %s\n", "ID", "CLIENT", "EMAIL", "SITE", "CREATED")
		fmt.Fprintln(out, strings.Repeat("-", 96))
		for _, p := range list {
			fmt.Fprintf(out, "%-6d  %-24s  %-32s  %-12s  %s\n",
				p.ID, p.ClientName, p.ClientEmail, p.SiteType, p.CreatedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(out, "\nTotal: %d project(s)\n", len(list))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)

	projectListCmd.Flags().StringVar(&projectDesigner, "designer", "", "designer email (required)")
	projectListCmd.MarkFlagRequired("designer")
}
