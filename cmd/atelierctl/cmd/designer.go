package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/atelier/internal/auth"
	"github.com/good-yellow-bee/atelier/internal/models"
)

var (
	designerName  string
	designerEmail string
	bcryptCost    int
)

var designerCmd = &cobra.Command{
	Use:   "designer",
	Short: "Designer account commands",
}

var designerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a designer account",
	Long: `Create a designer account.

The password is prompted for interactively so it stays out of shell
history. It must be 8 to 72 bytes long.

Example:
  atelierctl designer create --name "Dana Lee" --email dana@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword(cmd, "Enter password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if err := auth.ValidatePassword(password); err != nil {
			return fmt.Errorf("invalid password: %w", err)
		}
		confirm, err := promptPassword(cmd, "Confirm password: ")
		if err != nil {
			return fmt.Errorf("read password confirmation: %w", err)
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}

		store, err := openDatabase(dbPath, true)
		if err != nil {
			return err
		}
		defer store.Close()

		authn := auth.New(store.Users(), auth.Options{BcryptCost: bcryptCost})
		id, err := authn.RegisterDesigner(cmd.Context(), designerName, designerEmail, password)
		if err != nil {
			return fmt.Errorf("create designer: %w", err)
		}

		out := cmd.OutOrStdout()
		if output == "json" {
			return printJSON(out, map[string]any{"id": id, "email": models.NormalizeEmail(designerEmail)})
		}
		fmt.Fprintf(out, "Designer created:\n  ID:    %d\n  Email: %s\n", id, models.NormalizeEmail(designerEmail))
		return nil
	},
}

var designerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List designer accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath, false)
		if err != nil {
			return err
		}
		defer store.Close()

		designers, err := store.Users().ListByRole(cmd.Context(), models.RoleDesigner)
		if err != nil {
			return fmt.Errorf("list designers: %w", err)
		}

		out := cmd.OutOrStdout()
		if output == "json" {
			if designers == nil {
				designers = []*models.User{}
			}
			return printJSON(out, designers)
		}
		if len(designers) == 0 {
			fmt.Fprintln(out, "No designers found.")
			return nil
		}

		fmt.Fprintf(out, "%-6s  %-24s  %-32s  %s\n", "ID", "NAME", "EMAIL", "CREATED")
		fmt.Fprintln(out, strings.Repeat("-", 84))
		for _, u := range designers {
			fmt.Fprintf(out, "%-6d  %-24s  %-32s  %s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(out, "\nTotal: %d designer(s)\n", len(designers))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(designerCmd)
	designerCmd.AddCommand(designerCreateCmd)
	designerCmd.AddCommand(designerListCmd)

	designerCreateCmd.Flags().StringVar(&designerName, "name", "", "designer name (required)")
	designerCreateCmd.Flags().StringVar(&designerEmail, "email", "", "designer email (required)")
	designerCreateCmd.Flags().IntVar(&bcryptCost, "bcrypt-cost", 12, "bcrypt cost for the password hash")
	designerCreateCmd.MarkFlagRequired("name")
	designerCreateCmd.MarkFlagRequired("email")
}
