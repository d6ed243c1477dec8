package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/atelier/internal/auth"
	"github.com/good-yellow-bee/atelier/internal/files"
	"github.com/good-yellow-bee/atelier/internal/logging"
	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/projects"
)

var (
	clientDesigner string
	clientName     string
	clientEmail    string
	clientSite     string
	clientContact  string
	storageRoot    string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Client account commands",
}

var clientCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a client and their project",
	Long: `Create a client account together with its project for an existing
designer. The client's access code is printed once; pass it on to the
client for login.

Example:
  atelierctl client create --designer dana@example.com --name "Carl" \
    --email carl@example.com --site-type Retail`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath, false)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		designer, err := store.Users().GetByEmail(ctx, clientDesigner)
		if err != nil {
			return fmt.Errorf("find designer: %w", err)
		}
		if designer == nil || !designer.IsDesigner() {
			return fmt.Errorf("designer %q not found", clientDesigner)
		}

		fm, err := files.NewManager(storageRoot)
		if err != nil {
			return fmt.Errorf("open upload root: %w", err)
		}

		svc := projects.NewService(store, auth.New(store.Users(), auth.Options{}), fm, logging.Nop())
		created, err := svc.CreateClientProject(ctx, designer.ID, projects.NewClientInput{
			Name:             clientName,
			Email:            clientEmail,
			SiteType:         models.SiteType(clientSite),
			PreferredContact: models.ContactMethod(clientContact),
		})
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}

		out := cmd.OutOrStdout()
		if output == "json" {
			return printJSON(out, created)
		}
		fmt.Fprintf(out, "Client created:\n")
		fmt.Fprintf(out, "  Client ID:   %d\n", created.Client.ID)
		fmt.Fprintf(out, "  Email:       %s\n", created.Client.Email)
		fmt.Fprintf(out, "  Project ID:  %d\n", created.Project.ID)
		fmt.Fprintf(out, "  Access code: %s\n", created.Code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientCreateCmd)

	f := clientCreateCmd.Flags()
	f.StringVar(&clientDesigner, "designer", "", "email of the owning designer (required)")
	f.StringVar(&clientName, "name", "", "client name (required)")
	f.StringVar(&clientEmail, "email", "", "client email (required)")
	f.StringVar(&clientSite, "site-type", string(models.SiteResidential), "site type")
	f.StringVar(&clientContact, "contact", string(models.ContactAny), "preferred contact: Email, Phone, WhatsApp or Any")
	f.StringVar(&storageRoot, "storage", "data/uploads", "upload root directory")
	clientCreateCmd.MarkFlagRequired("designer")
	clientCreateCmd.MarkFlagRequired("name")
	clientCreateCmd.MarkFlagRequired("email")
}
