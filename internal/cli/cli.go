package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lemonhall/oa-mvp/internal/config"
	internal_http "github.com/lemonhall/oa-mvp/internal/http"
	"github.com/lemonhall/oa-mvp/internal/log"
	"github.com/lemonhall/oa-mvp/internal/seed"
	internal_storage "github.com/lemonhall/oa-mvp/internal/storage"
	"github.com/lemonhall/oa-mvp/pkg/service"
)

func SetupCLI(rootCmd *cobra.Command) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the OA HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			settings := config.Load()
			store := initStore(settings.DBConnStr)
			defer store.Close()
			if err := seed.Run(store, log.GetLogger()); err != nil {
				log.GetLogger().Errorf("Failed to seed defaults: %v", err)
				os.Exit(1)
			}
			if err := internal_http.StartServer(settings.Port, store, settings); err != nil {
				log.GetLogger().Errorf("Server stopped: %v", err)
				os.Exit(1)
			}
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert default positions, users, process types and workflows",
		Run: func(cmd *cobra.Command, args []string) {
			settings := config.Load()
			store := initStore(settings.DBConnStr)
			defer store.Close()
			if err := seed.Run(store, log.GetLogger()); err != nil {
				log.GetLogger().Errorf("Failed to seed defaults: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to seed defaults: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintln(os.Stdout, "Seed data is in place")
		},
	}

	createCmd := &cobra.Command{
		Use:   "create [name] [request-type]",
		Short: "Create a new workflow (CLI)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			settings := config.Load()
			store := initStore(settings.DBConnStr)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			createWorkflow(svc, args[0], args[1])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all workflows (CLI)",
		Run: func(cmd *cobra.Command, args []string) {
			settings := config.Load()
			store := initStore(settings.DBConnStr)
			defer store.Close()
			svc := service.NewWorkflowService(store, log.GetLogger())
			listWorkflows(svc)
		},
	}

	rootCmd.AddCommand(serveCmd, seedCmd, createCmd, listCmd)
}

func createWorkflow(svc *service.WorkflowService, name, requestType string) {
	wf, err := svc.Create(name, requestType, false)
	if err != nil {
		log.GetLogger().Errorf("Failed to create workflow: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to create workflow: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "Created workflow '%s' for request type '%s' with ID %d\n", name, requestType, wf.ID)
}

func listWorkflows(svc *service.WorkflowService) {
	workflows, err := svc.List("")
	if err != nil {
		log.GetLogger().Errorf("Failed to list workflows: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list workflows: %v\n", err)
		os.Exit(1)
	}
	if len(workflows) == 0 {
		fmt.Fprintf(os.Stdout, "No workflows found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Workflows:\n")
	for _, wf := range workflows {
		fmt.Fprintf(os.Stdout, "- ID: %d, Name: %s, Type: %s, Active: %t, Nodes: %d, Created: %s\n",
			wf.ID, wf.Name, wf.RequestType, wf.IsActive, len(wf.Nodes), wf.CreatedAt.Format(time.RFC3339))
	}
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
