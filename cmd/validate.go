package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/config"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/tasks"
)

func newValidateCmd() *cobra.Command {
	var (
		tasksPath   string
		projectPath string
		envPath     string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the planning CSV and configuration without migrating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, tasksPath, projectPath, envPath)
		},
	}
	cmd.Flags().StringVarP(&tasksPath, "tasks", "t", "tarefas.csv", "Planning CSV with the pages to migrate")
	cmd.Flags().StringVarP(&projectPath, "project", "p", "migrador.yaml", "Project configuration file")
	cmd.Flags().StringVar(&envPath, "env", ".env", "Path to a .env file with credentials")
	return cmd
}

func runValidate(cmd *cobra.Command, tasksPath, projectPath, envPath string) error {
	out := cmd.OutOrStdout()

	if _, err := config.Load(envPath); err != nil {
		return err
	}
	fmt.Fprintln(out, "credentials: ok")

	project, err := config.LoadProject(projectPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "project: ok (source %s)\n", project.SourceDomain)

	list, err := tasks.LoadCSV(tasksPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "tasks: ok (%d pages)\n", len(list))
	return nil
}
