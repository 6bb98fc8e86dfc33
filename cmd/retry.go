package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/config"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/folders"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/ledger"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/liferay"
)

const maxFolderRetries = 3

func newRetryFoldersCmd() *cobra.Command {
	var (
		projectPath string
		envPath     string
	)

	cmd := &cobra.Command{
		Use:   "retry-folders",
		Short: "Retry folder creations that failed in earlier runs",
		Long: `Retry-folders sweeps the failure ledger and retries each folder
creation up to 3 times. Entries that succeed are removed from the
ledger; the rest keep their retry count for the next sweep.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetryFolders(cmd, projectPath, envPath)
		},
	}
	cmd.Flags().StringVarP(&projectPath, "project", "p", "migrador.yaml", "Project configuration file")
	cmd.Flags().StringVar(&envPath, "env", ".env", "Path to a .env file with credentials")
	return cmd
}

func runRetryFolders(cmd *cobra.Command, projectPath, envPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(envPath)
	if err != nil {
		return err
	}
	project, err := config.LoadProject(projectPath)
	if err != nil {
		return err
	}
	if cfg.Password == "" {
		password, err := promptPassword(fmt.Sprintf("Password for %s: ", cfg.Username))
		if err != nil {
			return err
		}
		cfg.Password = password
	}

	logf := func(string, ...any) {}
	if flagVerbose {
		logf = func(format string, args ...any) {
			fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
		}
	}
	remote, err := liferay.NewClient(liferay.ClientConfig{
		BaseURL:  cfg.BaseURL,
		Username: cfg.Username,
		Password: cfg.Password,
		SiteID:   cfg.SiteID,
		Logf:     logf,
	})
	if err != nil {
		return err
	}

	db, err := ledger.Open(project.LedgerPath)
	if err != nil {
		return err
	}
	defer db.Close()

	resolver := folders.NewResolver(remote, db)
	resolved, err := resolver.RetryFailed(cmd.Context(), db, maxFolderRetries)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "resolved %d failed folder(s)\n", resolved)
	return nil
}
