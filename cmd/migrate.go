package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/assets"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/config"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/dedupe"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/folders"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/ledger"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/liferay"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/migrate"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/rewrite"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/source"
	"github.com/clevesson-mendonca-sea/migrador-liferay-sub000/internal/tasks"
)

func newMigrateCmd() *cobra.Command {
	var (
		tasksPath   string
		projectPath string
		envPath     string
		concurrency int
		assocWait   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the pages listed in the planning CSV",
		Long: `Migrate reads the planning CSV and moves each page to Liferay.

Credentials come from LIFERAY_* / MIGRADOR_* environment variables or a
.env file; the structure ids and source domain come from the project
YAML file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, tasksPath, projectPath, envPath, concurrency, assocWait)
		},
	}
	cmd.Flags().StringVarP(&tasksPath, "tasks", "t", "tarefas.csv", "Planning CSV with the pages to migrate")
	cmd.Flags().StringVarP(&projectPath, "project", "p", "migrador.yaml", "Project configuration file")
	cmd.Flags().StringVar(&envPath, "env", ".env", "Path to a .env file with credentials")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent page migrations (overrides the project file)")
	cmd.Flags().DurationVar(&assocWait, "association-wait", 0, "How long to wait for pending page associations at the end")
	cmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runMigrate(cmd *cobra.Command, tasksPath, projectPath, envPath string, concurrency int, assocWait time.Duration) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(envPath)
	if err != nil {
		return err
	}
	project, err := config.LoadProject(projectPath)
	if err != nil {
		return err
	}
	list, err := tasks.LoadCSV(tasksPath)
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

	if !flagYes {
		ok, err := confirmMigration(len(list), cfg.BaseURL)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("migration cancelled")
		}
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
	legacy := source.NewClient(source.ClientConfig{})

	db, err := ledger.Open(project.LedgerPath)
	if err != nil {
		return err
	}
	defer db.Close()

	index, err := dedupe.NewIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	resolver := folders.NewResolver(remote, db)
	assetMigrator := assets.NewMigrator(remote, legacy, db)
	rewriter := rewrite.New(assetMigrator, project.SourceDomain)

	if concurrency == 0 {
		concurrency = project.Concurrency
	}
	migrator := migrate.NewMigrator(remote, legacy, resolver, rewriter, index, db, migrate.Options{
		ContentStructureID:  project.ContentStructureID,
		CollapseStructureID: project.CollapseStructureID,
		TabStructureID:      project.TabStructureID,
		SourceDomain:        project.SourceDomain,
		Concurrency:         concurrency,
		AssociationTimeout:  assocWait,
		Logf:                logf,
	})

	progress := newConsoleProgress(out, "migrating pages")
	stats, err := migrator.Run(cmd.Context(), list, progress)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderSummary(stats, assetMigrator.FailedCount()))
	if snapshot := stats.Snapshot(); snapshot.Failed > 0 {
		return fmt.Errorf("%d of %d pages failed; details in %s", snapshot.Failed, snapshot.Total, project.LedgerPath)
	}
	return nil
}

func confirmMigration(taskCount int, baseURL string) (bool, error) {
	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Migrate %d pages to %s?", taskCount, baseURL)).
			Affirmative("Migrate").
			Negative("Cancel").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password configured and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
