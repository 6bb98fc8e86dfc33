package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project is the per-migration configuration file. It carries the
// destination structure ids and run tuning; credentials stay in the
// environment.
type Project struct {
	SourceDomain        string `yaml:"source_domain"`
	ContentStructureID  int64  `yaml:"content_structure_id"`
	CollapseStructureID int64  `yaml:"collapse_structure_id"`
	TabStructureID      int64  `yaml:"tab_structure_id"`
	LedgerPath          string `yaml:"ledger_path"`
	Concurrency         int    `yaml:"concurrency"`
}

// LoadProject reads and validates a project file.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var project Project
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("parse project file %s: %w", path, err)
	}
	if err := project.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if project.LedgerPath == "" {
		project.LedgerPath = "migrador.db"
	}
	return &project, nil
}

func (p *Project) validate() error {
	var missing []string
	if p.SourceDomain == "" {
		missing = append(missing, "source_domain")
	}
	if p.ContentStructureID == 0 {
		missing = append(missing, "content_structure_id")
	}
	if p.CollapseStructureID == 0 {
		missing = append(missing, "collapse_structure_id")
	}
	if p.TabStructureID == 0 {
		missing = append(missing, "tab_structure_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, joinList(missing))
	}
	return nil
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}
