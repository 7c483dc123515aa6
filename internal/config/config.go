package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"asanaid/internal/domain"
)

// DefaultPath is where the tool looks for its configuration.
const DefaultPath = ".asanaid.yml"

// Project maps a project code to the Asana project it labels.
type Project struct {
	Code    string `yaml:"code"`
	AsanaID string `yaml:"asana_id"`
}

// Config is the tool configuration loaded from the YAML config file.
type Config struct {
	AsanaToken string    `yaml:"asana_token"`
	Projects   []Project `yaml:"projects"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s (run 'asanaid init' to create one)", path)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for completeness.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AsanaToken) == "" {
		return fmt.Errorf("asana_token is required")
	}
	if len(c.Projects) == 0 {
		return fmt.Errorf("at least one project is required")
	}
	seen := make(map[string]bool)
	for i, p := range c.Projects {
		if err := domain.ValidateCode(p.Code); err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
		if seen[p.Code] {
			return fmt.Errorf("projects[%d]: duplicate code %s", i, p.Code)
		}
		seen[p.Code] = true
		if strings.TrimSpace(p.AsanaID) == "" {
			return fmt.Errorf("projects[%d]: asana_id is required", i)
		}
	}
	return nil
}

// FindProject looks up a configured project by code.
func (c *Config) FindProject(code string) (Project, bool) {
	for _, p := range c.Projects {
		if p.Code == code {
			return p, true
		}
	}
	return Project{}, false
}

// WriteTemplate writes a placeholder configuration for manual editing.
func WriteTemplate(path string) error {
	tpl := Config{
		AsanaToken: "YOUR_ASANA_PERSONAL_ACCESS_TOKEN",
		Projects: []Project{
			{Code: "PROJ", AsanaID: "1234567890123456"},
			{Code: "TASK", AsanaID: "9876543210987654"},
		},
	}
	data, err := yaml.Marshal(&tpl)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// WriteWithComments writes a configuration listing every fetched remote
// project, each annotated with its name and URL and a CODE placeholder
// for the user to fill in.
func WriteWithComments(path, token string, projects []domain.Project) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "asana_token: %q\n", token)
	sb.WriteString("projects:\n")
	for _, p := range projects {
		fmt.Fprintf(&sb, "  # %s\n", p.Name)
		fmt.Fprintf(&sb, "  # https://app.asana.com/0/%s\n", p.GID)
		sb.WriteString("  - code: CODE # replace with a 2-5 letter uppercase code\n")
		fmt.Fprintf(&sb, "    asana_id: '%s'\n", p.GID)
	}
	return os.WriteFile(path, []byte(sb.String()), 0o600)
}
