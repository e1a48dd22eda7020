package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env files if present. Values already set in the environment win.
	for _, envPath := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Note: %s couldn't be loaded: %v\n", envPath, err)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Site.Title == "" {
		config.Site.Title = "Documentation"
	}
	if config.Prepare.Source == "" {
		config.Prepare.Source = "README.md"
	}
	if config.Prepare.Dest == "" {
		config.Prepare.Dest = "docs/index.md"
	}
	if len(config.Site.Pages) == 0 {
		config.Site.Pages = []Page{{Label: config.Site.Title, Path: config.Prepare.Dest}}
	}
	if config.Output.Directory == "" {
		config.Output.Directory = "./site"
		config.Output.Clean = true
	}
	if config.LinkCheck.Timeout == "" {
		config.LinkCheck.Timeout = "10s"
	}
	if config.LinkCheck.MaxConcurrent <= 0 {
		config.LinkCheck.MaxConcurrent = 10
	}
	if config.Publish != nil {
		if config.Publish.Branch == "" {
			config.Publish.Branch = "gh-pages"
		}
		if config.Publish.AuthorName == "" {
			config.Publish.AuthorName = "docpub"
		}
		if config.Publish.AuthorEmail == "" {
			config.Publish.AuthorEmail = "docpub@localhost"
		}
	}
	if config.Events != nil && config.Events.Enabled {
		if config.Events.Subject == "" {
			config.Events.Subject = "docpub.builds"
		}
	}
	if config.Watch != nil {
		if config.Watch.Addr == "" {
			config.Watch.Addr = "127.0.0.1:8080"
		}
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{
			Title:       "Style Guide",
			Author:      "The Style Guide Authors",
			Description: "Conventions for writing code in this ecosystem",
			BaseURL:     "https://example.github.io/styleguide/",
			Icon:        "assets/icon.png",
			Pages: []Page{
				{Label: "Guide", Path: "docs/index.md"},
			},
		},
		Prepare: PrepareConfig{
			Source:  "README.md",
			Dest:    "docs/index.md",
			EditURL: "https://github.com/example/styleguide/edit/main/README.md",
		},
		LinkCheck: LinkCheckConfig{
			Enabled: true,
			Skip: []string{
				"https://example.invalid/",
			},
		},
		Output: OutputConfig{
			Directory: "./site",
			Clean:     true,
		},
		Publish: &PublishConfig{
			Repo:   "https://github.com/example/styleguide.git",
			Branch: "gh-pages",
			Auth: &AuthConfig{
				Type:  AuthTypeToken,
				Token: "${GITHUB_TOKEN}",
			},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
