package config

// Config represents the application configuration
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Prepare   PrepareConfig   `yaml:"prepare"`
	LinkCheck LinkCheckConfig `yaml:"link_check"`
	Output    OutputConfig    `yaml:"output"`
	Publish   *PublishConfig  `yaml:"publish,omitempty"`
	Events    *EventsConfig   `yaml:"events,omitempty"`
	History   *HistoryConfig  `yaml:"history,omitempty"`
	Watch     *WatchConfig    `yaml:"watch,omitempty"`
}

// SiteConfig describes the site the generator produces.
type SiteConfig struct {
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author,omitempty"`
	Description string   `yaml:"description,omitempty"`
	BaseURL     string   `yaml:"base_url,omitempty"` // Canonical base URL, e.g. https://example.github.io/guide/
	Icon        string   `yaml:"icon,omitempty"`     // Path to a favicon copied into the site root
	Pages       []Page   `yaml:"pages"`              // Ordered; first page becomes the site index
	Assets      []string `yaml:"assets,omitempty"`   // Additional files copied verbatim into the site root
}

// Page is a single (label, path) entry in the site navigation.
type Page struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"` // Markdown source, relative to the working directory
}

// PrepareConfig describes the source-to-destination document derivation.
type PrepareConfig struct {
	Source  string `yaml:"source"`             // Source document, e.g. README.md
	Dest    string `yaml:"dest"`               // Destination consumed by the generator, e.g. docs/index.md
	EditURL string `yaml:"edit_url,omitempty"` // When set, an edit-source header is prepended to dest
}

// LinkCheckConfig controls outbound link verification of the rendered site.
type LinkCheckConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Skip          []string `yaml:"skip,omitempty"` // URLs (or URL prefixes) excluded from verification
	Timeout       string   `yaml:"timeout,omitempty"`
	MaxConcurrent int      `yaml:"max_concurrent,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// PublishConfig identifies the deployment target repository.
type PublishConfig struct {
	Repo        string      `yaml:"repo"`
	Branch      string      `yaml:"branch,omitempty"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
	AuthorName  string      `yaml:"author_name,omitempty"`
	AuthorEmail string      `yaml:"author_email,omitempty"`
}

// AuthType identifies a git authentication mechanism.
type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeSSH   AuthType = "ssh"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// AuthConfig represents git authentication configuration
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
	KeyPath  string   `yaml:"key_path,omitempty"`
}

// EventsConfig controls the optional NATS build event publisher.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig controls the SQLite build history store.
type HistoryConfig struct {
	Path string `yaml:"path"` // ":memory:" or a file path
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Addr     string `yaml:"addr,omitempty"`     // HTTP listen address for site + metrics
	Interval string `yaml:"interval,omitempty"` // Optional periodic rebuild interval
}
