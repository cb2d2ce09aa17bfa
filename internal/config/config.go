package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/mitheta/moneyclub/pkg/columns"
)

// PlaceholderAPIKey is the value shipped in example configs; it counts as no key
const PlaceholderAPIKey = "YOUR_API_KEY_HERE"

// MemberColumnsConfig holds the column letters of the member sheet
type MemberColumnsConfig struct {
	Designation    string `yaml:"designation,omitempty" validate:"omitempty,column"`
	RollNumber     string `yaml:"rollNumber" validate:"required,column"`
	FirstName      string `yaml:"firstName" validate:"required,column"`
	LastName       string `yaml:"lastName" validate:"required,column"`
	TotalDonations string `yaml:"totalDonations" validate:"required,column"`
	Decade         string `yaml:"decade,omitempty" validate:"omitempty,column"`
}

// YearDonorConfig locates per-year donation columns: BaseYear is at BaseColumn
// and every following year sits Step columns further right
type YearDonorConfig struct {
	BaseYear   int `yaml:"baseYear" validate:"required,min=1900"`
	BaseColumn int `yaml:"baseColumn" validate:"required,min=1"`
	Step       int `yaml:"step" validate:"required,min=1"`
}

// Layout returns the column layout described by c
func (c YearDonorConfig) Layout() columns.YearLayout {
	return columns.YearLayout{BaseYear: c.BaseYear, BaseColumn: c.BaseColumn, Step: c.Step}
}

// MembersConfig describes the member sheet
type MembersConfig struct {
	SpreadsheetID        string              `yaml:"spreadsheetID" validate:"required"`
	SheetName            string              `yaml:"sheetName" validate:"required"`
	Columns              MemberColumnsConfig `yaml:"columns"`
	YearDonor            YearDonorConfig     `yaml:"yearDonor"`
	DeceasedMarker       string              `yaml:"deceasedMarker,omitempty"`
	DeceasedDesignations []string            `yaml:"deceasedDesignations,omitempty"`
	EligibleDesignations []string            `yaml:"eligibleDesignations,omitempty"`
	RollPrefix           string              `yaml:"rollPrefix,omitempty"`
}

// FundConfig points at the total and goal cells of one fund on the summary sheet
type FundConfig struct {
	Key   string `yaml:"key" validate:"required"`
	Name  string `yaml:"name" validate:"required"`
	Total string `yaml:"total" validate:"required,cellref"`
	Goal  string `yaml:"goal" validate:"required,cellref"`
}

// DecadesConfig points at the per-decade aggregate ranges on the summary sheet
type DecadesConfig struct {
	Labels   string   `yaml:"labels" validate:"required,cellref"`
	Totals   string   `yaml:"totals" validate:"required,cellref"`
	Donors   string   `yaml:"donors" validate:"required,cellref"`
	Excluded []string `yaml:"excluded,omitempty"`
}

// SummaryConfig describes the summary sheet
type SummaryConfig struct {
	SpreadsheetID string         `yaml:"spreadsheetID,omitempty"` // Defaults to the member spreadsheet
	SheetName     string         `yaml:"sheetName" validate:"required"`
	AsOfDate      string         `yaml:"asOfDate,omitempty" validate:"omitempty,cellref"`
	Funds         []FundConfig   `yaml:"funds,omitempty" validate:"dive"`
	Decades       *DecadesConfig `yaml:"decades,omitempty"`
}

// MonthlyConfig describes the recurring donor ranges
type MonthlyConfig struct {
	SpreadsheetID string `yaml:"spreadsheetID,omitempty"` // Defaults to the member spreadsheet
	SheetName     string `yaml:"sheetName" validate:"required"`
	Names         string `yaml:"names" validate:"required,cellref"`
	Streaks       string `yaml:"streaks" validate:"required,cellref"`
	Funds         string `yaml:"funds" validate:"required,cellref"`
}

// ScholarshipConfig points at one scholarship's purpose cell and recipient columns
type ScholarshipConfig struct {
	Key     string `yaml:"key" validate:"required"`
	Name    string `yaml:"name" validate:"required"`
	Purpose string `yaml:"purpose" validate:"required,cellref"`
	Names   string `yaml:"names" validate:"required,cellref"`
	Years   string `yaml:"years,omitempty" validate:"omitempty,cellref"`
}

// ScholarshipsConfig describes the scholarship spreadsheet
type ScholarshipsConfig struct {
	SpreadsheetID string              `yaml:"spreadsheetID" validate:"required"`
	SheetName     string              `yaml:"sheetName" validate:"required"`
	Entries       []ScholarshipConfig `yaml:"entries" validate:"required,min=1,dive"`
}

// CacheConfig controls local persistence of fetched datasets
type CacheConfig struct {
	Backend  string        `yaml:"backend" validate:"oneof=file memory"`
	Dir      string        `yaml:"dir"`
	TTL      time.Duration `yaml:"ttl" validate:"gt=0"`
	Version  int           `yaml:"version" validate:"min=1"`
	MemoryMB int           `yaml:"memoryMB" validate:"min=0"`
}

// SearchConfig tunes fuzzy matching
type SearchConfig struct {
	Threshold           float64             `yaml:"threshold" validate:"gt=0,lte=1"`
	Distance            int                 `yaml:"distance" validate:"min=0"`
	IdentifierThreshold float64             `yaml:"identifierThreshold" validate:"gt=0,lte=1"`
	IdentifierDistance  int                 `yaml:"identifierDistance" validate:"min=0"`
	MaxResults          int                 `yaml:"maxResults" validate:"min=1"`
	Weights             SearchWeightsConfig `yaml:"weights"`
}

// SearchWeightsConfig holds the relative field weights of free-text search.
// All zero means the defaults; weights are normalized when the index is built.
type SearchWeightsConfig struct {
	FirstName float64 `yaml:"firstName" validate:"min=0"`
	LastName  float64 `yaml:"lastName" validate:"min=0"`
	FullName  float64 `yaml:"fullName" validate:"min=0"`
	RollShort float64 `yaml:"rollShort" validate:"min=0"`
	RollFull  float64 `yaml:"rollFull" validate:"min=0"`
}

// ServerConfig configures the JSON API
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Config represents the application configuration
type Config struct {
	APIKey       string              `yaml:"apiKey"`
	Members      MembersConfig       `yaml:"members"`
	Summary      *SummaryConfig      `yaml:"summary,omitempty"`
	Monthly      *MonthlyConfig      `yaml:"monthly,omitempty"`
	Scholarships *ScholarshipsConfig `yaml:"scholarships,omitempty"`
	Cache        CacheConfig         `yaml:"cache"`
	Search       SearchConfig        `yaml:"search"`
	Server       ServerConfig        `yaml:"server"`
}

// HasAPIKey reports whether a usable API key is configured
func (c *Config) HasAPIKey() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != PlaceholderAPIKey
}

// envOverrides are read from MONEYCLUB_* environment variables
type envOverrides struct {
	APIKey     string `envconfig:"API_KEY"`
	CacheDir   string `envconfig:"CACHE_DIR"`
	ServerAddr string `envconfig:"SERVER_ADDR"`
}

// maxColumnLetters bounds a column address to the sheet's width (ZZZ)
const maxColumnLetters = 3

var (
	validate *validator.Validate

	cellRefPattern = regexp.MustCompile(`^[A-Z]{1,3}[0-9]+(:[A-Z]{1,3}[0-9]*)?$`)
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("column", func(fl validator.FieldLevel) bool {
		letters := fl.Field().String()
		if len(letters) > maxColumnLetters {
			return false
		}
		_, err := columns.IndexFor(letters)
		return err == nil
	})
	validate.RegisterValidation("cellref", func(fl validator.FieldLevel) bool {
		return cellRefPattern.MatchString(fl.Field().String())
	})
}

// Load loads and validates the configuration from moneyclub_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment
// For example, env="test" will look for "moneyclub_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overlays MONEYCLUB_* environment variables onto the file configuration
func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("moneyclub", &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if env.APIKey != "" {
		cfg.APIKey = env.APIKey
	}
	if env.CacheDir != "" {
		cfg.Cache.Dir = env.CacheDir
	}
	if env.ServerAddr != "" {
		cfg.Server.Addr = env.ServerAddr
	}
	return nil
}

// ApplyDefaults fills unset fields with the chapter's conventions
func (c *Config) ApplyDefaults() {
	m := &c.Members
	if m.DeceasedMarker == "" {
		m.DeceasedMarker = "**"
	}
	if len(m.DeceasedDesignations) == 0 {
		m.DeceasedDesignations = []string{"deceased", "d"}
	}
	if m.RollPrefix == "" {
		m.RollPrefix = "214-"
	}

	if c.Summary != nil {
		if c.Summary.SpreadsheetID == "" {
			c.Summary.SpreadsheetID = m.SpreadsheetID
		}
		if c.Summary.Decades != nil && c.Summary.Decades.Excluded == nil {
			c.Summary.Decades.Excluded = []string{"Friends of SigEp"}
		}
	}
	if c.Monthly != nil && c.Monthly.SpreadsheetID == "" {
		c.Monthly.SpreadsheetID = m.SpreadsheetID
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = ".cache"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 7 * 24 * time.Hour
	}
	if c.Cache.Version == 0 {
		c.Cache.Version = 1
	}
	if c.Cache.MemoryMB == 0 {
		c.Cache.MemoryMB = 32
	}

	if c.Search.Threshold == 0 {
		c.Search.Threshold = 0.4
	}
	if c.Search.Distance == 0 {
		c.Search.Distance = 100
	}
	if c.Search.IdentifierThreshold == 0 {
		c.Search.IdentifierThreshold = 0.2
	}
	if c.Search.IdentifierDistance == 0 {
		c.Search.IdentifierDistance = 50
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 10
	}
	if c.Search.Weights == (SearchWeightsConfig{}) {
		c.Search.Weights = SearchWeightsConfig{FirstName: 0.4, LastName: 0.4, FullName: 0.3, RollShort: 0.3, RollFull: 0.2}
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// findConfigFile searches for the config file in current directory and home directory
// If env is provided, it adds it as an extension (e.g., "moneyclub_config.test.yaml")
func findConfigFile(env string) (string, error) {
	configFileName := "moneyclub_config.yaml"
	if env != "" {
		configFileName = "moneyclub_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
