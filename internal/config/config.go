// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application. Everything
// is supplied through environment variables; in the hardened deployment the
// values are injected from Vault.
type Config struct {
	GitHub   GitHubConfig
	Jira     JiraConfig
	Database DatabaseConfig
	Gitea    GiteaConfig
	Sync     SyncConfig
	Fields   FieldIDs
}

// GitHubConfig holds source tracker specific configuration.
type GitHubConfig struct {
	Token  string
	APIURL string
	// Orgs is the list of organizations to process, in order.
	Orgs []string
}

// JiraConfig holds target ticketing system specific configuration.
type JiraConfig struct {
	URL   string
	Token string

	// CertPath and KeyPath form an optional mutual-TLS client certificate
	// pair used for the production instance.
	CertPath string
	KeyPath  string

	// ProjectKey and IssueType target the bug importer.
	ProjectKey string
	IssueType  string

	// DemandProjectKey and DemandIssueTypeID target the demand importer.
	DemandProjectKey  string
	DemandIssueTypeID string
}

// DatabaseConfig holds the relational store connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// DSN renders the connection string for the pool.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name)
}

// GiteaConfig holds the metadata repository endpoint.
type GiteaConfig struct {
	// BaseURL is the instance base URL; the cloud-environments content path
	// is appended by the metadata client.
	BaseURL string
}

// SyncConfig holds the batch run parameters shared by all record kinds.
type SyncConfig struct {
	// Teams filters the repository directory query.
	Teams []string

	// Repositories, when non-empty, bypasses the database directory and
	// processes exactly this list.
	Repositories []string

	// MarkerLabel is applied to imported source records.
	MarkerLabel string

	// MetadataPolicy selects the affected-locations resolution policy:
	// "strict" or "fallback".
	MetadataPolicy string

	// Components maps repository names to master component identifiers,
	// parsed from REPO_COMPONENTS ("repo=id,repo=id").
	Components map[string]string
}

// FieldIDs holds the target system's custom field identifiers plus the
// option ids used inside those fields.
type FieldIDs struct {
	MasterComponent   string
	UsersImpact       string
	AffectedLocations string
	TestCategory      string
	BugType           string
	AffectedAreas     string
	EstimatedEffort   string
	Tier              string
	PaysInto          string

	// TestCategoryIDs maps category names (QA, UAT, Security) to option ids.
	TestCategoryIDs map[string]string

	// Option ids for the fixed demand field values.
	EffortValueID   string
	TierValueID     string
	PaysIntoValueID string
}

// Metadata policy values.
const (
	PolicyStrict   = "strict"
	PolicyFallback = "fallback"
)

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.api_url", "GITHUB_API_URL")
	v.BindEnv("github.orgs", "GITHUB_ORGS")
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.token", "JIRA_TOKEN")
	v.BindEnv("jira.cert_path", "JIRA_CERT_PATH")
	v.BindEnv("jira.key_path", "JIRA_KEY_PATH")
	v.BindEnv("jira.project_key", "JIRA_PROJECT_KEY")
	v.BindEnv("jira.issue_type", "JIRA_ISSUE_TYPE")
	v.BindEnv("jira.project_key_demand", "JIRA_PROJECT_KEY_DEMAND")
	v.BindEnv("jira.issue_type_id_demand", "JIRA_ISSUE_TYPE_ID_DEMAND")
	v.BindEnv("db.host", "DB_HOST")
	v.BindEnv("db.port", "DB_PORT")
	v.BindEnv("db.name", "DB_NAME")
	v.BindEnv("db.user", "DB_USER")
	v.BindEnv("db.password", "DB_PASSWORD")
	v.BindEnv("gitea.base_url", "BASE_GITEA_URL")
	v.BindEnv("sync.squads", "TARGET_SQUADS")
	v.BindEnv("sync.repositories", "REPOSITORIES")
	v.BindEnv("sync.imported_label", "IMPORTED_LABEL")
	v.BindEnv("sync.metadata_policy", "METADATA_POLICY")
	v.BindEnv("sync.repo_components", "REPO_COMPONENTS")

	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("github.orgs", "opentelekomcloud-docs")
	v.SetDefault("jira.project_key", "BM")
	v.SetDefault("jira.issue_type", "Bug")
	v.SetDefault("jira.project_key_demand", "OTCPR")
	v.SetDefault("jira.issue_type_id_demand", "11001")
	v.SetDefault("db.port", "5432")
	v.SetDefault("sync.squads", "Database Squad,Compute Squad")
	v.SetDefault("sync.imported_label", "imported-to-jira")
	v.SetDefault("sync.metadata_policy", PolicyFallback)

	config := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			APIURL: v.GetString("github.api_url"),
			Orgs:   splitList(v.GetString("github.orgs")),
		},
		Jira: JiraConfig{
			URL:               v.GetString("jira.url"),
			Token:             v.GetString("jira.token"),
			CertPath:          v.GetString("jira.cert_path"),
			KeyPath:           v.GetString("jira.key_path"),
			ProjectKey:        v.GetString("jira.project_key"),
			IssueType:         v.GetString("jira.issue_type"),
			DemandProjectKey:  v.GetString("jira.project_key_demand"),
			DemandIssueTypeID: v.GetString("jira.issue_type_id_demand"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			Name:     v.GetString("db.name"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
		},
		Gitea: GiteaConfig{
			BaseURL: v.GetString("gitea.base_url"),
		},
		Sync: SyncConfig{
			Teams:          splitList(v.GetString("sync.squads")),
			Repositories:   splitList(v.GetString("sync.repositories")),
			MarkerLabel:    v.GetString("sync.imported_label"),
			MetadataPolicy: v.GetString("sync.metadata_policy"),
			Components:     parsePairs(v.GetString("sync.repo_components")),
		},
		Fields: loadFieldIDs(v),
	}

	if config.Sync.MetadataPolicy != PolicyStrict && config.Sync.MetadataPolicy != PolicyFallback {
		return nil, fmt.Errorf("invalid METADATA_POLICY %q: must be %q or %q",
			config.Sync.MetadataPolicy, PolicyStrict, PolicyFallback)
	}

	return config, nil
}

// loadFieldIDs binds the custom field identifiers. Defaults match the
// sandbox instance; production overrides every one of them from Vault.
func loadFieldIDs(v *viper.Viper) FieldIDs {
	bindWithDefault := func(key, env, def string) string {
		v.BindEnv(key, env)
		v.SetDefault(key, def)
		return v.GetString(key)
	}

	return FieldIDs{
		MasterComponent:   bindWithDefault("fields.master_component", "FIELD_MASTER_COMPONENT", "customfield_17001"),
		UsersImpact:       bindWithDefault("fields.users_impact", "FIELD_USERS_IMPACT", "customfield_24700"),
		AffectedLocations: bindWithDefault("fields.affected_locations", "FIELD_AFFECTED_LOCATIONS", "customfield_10244"),
		TestCategory:      bindWithDefault("fields.test_category", "FIELD_TEST_CATEGORY", "customfield_20100"),
		BugType:           bindWithDefault("fields.bug_type", "FIELD_BUG_TYPE", "customfield_20101"),
		AffectedAreas:     bindWithDefault("fields.affected_areas", "FIELD_AFFECTED_AREAS", "customfield_10218"),
		EstimatedEffort:   bindWithDefault("fields.estimated_effort", "FIELD_ESTIMATED_EFFORT", "customfield_15700"),
		Tier:              bindWithDefault("fields.tier", "FIELD_TIER", "customfield_15237"),
		PaysInto:          bindWithDefault("fields.pays_into", "FIELD_PAYS_INTO", "customfield_16000"),
		TestCategoryIDs: map[string]string{
			"QA":       bindWithDefault("fields.test_category_qa", "TEST_CATEGORY_QA_ID", "17600"),
			"UAT":      bindWithDefault("fields.test_category_uat", "TEST_CATEGORY_UAT_ID", "17601"),
			"Security": bindWithDefault("fields.test_category_security", "TEST_CATEGORY_SECURITY_ID", "17602"),
		},
		EffortValueID:   bindWithDefault("fields.effort_value", "ESTIMATED_EFFORT_ID", "15104"),
		TierValueID:     bindWithDefault("fields.tier_value", "TIER_ID", "14637"),
		PaysIntoValueID: bindWithDefault("fields.pays_into_value", "PAYS_INTO_ID", "15204"),
	}
}

// ValidateSync ensures everything a sync run needs is present. It collects
// all missing variables so the operator fixes them in one pass.
func ValidateSync(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}
	if config.Gitea.BaseURL == "" {
		missingVars = append(missingVars, "BASE_GITEA_URL")
	}
	if len(config.Sync.Components) == 0 {
		missingVars = append(missingVars, "REPO_COMPONENTS")
	}

	// The database is only consulted when no fixed repository list is set.
	if len(config.Sync.Repositories) == 0 {
		missingVars = append(missingVars, missingDatabaseVars(config)...)
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}
	return nil
}

// ValidateLabels ensures everything the label bootstrap needs is present.
func ValidateLabels(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if len(config.Sync.Repositories) == 0 {
		missingVars = append(missingVars, missingDatabaseVars(config)...)
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}
	return nil
}

func missingDatabaseVars(config *Config) []string {
	var missing []string
	if config.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if config.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if config.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if config.Database.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	return missing
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parsePairs(value string) map[string]string {
	pairs := map[string]string{}
	for _, entry := range splitList(value) {
		key, val, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key != "" && val != "" {
			pairs[key] = val
		}
	}
	return pairs
}
