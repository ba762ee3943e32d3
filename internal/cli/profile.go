package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/apiclient"
	"github.com/stemsi/studyguide/internal/logger"
	"github.com/stemsi/studyguide/internal/tokenstore"
	"gopkg.in/yaml.v3"
)

// Profile is the studyctl YAML configuration. Every field is optional.
type Profile struct {
	UpstreamURL           string `yaml:"upstream_url"`
	CredentialsPath       string `yaml:"credentials_path"`
	TimeoutSeconds        int    `yaml:"timeout_seconds"`
	BootstrapAttempts     int    `yaml:"bootstrap_attempts"`
	BootstrapDelaySeconds int    `yaml:"bootstrap_delay_seconds"`
	LogLevel              string `yaml:"log_level"`
	Quiz                  struct {
		Count              int `yaml:"count"`
		SecondsPerQuestion int `yaml:"seconds_per_question"`
	} `yaml:"quiz"`
	ExamMinutes     int  `yaml:"exam_minutes"`
	ScenarioSeconds int  `yaml:"scenario_seconds"`
	NoColor         bool `yaml:"no_color"`
}

// loadProfile reads path, or the default profile location when path is
// empty. A missing default profile yields defaults; a missing explicit one
// is an error.
func loadProfile(path string) (Profile, error) {
	var p Profile
	explicit := path != ""
	if !explicit {
		path = defaultProfilePath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parse profile %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return p, fmt.Errorf("read profile: %w", err)
	}

	p.applyDefaults()
	if !strings.HasPrefix(p.UpstreamURL, "http://") && !strings.HasPrefix(p.UpstreamURL, "https://") {
		return p, fmt.Errorf("upstream_url must be an http(s) URL, got %q", p.UpstreamURL)
	}
	return p, nil
}

func (p *Profile) applyDefaults() {
	if p.UpstreamURL == "" {
		p.UpstreamURL = "http://localhost:8001/api"
	}
	p.UpstreamURL = strings.TrimRight(p.UpstreamURL, "/")
	if p.CredentialsPath == "" {
		p.CredentialsPath = filepath.Join(configDir(), "credentials.json")
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 45
	}
	if p.BootstrapAttempts <= 0 {
		p.BootstrapAttempts = 3
	}
	if p.BootstrapDelaySeconds <= 0 {
		p.BootstrapDelaySeconds = 5
	}
	if p.LogLevel == "" {
		p.LogLevel = "warn"
	}
	if p.Quiz.Count <= 0 {
		p.Quiz.Count = 25
	}
	if p.Quiz.SecondsPerQuestion <= 0 {
		p.Quiz.SecondsPerQuestion = 60
	}
	if p.ExamMinutes <= 0 {
		p.ExamMinutes = 90
	}
	if p.ScenarioSeconds <= 0 {
		p.ScenarioSeconds = 420
	}
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "studyguide")
}

func defaultProfilePath() string {
	if p := os.Getenv("STUDYCTL_PROFILE"); p != "" {
		return p
	}
	return filepath.Join(configDir(), "profile.yml")
}

// newClient builds an API client whose token lives in the profile's
// credentials file. Logs go to stderr.
func newClient(p Profile, stderr io.Writer) (*apiclient.Client, zerolog.Logger) {
	log := logger.Component(logger.SetupWriter(p.LogLevel, "pretty", stderr), "studyctl")
	client := apiclient.New(apiclient.Config{
		BaseURL:           p.UpstreamURL,
		Timeout:           time.Duration(p.TimeoutSeconds) * time.Second,
		BootstrapAttempts: p.BootstrapAttempts,
		BootstrapDelay:    time.Duration(p.BootstrapDelaySeconds) * time.Second,
	}, tokenstore.NewFileStore(p.CredentialsPath),
		apiclient.WithLogger(log),
	)
	return client, log
}
