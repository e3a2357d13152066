package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Config is the process configuration, read once at startup and passed
// explicitly to the components that need it.
type Config struct {
	Addr      string `env:"PHRASEBOOK_ADDR,default=:8000"`
	DBPath    string `env:"PHRASEBOOK_DB,default=phrasebook.db"`
	MediaRoot string `env:"MEDIA_ROOT,default=media"`
	MediaURL  string `env:"MEDIA_URL,default=/media/"`
	// Secret is compared with the Secret request header.
	Secret string `env:"API_KEY_SECRET"`
	// Debug disables the secret check on the data endpoints. Development only.
	Debug bool `env:"DEBUG,default=false"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	DictPath           string `env:"PHRASEBOOK_DICT,default=cmudict.dict"`
	TranscriptionCache int    `env:"TRANSCRIPTION_CACHE,default=1024"`
	WarmWorkers        int    `env:"WARM_WORKERS,default=4"`
}

// Load reads envFile (when it exists) and the process environment into a
// Config. Process variables win over the file.
func Load(fs afero.Fs, envFile string) (*Config, error) {
	dotenv, err := readEnvFile(fs, envFile)
	if err != nil {
		return nil, err
	}
	return FromEnviron(os.Environ(), dotenv)
}

// FromEnviron decodes environ ("KEY=value" pairs) layered over defaults.
func FromEnviron(environ []string, defaults map[string]string) (*Config, error) {
	es, err := env.EnvironToEnvSet(environ)
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	merged := env.EnvSet{}
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range es {
		merged[k] = v
	}

	cfg := &Config{}
	if err := env.Unmarshal(merged, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func readEnvFile(fs afero.Fs, name string) (map[string]string, error) {
	if name == "" {
		return nil, nil
	}
	exists, err := afero.Exists(fs, name)
	if err != nil || !exists {
		return nil, err
	}
	content, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	m, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", name, err)
	}
	return m, nil
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if !c.Debug && c.Secret == "" {
		errs = append(errs, errors.New("API_KEY_SECRET must be set unless DEBUG is enabled"))
	}
	if c.TranscriptionCache <= 0 {
		errs = append(errs, fmt.Errorf("TRANSCRIPTION_CACHE must be positive, got %d", c.TranscriptionCache))
	}
	if c.WarmWorkers < 0 {
		errs = append(errs, fmt.Errorf("WARM_WORKERS must not be negative, got %d", c.WarmWorkers))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
