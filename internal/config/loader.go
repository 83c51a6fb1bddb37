package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const (
	mainFile      = "tourdesk.yaml"
	modelsFile    = "models.yaml"
	providersFile = "providers.yaml"
)

// reloadDebounce coalesces the bursts of events editors produce on save.
const reloadDebounce = 250 * time.Millisecond

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:default}. An unset variable with
// no default expands to "".
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(m[1]); ok {
			return val
		}
		return m[2]
	})
}

// LoadFile reads one YAML file into dest after env expansion. Keys absent
// from the file keep whatever dest already holds.
func LoadFile(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), dest); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, errors.New("server.port must be positive"))
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("rate_limit.backend %q must be memory or redis", c.RateLimit.Backend))
	}
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, errors.New("rate_limit.requests must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.Generation.Timeout <= 0 {
		errs = append(errs, errors.New("generation.timeout must be positive"))
	}
	if c.ImageSearch.Enabled && c.ImageSearch.BaseURL == "" {
		errs = append(errs, errors.New("image_search.base_url is required when image search is enabled"))
	}
	return errors.Join(errs...)
}

// validateRoutes checks that every generation model alias exists, that
// every route points at a configured provider and that each provider has a
// known type.
func validateRoutes(gen GenerationConfig, models *ModelsConfig, providers *ProvidersConfig) error {
	var errs []error
	names := make([]string, 0, len(providers.Providers))
	for name := range providers.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if t := providers.Providers[name].Type; !knownProviderType(t) {
			errs = append(errs, fmt.Errorf("provider %q has unknown type %q", name, t))
		}
	}

	for key, alias := range map[string]string{
		"generation.destination_model": gen.DestinationModel,
		"generation.package_model":     gen.PackageModel,
		"generation.itinerary_model":   gen.ItineraryModel,
	} {
		if _, ok := models.Models[alias]; !ok {
			errs = append(errs, fmt.Errorf("%s: model alias %q not found in %s", key, alias, modelsFile))
		}
	}

	aliases := make([]string, 0, len(models.Models))
	for alias := range models.Models {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		m := models.Models[alias]
		for _, route := range append([]ProviderRoute{m.Primary}, m.Fallback...) {
			if _, ok := providers.Providers[route.Provider]; !ok {
				errs = append(errs, fmt.Errorf("model %q routes to unknown provider %q", alias, route.Provider))
			}
		}
	}
	return errors.Join(errs...)
}

// Loader owns the three config files. Server, database and rate limit
// settings are read once at startup by main; model routes and providers
// are re-read on every change and announced through OnReload.
type Loader struct {
	configDir string
	logger    *slog.Logger

	mu        sync.RWMutex
	cfg       *Config
	models    *ModelsConfig
	providers *ProvidersConfig
	listeners []func()
}

func NewLoader(configDir string, logger *slog.Logger) *Loader {
	return &Loader{configDir: configDir, logger: logger}
}

// Load reads and validates all files. Nothing is replaced unless every file
// is valid, so a bad edit leaves the running config in place.
func (l *Loader) Load() error {
	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(l.configDir, mainFile), cfg); err != nil {
		return fmt.Errorf("load main config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate main config: %w", err)
	}

	models := &ModelsConfig{}
	if err := LoadFile(filepath.Join(l.configDir, modelsFile), models); err != nil {
		return fmt.Errorf("load models config: %w", err)
	}
	providers := &ProvidersConfig{}
	if err := LoadFile(filepath.Join(l.configDir, providersFile), providers); err != nil {
		return fmt.Errorf("load providers config: %w", err)
	}
	if err := validateRoutes(cfg.Generation, models, providers); err != nil {
		return fmt.Errorf("validate model routes: %w", err)
	}

	l.mu.Lock()
	l.cfg, l.models, l.providers = cfg, models, providers
	l.mu.Unlock()

	l.logger.Info("configuration loaded",
		"dir", l.configDir,
		"models", len(models.Models),
		"providers", len(providers.Providers),
	)
	return nil
}

func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

func (l *Loader) Models() *ModelsConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.models
}

func (l *Loader) Providers() *ProvidersConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.providers
}

// OnReload registers fn to run after each successful reload.
func (l *Loader) OnReload(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Loader) reload() {
	if err := l.Load(); err != nil {
		l.logger.Error("config reload rejected, keeping previous config", "error", err)
		return
	}
	l.mu.RLock()
	listeners := append([]func(){}, l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// Watch reloads the directory when a YAML file in it is written or created,
// until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(l.configDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir %s: %w", l.configDir, err)
	}

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(reloadDebounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".yaml" || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				l.logger.Debug("config file changed", "file", event.Name, "op", event.Op.String())
				timer.Reset(reloadDebounce)
			case <-timer.C:
				l.logger.Info("reloading configuration", "dir", l.configDir)
				l.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Error("fsnotify error", "error", err)
			}
		}
	}()

	return nil
}
