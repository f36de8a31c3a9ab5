package backend

import (
	"fmt"
	"strings"

	"terapia/internal/config"
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		APIHost:      appConfig.APIHost,
		APITimeout:   appConfig.APITimeout,
		UserCacheTTL: appConfig.UserCacheTTL,
		SeedFile:     appConfig.MemorySeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case APIBackend:
		if c.APIHost == "" {
			return fmt.Errorf("API host is required for api backend")
		}
	case MemoryBackend:
		if c.SeedFile != "" && !strings.HasSuffix(c.SeedFile, ".yaml") && !strings.HasSuffix(c.SeedFile, ".yml") {
			return fmt.Errorf("memory seed file must be YAML: %s", c.SeedFile)
		}
	}
	return nil
}
