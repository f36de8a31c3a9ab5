package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"terapia/internal/api"
	"terapia/internal/config"
	"terapia/internal/memory"
)

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
		check   func(t *testing.T, b Backend)
	}{
		{
			name:   "api backend",
			config: Config{Type: APIBackend, APIHost: "http://localhost:3333", UserCacheTTL: time.Minute},
			check: func(t *testing.T, b Backend) {
				if _, ok := b.(*api.Client); !ok {
					t.Errorf("got %T, want *api.Client", b)
				}
			},
		},
		{
			name:    "api backend without host",
			config:  Config{Type: APIBackend},
			wantErr: true,
		},
		{
			name:   "memory backend with missing seed",
			config: Config{Type: MemoryBackend, SeedFile: filepath.Join(t.TempDir(), "none.yaml")},
			check: func(t *testing.T, b Backend) {
				if _, ok := b.(*memory.Store); !ok {
					t.Errorf("got %T, want *memory.Store", b)
				}
			},
		},
		{
			name:    "memory backend with non YAML seed",
			config:  Config{Type: MemoryBackend, SeedFile: "seed.json"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			config:  Config{Type: "sheets"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			tt.check(t, res.Backend)
			if res.Cleanup != nil {
				if err := res.Cleanup(); err != nil {
					t.Errorf("Cleanup: %v", err)
				}
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", MemorySeedFile: "seed.yaml"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != MemoryBackend || cfg.SeedFile != "seed.yaml" {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sqlite"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
