package cmd

import (
	"strings"
	"testing"

	"github.com/Rorical/RoriAge/internal/config"
	"github.com/Rorical/RoriAge/internal/vision"
)

func TestRemoveProfileMovesActive(t *testing.T) {
	cfg := &config.Config{
		Profiles: map[string]config.Profile{
			"work": {Provider: config.ProviderOpenAI},
			"home": {Provider: config.ProviderGemini},
			"lab":  {Provider: config.ProviderWebSocket},
		},
		ActiveProfile: "lab",
	}

	removeProfile(cfg, "lab")
	if _, ok := cfg.Profiles["lab"]; ok {
		t.Fatalf("profile not removed")
	}
	if cfg.ActiveProfile != "home" {
		t.Fatalf("active = %q, want first remaining profile", cfg.ActiveProfile)
	}
}

func TestRemoveLastProfileRestoresDefault(t *testing.T) {
	cfg := &config.Config{
		Profiles:      map[string]config.Profile{"only": {Provider: config.ProviderGemini}},
		ActiveProfile: "only",
	}

	removeProfile(cfg, "only")
	if cfg.ActiveProfile != config.DefaultProfileName {
		t.Fatalf("active = %q", cfg.ActiveProfile)
	}
	if p := cfg.Profiles[config.DefaultProfileName]; p.Provider != config.ProviderOpenAI {
		t.Fatalf("default profile = %+v", p)
	}
}

func TestSortedProfileNamesExcludes(t *testing.T) {
	cfg := &config.Config{Profiles: map[string]config.Profile{"b": {}, "a": {}, "c": {}}}
	got := sortedProfileNames(cfg, "b")
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("names = %v", got)
	}
}

func TestOptionalURL(t *testing.T) {
	if err := optionalURL(""); err != nil {
		t.Fatalf("empty url rejected: %v", err)
	}
	if err := optionalURL("localhost"); err == nil {
		t.Fatalf("bare host accepted")
	}
	if err := validateURL("ws://localhost:8080/face"); err != nil {
		t.Fatalf("ws url rejected: %v", err)
	}
}

func TestProfileYAMLHidesKey(t *testing.T) {
	out, err := profileYAML("work", config.Profile{Provider: config.ProviderOpenAI, APIKey: "sk-secret", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("profileYAML: %v", err)
	}
	if strings.Contains(out, "sk-secret") {
		t.Fatalf("api key leaked:\n%s", out)
	}
	for _, want := range []string{"work:", "provider: openai", "model: gpt-4o-mini", "api_key:", "hidden"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestModelForProvider(t *testing.T) {
	tests := []struct {
		name     string
		current  config.Profile
		provider string
		want     string
	}{
		{"new gemini profile", config.DefaultProfile(), config.ProviderGemini, vision.DefaultGeminiModel},
		{"new openai profile", config.DefaultProfile(), config.ProviderOpenAI, config.DefaultModel},
		{"keeps gemini model", config.Profile{Provider: config.ProviderGemini, Model: "gemini-1.5-pro"}, config.ProviderGemini, "gemini-1.5-pro"},
		{"switch to openai", config.Profile{Provider: config.ProviderGemini, Model: "gemini-1.5-pro"}, config.ProviderOpenAI, config.DefaultModel},
		{"empty model", config.Profile{Provider: config.ProviderOpenAI}, config.ProviderOpenAI, config.DefaultModel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := modelFor(tt.current, tt.provider); got != tt.want {
				t.Fatalf("modelFor() = %q, want %q", got, tt.want)
			}
		})
	}
}
