package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.RetrievalTopN != 200 {
		t.Errorf("expected default retrieval top-n 200, got %d", cfg.RetrievalTopN)
	}
	if cfg.KumulationExplizit {
		t.Error("expected kumulation_explizit to default to false (advisory, non-restrictive)")
	}
	if !cfg.UseICDDefault {
		t.Error("expected use_icd default to be true")
	}
}

func TestLoad_ReadsConfigIni(t *testing.T) {
	dir := t.TempDir()
	contents := "[DEFAULT]\nPORT = 9100\nKUMULATION_EXPLIZIT = true\n"
	if err := os.WriteFile(dir+"/config.ini", []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("expected PORT from config.ini to win, got %s", cfg.Port)
	}
	if !cfg.KumulationExplizit {
		t.Error("expected kumulation_explizit to be true from config.ini")
	}
}

func TestLoad_ClampsThrottleInterval(t *testing.T) {
	dir := t.TempDir()
	contents := "[DEFAULT]\nLLM_MIN_CALL_INTERVAL_SECONDS = 5000\n"
	if err := os.WriteFile(dir+"/config.ini", []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLMMinCallIntervalSeconds != 1000 {
		t.Errorf("expected throttle interval clamped to 1000, got %d", cfg.LLMMinCallIntervalSeconds)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}
	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestValidate_APIKeyModeRequiresKey(t *testing.T) {
	c := &Config{AuthMode: "api_key", RetrievalTopN: 10}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error when AUTH_MODE=api_key and API_KEY is empty")
	}
	c.APIKey = "secret"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsNonPositiveRetrievalTopN(t *testing.T) {
	c := &Config{RetrievalTopN: 0}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for non-positive RETRIEVAL_TOP_N")
	}
}

func TestRuntimeStore_UpdateAndReadSection(t *testing.T) {
	dir := t.TempDir()
	store := NewRuntimeStore(dir)

	if got := store.Section("LLM_CAPABILITIES"); len(got) != 0 {
		t.Fatalf("expected empty section before any write, got %v", got)
	}

	if err := store.UpdateSection("LLM_CAPABILITIES", map[string]string{
		"gpt-5-nano_supports_temperature": "0",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := store.Section("LLM_CAPABILITIES")
	if got["gpt-5-nano_supports_temperature"] != "0" {
		t.Errorf("expected persisted flag, got %v", got)
	}

	// A second store instance pointed at the same directory must see it.
	store2 := NewRuntimeStore(dir)
	got2 := store2.Section("LLM_CAPABILITIES")
	if got2["gpt-5-nano_supports_temperature"] != "0" {
		t.Errorf("expected flag to survive across store instances, got %v", got2)
	}
}

func TestEnvCredentials_ResolvesProviderScopedVars(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "sk-test")
	os.Setenv("OPENAI_BASE_URL", "https://api.example.com")
	defer os.Unsetenv("OPENAI_API_KEY")
	defer os.Unsetenv("OPENAI_BASE_URL")

	key, baseURL := EnvCredentials{}.Resolve("openai")
	if key != "sk-test" || baseURL != "https://api.example.com" {
		t.Fatalf("expected resolved credentials, got key=%q baseURL=%q", key, baseURL)
	}
}
