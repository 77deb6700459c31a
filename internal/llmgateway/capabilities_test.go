package llmgateway

import (
	"testing"

	"github.com/arzttarif/tarifengine/internal/config"
)

func TestCapabilityStore_FixedSamplingModelRejectsTemperature(t *testing.T) {
	c := newCapabilityStore(nil)
	if c.supportsTemperature("gpt-5-nano") {
		t.Error("expected gpt-5-nano to be a known fixed-sampling model")
	}
	if !c.supportsTemperature("gpt-4o-mini") {
		t.Error("expected an unknown model to default to supporting temperature")
	}
}

func TestCapabilityStore_PersistsAndReadsUnsupportedFlag(t *testing.T) {
	runtime := config.NewRuntimeStore(t.TempDir())
	c := newCapabilityStore(runtime)

	if !c.supportsTemperature("custom-model") {
		t.Fatal("expected default true before any flag recorded")
	}

	c.markUnsupported("custom-model", "supports_temperature")

	c2 := newCapabilityStore(runtime)
	if c2.supportsTemperature("custom-model") {
		t.Error("expected persisted unsupported flag to stick across instances")
	}
}

func TestCapabilityStore_MaxTokensRenameFlag(t *testing.T) {
	runtime := config.NewRuntimeStore(t.TempDir())
	c := newCapabilityStore(runtime)

	if c.needsNewMaxTokensParam("custom-model") {
		t.Fatal("expected default false (legacy param name) before any flag recorded")
	}
	c.markUnsupported("custom-model", "max_tokens_named_new")
	if !c.needsNewMaxTokensParam("custom-model") {
		t.Error("expected flag flip to persist 'needs new name'")
	}
}
