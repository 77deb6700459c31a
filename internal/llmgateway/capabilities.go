package llmgateway

import (
	"strings"

	"github.com/arzttarif/tarifengine/internal/config"
)

// fixedSamplingModels are models known in advance to reject a sampling
// temperature outright — no need to wait for a 400 to learn it.
// Grounded on openai_wrapper.py's FIXED_SAMPLING_MODELS.
var fixedSamplingModels = map[string]bool{
	"gpt-5-nano": true,
}

const capabilitiesSection = "LLM_CAPABILITIES"

// capabilityStore tracks, per model, which sampling parameters have been
// observed unsupported, persisting the flags via the runtime config so
// the lesson survives process restarts. Mirrors openai_wrapper.py's
// module-level _UNSUPPORTED_TEMPERATURE_MODELS set plus
// _persist_temperature_flag, generalised to the three parameters this
// gateway guards (temperature, max_tokens, response_format).
type capabilityStore struct {
	runtime *config.RuntimeStore
}

func newCapabilityStore(runtime *config.RuntimeStore) *capabilityStore {
	return &capabilityStore{runtime: runtime}
}

func (c *capabilityStore) supportsTemperature(model string) bool {
	if fixedSamplingModels[model] {
		return false
	}
	return c.flag(model, "supports_temperature", true)
}

// needsNewMaxTokensParam reports whether model is known to require
// "max_completion_tokens" instead of the legacy "max_tokens" name.
// Defaults to false (use the legacy name) until a 400 proves otherwise.
func (c *capabilityStore) needsNewMaxTokensParam(model string) bool {
	return c.flag(model, "max_tokens_named_new", false)
}

func (c *capabilityStore) supportsResponseFormat(model string) bool {
	return c.flag(model, "supports_response_format", true)
}

// markUnsupported persists that model does not support a sampling
// parameter at its default value/name, flipping the corresponding flag.
func (c *capabilityStore) markUnsupported(model, param string) {
	if c.runtime == nil {
		return
	}
	value := "0"
	if param == "max_tokens_named_new" {
		value = "1" // polarity flips: "needs new name" becomes true
	}
	_ = c.runtime.UpdateSection(capabilitiesSection, map[string]string{
		model + "_" + param: value,
	})
}

func (c *capabilityStore) flag(model, param string, def bool) bool {
	if c.runtime == nil {
		return def
	}
	section := c.runtime.Section(capabilitiesSection)
	v, ok := section[model+"_"+param]
	if !ok {
		return def
	}
	return strings.TrimSpace(v) != "0"
}
