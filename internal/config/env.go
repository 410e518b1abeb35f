package config

import "strings"

// LookupFunc matches os.LookupEnv so tests can supply a fake environment.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with any of the recognised environment variables that are set.
// Environment values win over the config file.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("TAVILY_API_KEY", &cfg.Search.APIKey)
	set("OLLAMA_BASE_URL", &cfg.Models.BaseURL)
	set("ORCHESTRATOR_MODEL", &cfg.Models.Orchestrator)
	set("MEDICAL_MODEL", &cfg.Models.Specialist)
	set("OUTPUT_DIR", &cfg.Reports.OutputDir)
	set("LOG_LEVEL", &cfg.LogLevel)

	var domains string
	set("TAVILY_INCLUDE_DOMAINS", &domains)
	if domains != "" {
		cfg.Search.IncludeDomains = nil
		for _, d := range strings.Split(domains, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.Search.IncludeDomains = append(cfg.Search.IncludeDomains, d)
			}
		}
	}
}
