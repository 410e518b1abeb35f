package config

import "time"

// DefaultMedicalDomains restricts web search to peer-reviewed and public-health sources.
var DefaultMedicalDomains = []string{
	"pubmed.ncbi.nlm.nih.gov",
	"nature.com",
	"thelancet.com",
	"nejm.org",
	"who.int",
	"nih.gov",
	"bmj.com",
	"jamanetwork.com",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Models.BaseURL == "" {
		cfg.Models.BaseURL = "http://localhost:11434"
	}
	if cfg.Models.Orchestrator == "" {
		cfg.Models.Orchestrator = "qwen3:latest"
	}
	if cfg.Models.Specialist == "" {
		cfg.Models.Specialist = "MedAIBase/MedGemma1.0:4b"
	}
	if cfg.Models.SpecialistTimeout == 0 {
		cfg.Models.SpecialistTimeout = 120 * time.Second
	}
	if cfg.Models.HealthTimeout == 0 {
		cfg.Models.HealthTimeout = 5 * time.Second
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Search.Depth == "" {
		cfg.Search.Depth = "advanced"
	}
	if len(cfg.Search.IncludeDomains) == 0 {
		cfg.Search.IncludeDomains = append([]string(nil), DefaultMedicalDomains...)
	}
	if cfg.Reports.OutputDir == "" {
		cfg.Reports.OutputDir = "output"
	}
	if cfg.Agent.Name == "" {
		cfg.Agent.Name = "medical-research-agent"
	}
	if cfg.Agent.MaxIterations == 0 {
		cfg.Agent.MaxIterations = 20
	}
}
