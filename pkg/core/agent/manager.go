package agent

import (
	"fmt"
	"sort"
	"sync"

	"statement_analyst/pkg/core/config"
	"statement_analyst/pkg/core/llm"
)

// Manager owns the configured LLM providers and tracks which one is active.
type Manager struct {
	mu        sync.RWMutex
	active    string
	providers map[string]llm.Provider
}

// NewManager builds one provider per supported backend from cfg.
func NewManager(cfg config.Config) *Manager {
	temp := cfg.LLM.Temperature
	gemini := cfg.Provider("gemini")
	claude := cfg.Provider("claude")
	deepseek := cfg.Provider("deepseek")

	m := &Manager{
		active: cfg.LLM.ActiveProvider,
		providers: map[string]llm.Provider{
			"gemini": &llm.GeminiProvider{
				Model:       gemini.Model,
				APIKey:      gemini.APIKey,
				APIKeyEnv:   gemini.APIKeyEnv,
				Temperature: temp,
			},
			"claude": &llm.ClaudeProvider{
				Model:       claude.Model,
				APIKey:      claude.APIKey,
				APIKeyEnv:   claude.APIKeyEnv,
				MaxTokens:   claude.MaxTokens,
				Temperature: temp,
			},
			"deepseek": &llm.DeepSeekProvider{
				Model:       deepseek.Model,
				APIKey:      deepseek.APIKey,
				APIKeyEnv:   deepseek.APIKeyEnv,
				BaseURL:     deepseek.BaseURL,
				MaxTokens:   deepseek.MaxTokens,
				Temperature: temp,
			},
		},
	}
	if _, ok := m.providers[m.active]; !ok {
		m.active = "gemini"
	}
	return m
}

// NewManagerWith wraps an explicit provider set; the first name sorted
// alphabetically becomes active unless active names one of them.
func NewManagerWith(active string, providers ...llm.Provider) *Manager {
	m := &Manager{providers: make(map[string]llm.Provider, len(providers))}
	for _, p := range providers {
		m.providers[p.Name()] = p
	}
	m.active = active
	if _, ok := m.providers[active]; !ok {
		if names := m.Available(); len(names) > 0 {
			m.active = names[0]
		}
	}
	return m
}

// Active returns the provider every new request should use.
func (m *Manager) Active() llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[m.active]
}

// GetProviderByName retrieves a provider instance by name (e.g. "deepseek").
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.active = newProvider
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Available lists provider names in sorted order.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderStatus is what the config endpoint reports for each backend.
type ProviderStatus struct {
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	Configured bool   `json:"configured"`
}

// Status reports every provider and whether its API key is present.
func (m *Manager) Status() []ProviderStatus {
	active := m.GetActiveProvider()
	var out []ProviderStatus
	for _, name := range m.Available() {
		p := m.GetProviderByName(name)
		out = append(out, ProviderStatus{
			Name:       name,
			Active:     name == active,
			Configured: p.CheckCredential() == nil,
		})
	}
	return out
}
