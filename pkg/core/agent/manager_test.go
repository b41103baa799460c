package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement_analyst/pkg/core/config"
	"statement_analyst/pkg/core/llm"
)

func TestNewManagerFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.ActiveProvider = "claude"
	pc := cfg.LLM.Providers["claude"]
	pc.APIKey = "k"
	cfg.LLM.Providers["claude"] = pc

	m := NewManager(cfg)
	assert.Equal(t, []string{"claude", "deepseek", "gemini"}, m.Available())
	assert.Equal(t, "claude", m.Active().Name())

	status := m.Status()
	require.Len(t, status, 3)
	assert.Equal(t, ProviderStatus{Name: "claude", Active: true, Configured: true}, status[0])
	assert.False(t, status[2].Configured)
}

func TestNewManagerUnknownActiveFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.ActiveProvider = "openai"
	assert.Equal(t, "gemini", NewManager(cfg).GetActiveProvider())
}

func TestSetGlobalProvider(t *testing.T) {
	m := NewManagerWith("", &llm.FakeProvider{ProviderName: "a"}, &llm.FakeProvider{ProviderName: "b"})
	assert.Equal(t, "a", m.GetActiveProvider())

	require.NoError(t, m.SetGlobalProvider("b"))
	assert.Equal(t, "b", m.Active().Name())

	err := m.SetGlobalProvider("zzz")
	assert.EqualError(t, err, "provider zzz not found")
	assert.Equal(t, "b", m.GetActiveProvider())
	assert.Nil(t, m.GetProviderByName("zzz"))
}
