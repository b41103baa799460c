package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement_analyst/pkg/core/config"
	"statement_analyst/pkg/core/conversation"
	"statement_analyst/pkg/core/llm"
)

func writeStatement(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bs.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Item,Prior,Current\nTOTAL ASSETS,1000,1200\nCURRENT ASSETS,400,600\nCURRENT LIABILITIES,200,300\n"), 0o644))
	return path
}

func run(t *testing.T, fake *llm.FakeProvider, stdin string, args ...string) (string, string, error) {
	t.Helper()
	a := &app{providers: func(config.Config) (conversation.ProviderSource, error) {
		return conversation.Static(fake), nil
	}}
	cmd := newRootCommand(a)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	fake := &llm.FakeProvider{Fragments: []string{"Assets grew ", "20%."}}
	out, _, err := run(t, fake, "", "analyze", writeStatement(t))
	require.NoError(t, err)

	assert.Contains(t, out, "| CURRENT ASSETS | 400 | 600 | 50.00% | 40.00% | 50.00% |")
	assert.Contains(t, out, "- Current ratio (current year): 2.00 times (delta 0.00)")
	assert.Contains(t, out, "Assets grew 20%.")
}

func TestAnalyzeNoAI(t *testing.T) {
	fake := &llm.FakeProvider{Reply: "never"}
	out, _, err := run(t, fake, "", "analyze", "--no-ai", writeStatement(t))
	require.NoError(t, err)
	assert.NotContains(t, out, "never")
	assert.Empty(t, fake.Requests())
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, _, err := run(t, &llm.FakeProvider{}, "", "analyze", "/does/not/exist.csv")
	assert.Error(t, err)
}

func TestChatCommand(t *testing.T) {
	fake := &llm.FakeProvider{Reply: "It is 2.00."}
	out, _, err := run(t, fake, "what is the ratio?\n/history\n/clear\n/exit\n", "chat", writeStatement(t))
	require.NoError(t, err)

	assert.Contains(t, out, chatHelp)
	assert.Contains(t, out, "[user] what is the ratio?")
	assert.Contains(t, out, "[assistant] It is 2.00.")
	assert.Contains(t, out, "history cleared")

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[1].SystemInstruction)
}

func TestChatRequiresCredential(t *testing.T) {
	fake := &llm.FakeProvider{NoCredential: true}
	_, _, err := run(t, fake, "/exit\n", "chat", writeStatement(t))
	var credErr *llm.CredentialError
	assert.ErrorAs(t, err, &credErr)
}
