package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	hjson "github.com/hjson/hjson-go/v4"
)

//go:embed defaults
var defaultsFS embed.FS

// LoadDefaults registers the prompts embedded in the binary.
func LoadDefaults(r *Registry) error {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		return err
	}
	return LoadFS(r, sub)
}

// LoadFromDirectory loads prompts from a directory over whatever r already
// holds. Expected structure:
//
//	baseDir/
//	  category1/
//	    prompt1.hjson
//	  category2/
//	    prompt2.json
func LoadFromDirectory(r *Registry, baseDir string) error {
	if _, err := os.Stat(baseDir); err != nil {
		return fmt.Errorf("prompts directory not found: %s", baseDir)
	}
	return LoadFS(r, os.DirFS(baseDir))
}

// LoadFS walks fsys and registers every .hjson/.json file as a prompt.
func LoadFS(r *Registry, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		ext := path.Ext(p)
		if d.IsDir() || (ext != ".hjson" && ext != ".json") {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		var pt PromptTemplate
		if err := hjson.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}

		// Auto-generate ID from path if not specified
		if pt.ID == "" {
			pt.ID = generateIDFromPath(p)
		}

		// Auto-detect category from folder name if not specified
		if pt.Category == "" {
			pt.Category = detectCategory(p)
		}

		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		return nil
	})
}

// generateIDFromPath creates a prompt ID from the file path
// e.g., "analysis/summary.hjson" -> "analysis.summary"
func generateIDFromPath(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	return strings.ReplaceAll(p, "/", ".")
}

// detectCategory extracts the category from the folder structure
func detectCategory(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}

// RenderUserPrompt executes the user prompt template with the given context
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	return render(pt.ID+".user", pt.UserPromptTmpl, pt, ctx)
}

// RenderSystemPrompt executes the system prompt template with the given context
func RenderSystemPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	return render(pt.ID+".system", pt.SystemPrompt, pt, ctx)
}

func render(name, text string, pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	if text == "" {
		return "", nil
	}

	vars := make(map[string]interface{}, len(pt.Variables))
	for _, v := range pt.Variables {
		if v.Default != "" {
			vars[v.Name] = v.Default
		}
	}
	if ctx != nil {
		for k, v := range ctx.Variables {
			vars[k] = v
		}
	}
	for _, v := range pt.Variables {
		if _, ok := vars[v.Name]; v.Required && !ok {
			return "", fmt.Errorf("prompt %s: missing required variable %s", pt.ID, v.Name)
		}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
