// Package persona loads the agent's persona instructions and static lore.
//
// A persona is a small YAML document. The built-in default is embedded; a
// custom one can be read from a file inside a sandbox root.
package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petasbytes/ellie/internal/safety"
)

//go:embed default.yaml
var defaultYAML []byte

type Persona struct {
	Name         string   `yaml:"name"`
	WakePhrase   string   `yaml:"wake_phrase"`
	MaxLines     int      `yaml:"max_lines"` // 0 leaves the configured reply policy in place
	Instructions string   `yaml:"instructions"`
	Lore         []string `yaml:"lore"`
}

// Default returns the embedded Ellie persona.
func Default() Persona {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("persona: embedded default is invalid: %v", err))
	}
	return p
}

// Parse decodes and validates a persona document.
func Parse(b []byte) (Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Persona{}, fmt.Errorf("decode persona: %w", err)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Instructions = strings.TrimSpace(p.Instructions)
	if p.Name == "" {
		return Persona{}, errors.New("persona: name is required")
	}
	if p.Instructions == "" {
		return Persona{}, errors.New("persona: instructions are required")
	}
	if p.MaxLines < 0 {
		return Persona{}, fmt.Errorf("persona: max_lines must be >= 0, got %d", p.MaxLines)
	}
	return p, nil
}

// Load reads relPath under root. An empty relPath returns Default().
func Load(root, relPath string) (Persona, error) {
	if strings.TrimSpace(relPath) == "" {
		return Default(), nil
	}
	absRoot, err := safety.InitSandboxRoot(root)
	if err != nil {
		return Persona{}, err
	}
	absPath, err := safety.ValidateRelPath(absRoot, relPath)
	if err != nil {
		return Persona{}, err
	}
	fi, err := os.Stat(absPath)
	if err != nil {
		return Persona{}, err
	}
	if fi.IsDir() {
		return Persona{}, safety.PathError{Code: "ERR_NOT_A_FILE", Message: "path is a directory"}
	}
	b, err := os.ReadFile(absPath)
	if err != nil {
		return Persona{}, err
	}
	return Parse(b)
}

// SystemText is the persona instruction block sent as the system instruction.
func (p Persona) SystemText() string { return p.Instructions }

// StaticContext renders the lore list, or "" when there is none.
func (p Persona) StaticContext() string {
	var b strings.Builder
	for _, item := range p.Lore {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Full Lore Context:")
		}
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}

// DefaultWakePhrase returns the persona's wake phrase, or "hey <name>".
func (p Persona) DefaultWakePhrase() string {
	if w := strings.TrimSpace(p.WakePhrase); w != "" {
		return strings.ToLower(w)
	}
	return "hey " + strings.ToLower(p.Name)
}
