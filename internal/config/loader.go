package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadResult reports where a configuration value came from.
type LoadResult struct {
	Path      string
	IsDefault bool
}

// HomeDir returns the agent's config directory (~/.outlook-agent).
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".outlook-agent")
}

// LoadRules loads the scoring rules. An explicit path wins; otherwise
// the file in HomeDir is used if present; otherwise the built-in
// defaults. A load failure never aborts the run: the defaults are
// substituted and the result marks them as such.
func LoadRules(path string) (*Rules, LoadResult) {
	explicit := path != ""
	if path == "" {
		path = filepath.Join(HomeDir(), "scheduling-rules.yaml")
	}

	rules := DefaultRules()
	result := LoadResult{Path: path, IsDefault: true}

	if _, err := os.Stat(path); err != nil {
		if !explicit {
			result.Path = "built-in"
		}
		return rules, result
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return DefaultRules(), LoadResult{Path: "built-in", IsDefault: true}
	}
	if err := v.Unmarshal(rules); err != nil {
		return DefaultRules(), LoadResult{Path: "built-in", IsDefault: true}
	}

	result.IsDefault = !explicit
	return rules, result
}

// LoadInstructions loads the AI instruction file (YAML frontmatter +
// markdown body). Same fallback behavior as LoadRules.
func LoadInstructions(path string) (*Instructions, LoadResult) {
	explicit := path != ""
	if path == "" {
		path = filepath.Join(HomeDir(), "ai-instructions.md")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return DefaultInstructions(), LoadResult{Path: "built-in", IsDefault: true}
	}

	instr, err := parseInstructions(content)
	if err != nil {
		return DefaultInstructions(), LoadResult{Path: "built-in", IsDefault: true}
	}

	return instr, LoadResult{Path: path, IsDefault: !explicit}
}

// parseInstructions parses YAML frontmatter and markdown body. A file
// without frontmatter is all body, with the default policy.
func parseInstructions(content []byte) (*Instructions, error) {
	reader := bufio.NewReader(bytes.NewReader(content))

	firstLine, err := reader.ReadString('\n')
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(firstLine) != "---" {
		instr := DefaultInstructions()
		instr.Body = strings.TrimSpace(string(content))
		return instr, nil
	}

	var frontmatter strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unterminated frontmatter: %w", err)
		}
		if strings.TrimSpace(line) == "---" {
			break
		}
		frontmatter.WriteString(line)
	}

	instr := &Instructions{Policy: DefaultInstructions().Policy}
	if err := yaml.Unmarshal([]byte(frontmatter.String()), &instr.Policy); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	var body strings.Builder
	for {
		line, err := reader.ReadString('\n')
		body.WriteString(line)
		if err != nil {
			break
		}
	}
	instr.Body = strings.TrimSpace(body.String())

	return instr, nil
}
