// Package prompts holds the system and user prompts sent to the language
// model, embedded from one JSON file per task.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

// Task names a prompt file.
type Task string

const (
	Questions Task = "questions"
	Feedback  Task = "feedback"
)

// Prompt is the system instruction and user message for one task.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

var placeholder = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

var loadAll = sync.OnceValues(func() (map[Task]Prompt, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, err
	}

	all := make(map[Task]Prompt, len(entries))
	for _, e := range entries {
		data, err := files.ReadFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", e.Name(), err)
		}
		var p Prompt
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", e.Name(), err)
		}
		if p.System == "" || p.User == "" {
			return nil, fmt.Errorf("prompt file %s needs both system and user", e.Name())
		}
		all[Task(strings.TrimSuffix(e.Name(), path.Ext(e.Name())))] = p
	}
	return all, nil
})

// Load returns the prompt for task with its placeholders unfilled.
func Load(task Task) (Prompt, error) {
	all, err := loadAll()
	if err != nil {
		return Prompt{}, err
	}
	p, ok := all[task]
	if !ok {
		return Prompt{}, fmt.Errorf("no prompt for task %q", task)
	}
	return p, nil
}

// Render loads task and fills its placeholders from data.
func Render(task Task, data map[string]string) (Prompt, error) {
	p, err := Load(task)
	if err != nil {
		return Prompt{}, err
	}
	return p.Fill(data)
}

// Fill replaces {{.Key}} placeholders in the user message. Every placeholder
// needs a value so template markers never reach the model. Substituted text is
// not scanned again.
func (p Prompt) Fill(data map[string]string) (Prompt, error) {
	var missing []string
	user := placeholder.ReplaceAllStringFunc(p.User, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := data[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return Prompt{}, fmt.Errorf("prompt placeholders without value: %s", strings.Join(missing, ", "))
	}
	return Prompt{System: p.System, User: user}, nil
}

// Placeholders lists the keys the user message expects, in order of first use.
func (p Prompt) Placeholders() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(p.User, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}
