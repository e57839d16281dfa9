package commands

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mindboard/application/commands/bus"
	pkgerrors "mindboard/pkg/errors"
)

// factories maps script names to fresh command values
var factories = map[string]func() bus.Command{
	"pointer_down":   func() bus.Command { return &PointerDown{} },
	"pointer_move":   func() bus.Command { return &PointerMove{} },
	"pointer_up":     func() bus.Command { return &PointerUp{} },
	"pointer_leave":  func() bus.Command { return &PointerLeave{} },
	"pointer_cancel": func() bus.Command { return &PointerCancel{} },
	"wheel":          func() bus.Command { return &Wheel{} },
	"tool":           func() bus.Command { return &SelectTool{} },
	"option":         func() bus.Command { return &ChooseOption{} },
	"panel":          func() bus.Command { return &TogglePanel{} },
	"place":          func() bus.Command { return &Place{} },
	"undo":           func() bus.Command { return &Undo{} },
	"redo":           func() bus.Command { return &Redo{} },
	"delete":         func() bus.Command { return &Delete{} },
	"label":          func() bus.Command { return &EditLabel{} },
	"resize":         func() bus.Command { return &Resize{} },
	"color":          func() bus.Command { return &Recolor{} },
	"reparent":       func() bus.Command { return &Reparent{} },
	"add_child":      func() bus.Command { return &AddChild{} },
	"select":         func() bus.Command { return &Select{} },
	"pan":            func() bus.Command { return &Pan{} },
	"zoom":           func() bus.Command { return &Zoom{} },
	"reset_view":     func() bus.Command { return &ResetView{} },
}

// Names returns every command name a script may use, sorted
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Step is one decoded script entry
type Step struct {
	Name    string
	Command bus.Command
	Line    int
}

// ParseScript decodes a YAML sequence of steps. Each step is either a bare
// name (`- undo`) or a single-key mapping (`- pointer_down: {x: 10, y: 20}`).
func ParseScript(data []byte) ([]Step, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("invalid script: %v", err))
	}
	if len(doc.Content) == 0 {
		return []Step{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("line %d: script must be a list of commands", root.Line))
	}

	steps := make([]Step, 0, len(root.Content))
	for _, item := range root.Content {
		step, err := decodeStep(item)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// ParseLine decodes one interactive line. It accepts the same forms as a
// script step plus a shorthand of space-separated key=value pairs:
//
//	pointer_down x=10 y=20
func ParseLine(line string) (Step, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Step{}, pkgerrors.NewValidation("empty command")
	}

	if name, rest, ok := strings.Cut(line, " "); ok && !strings.HasSuffix(name, ":") && strings.Contains(rest, "=") {
		line = name + ": {" + shorthandToFlow(rest) + "}"
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(line), &doc); err != nil {
		return Step{}, pkgerrors.NewValidation(fmt.Sprintf("invalid command: %v", err))
	}
	if len(doc.Content) == 0 {
		return Step{}, pkgerrors.NewValidation("empty command")
	}
	return decodeStep(doc.Content[0])
}

func decodeStep(node *yaml.Node) (Step, error) {
	var name string
	var body *yaml.Node

	switch node.Kind {
	case yaml.ScalarNode:
		name = node.Value
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return Step{}, pkgerrors.NewValidation(fmt.Sprintf("line %d: a step must hold exactly one command", node.Line))
		}
		name = node.Content[0].Value
		body = node.Content[1]
	default:
		return Step{}, pkgerrors.NewValidation(fmt.Sprintf("line %d: unexpected step", node.Line))
	}

	factory, ok := factories[name]
	if !ok {
		return Step{}, pkgerrors.NewValidation(fmt.Sprintf("line %d: unknown command %q", node.Line, name))
	}

	cmd := factory()
	if body != nil && !isNull(body) {
		if err := body.Decode(cmd); err != nil {
			return Step{}, pkgerrors.NewValidation(fmt.Sprintf("line %d: %s: %v", node.Line, name, err))
		}
	}
	return Step{Name: name, Command: cmd, Line: node.Line}, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// shorthandToFlow turns `x=1 y=2` into `x: 1, y: 2`
func shorthandToFlow(s string) string {
	fields := strings.Fields(s)
	pairs := make([]string, 0, len(fields))
	for _, f := range fields {
		key, value, _ := strings.Cut(f, "=")
		pairs = append(pairs, key+": "+quoteIfNeeded(value))
	}
	return strings.Join(pairs, ", ")
}

// quoteIfNeeded keeps ids like #2 from being read as YAML comments
func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, "#:{}[],&*!|>'\"%@`") {
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return v
}
