package machine

import "github.com/dolthub/swiss"

// Module is the dynamic counterpart of one compiled source file: its
// (optional) canonical name and its global-variable table. The top-level
// script run by the CLI is the unnamed module.
type Module struct {
	Name    string
	Globals *swiss.Map[string, Value]
}

// NewModule returns an empty module, optionally named (pass "" for the
// unnamed top-level script module).
func NewModule(name string) *Module {
	return &Module{Name: name, Globals: swiss.NewMap[string, Value](uint32(8))}
}

func (m *Module) String() string {
	if m.Name == "" {
		return "<module script>"
	}
	return "<module " + m.Name + ">"
}
func (m *Module) Type() string { return "module" }

var _ Value = (*Module)(nil)
