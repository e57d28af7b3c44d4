package watch

import (
	"git.home.luguber.info/inful/themebuilder/internal/layout"
)

// Rule routes changes matching Glob either to a task run or, when Task is
// empty, to the live-reload listener.
type Rule struct {
	Glob string
	Task string
}

// Reload reports whether the rule forwards to the listener.
func (r Rule) Reload() bool { return r.Task == "" }

// DefaultRules returns the fixed routing for a theme: style sources rebuild
// CSS, script sources rebuild the bundle, outputs and templates reload.
func DefaultRules(sassTask, scriptTask string) []Rule {
	rules := []Rule{
		{Glob: layout.SassGlob, Task: sassTask},
		{Glob: layout.LibGlob, Task: scriptTask},
	}
	for _, g := range layout.ReloadGlobs {
		rules = append(rules, Rule{Glob: g})
	}
	return rules
}

// match returns every rule matching rel, in rule order.
func match(rules []Rule, rel string) []Rule {
	var out []Rule
	for _, r := range rules {
		if layout.Match(r.Glob, rel) {
			out = append(out, r)
		}
	}
	return out
}
