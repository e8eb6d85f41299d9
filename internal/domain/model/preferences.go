package model

import "errors"

// Script is a writing system a bhajan's lyrics can be shown in.
type Script string

const (
	ScriptEnglish    Script = "english"
	ScriptKannada    Script = "kannada"
	ScriptDevanagari Script = "devanagari"
)

// ScriptOption describes one selectable script and the bhajan field holding its lyrics.
type ScriptOption struct {
	Value Script `json:"value"`
	Label string `json:"label"`
	Field string `json:"field"`
}

// ScriptOptions lists the selectable scripts in display order.
var ScriptOptions = []ScriptOption{
	{Value: ScriptEnglish, Label: "English", Field: "lyrics"},
	{Value: ScriptKannada, Label: "ಕನ್ನಡ (Kannada)", Field: "lyrics_kannada"},
	{Value: ScriptDevanagari, Label: "देवनागरी (Devanagari)", Field: "lyrics_devanagari"},
}

// Valid reports whether s is a selectable script.
func (s Script) Valid() bool {
	for _, o := range ScriptOptions {
		if o.Value == s {
			return true
		}
	}
	return false
}

// Preferences are per-viewer display settings.
type Preferences struct {
	ShowMeaning    bool     `json:"show_meaning"`
	EnabledScripts []Script `json:"enabled_scripts"`
}

// DefaultPreferences returns the settings a new viewer starts with.
func DefaultPreferences() Preferences {
	return Preferences{ShowMeaning: false, EnabledScripts: []Script{ScriptEnglish}}
}

// IsScriptEnabled reports whether s is currently shown.
func (p Preferences) IsScriptEnabled(s Script) bool {
	for _, e := range p.EnabledScripts {
		if e == s {
			return true
		}
	}
	return false
}

// ToggleScript enables or disables s. The last enabled script cannot be disabled.
func (p Preferences) ToggleScript(s Script) (Preferences, error) {
	if !s.Valid() {
		return p, errors.New("unknown script")
	}
	if !p.IsScriptEnabled(s) {
		p.EnabledScripts = append(append([]Script(nil), p.EnabledScripts...), s)
		return p, nil
	}
	if len(p.EnabledScripts) <= 1 {
		return p, nil
	}
	next := make([]Script, 0, len(p.EnabledScripts)-1)
	for _, e := range p.EnabledScripts {
		if e != s {
			next = append(next, e)
		}
	}
	p.EnabledScripts = next
	return p, nil
}

// WithEnabledScripts replaces the enabled set. Empty or unknown selections are rejected.
func (p Preferences) WithEnabledScripts(scripts []Script) (Preferences, error) {
	if len(scripts) == 0 {
		return p, errors.New("at least one script must be enabled")
	}
	seen := make(map[Script]bool, len(scripts))
	next := make([]Script, 0, len(scripts))
	for _, s := range scripts {
		if !s.Valid() {
			return p, errors.New("unknown script")
		}
		if !seen[s] {
			seen[s] = true
			next = append(next, s)
		}
	}
	p.EnabledScripts = next
	return p, nil
}

// Normalize repairs persisted preferences that no longer satisfy the invariants.
func (p Preferences) Normalize() Preferences {
	if fixed, err := p.WithEnabledScripts(p.EnabledScripts); err == nil {
		return fixed
	}
	p.EnabledScripts = DefaultPreferences().EnabledScripts
	return p
}
