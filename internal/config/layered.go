package config

import "strings"

// Setting paths understood by the Resolver.
const (
	PathTemplate             = "template"
	PathFrom                 = "from"
	PathSkipAttachments      = "skip_attachments"
	PathNotificationTemplate = "notification.template"
	PathNotificationSubject  = "notification.subject"
)

// Scope is one layer of mail settings.
type Scope struct {
	Template        string            `yaml:"template"`
	From            string            `yaml:"from"`
	SkipAttachments *bool             `yaml:"skip_attachments"`
	Notification    NotificationScope `yaml:"notification"`
}

// NotificationScope holds settings for the acknowledgement email.
type NotificationScope struct {
	Template string `yaml:"template"`
	Subject  string `yaml:"subject"`
}

// Layered is the global mail scope plus per-form override scopes keyed by
// form ID.
type Layered struct {
	Scope `yaml:",inline"`
	Forms map[string]Scope `yaml:"forms"`
}

// Layer identifies which scope supplied a resolved value.
type Layer int

const (
	LayerDefault Layer = iota
	LayerGlobal
	LayerDestination
)

func (l Layer) String() string {
	switch l {
	case LayerGlobal:
		return "global"
	case LayerDestination:
		return "destination"
	default:
		return "default"
	}
}

var scopeGetters = map[string]func(Scope) any{
	PathTemplate:             func(s Scope) any { return s.Template },
	PathFrom:                 func(s Scope) any { return s.From },
	PathSkipAttachments:      skipAttachments,
	PathNotificationTemplate: func(s Scope) any { return s.Notification.Template },
	PathNotificationSubject:  func(s Scope) any { return s.Notification.Subject },
}

func (s Scope) clone() Scope {
	if s.SkipAttachments != nil {
		v := *s.SkipAttachments
		s.SkipAttachments = &v
	}
	return s
}

// skipAttachments returns nil when the flag is unset so the next layer is
// consulted.
func skipAttachments(s Scope) any {
	if s.SkipAttachments == nil {
		return nil
	}
	return *s.SkipAttachments
}

// Resolver resolves settings with per-form overrides taking precedence over
// global values, which take precedence over built-in defaults. It never
// modifies the Layered value it was built from and is safe for concurrent use.
type Resolver struct {
	layered  Layered
	defaults map[string]any
}

// NewResolver creates a Resolver. defaults maps setting paths to built-in
// values used when neither layer sets the path.
func NewResolver(l Layered, defaults map[string]any) *Resolver {
	forms := make(map[string]Scope, len(l.Forms))
	for id, s := range l.Forms {
		forms[id] = s.clone()
	}
	l.Forms = forms
	l.Scope = l.Scope.clone()

	d := make(map[string]any, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return &Resolver{layered: l, defaults: d}
}

// Lookup returns the effective value of path for the given destination and
// the layer that supplied it. Unknown paths resolve to their default.
func (r *Resolver) Lookup(path, destination string) (any, Layer) {
	get, ok := scopeGetters[path]
	if ok {
		if s, found := r.layered.Forms[destination]; found {
			if v := get(s); !isEmpty(v) {
				return v, LayerDestination
			}
		}
		if v := get(r.layered.Scope); !isEmpty(v) {
			return v, LayerGlobal
		}
	}
	return r.defaults[path], LayerDefault
}

// String resolves path as a string. Non-string values yield "".
func (r *Resolver) String(path, destination string) string {
	v, _ := r.Lookup(path, destination)
	s, _ := v.(string)
	return s
}

// Bool resolves path as a bool. Non-bool values yield false.
func (r *Resolver) Bool(path, destination string) bool {
	v, _ := r.Lookup(path, destination)
	b, _ := v.(bool)
	return b
}

// isEmpty reports whether v counts as unset: nil, blank strings and empty
// maps. An explicit false is a value.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
