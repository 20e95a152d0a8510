package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_Precedence(t *testing.T) {
	t.Parallel()

	l := Layered{
		Scope: Scope{Template: "G"},
		Forms: map[string]Scope{"5": {Template: "D"}},
	}
	r := NewResolver(l, map[string]any{PathTemplate: "default.html"})

	assert.Equal(t, "D", r.String(PathTemplate, "5"))
	assert.Equal(t, "G", r.String(PathTemplate, "6"))

	_, layer := r.Lookup(PathTemplate, "5")
	assert.Equal(t, LayerDestination, layer)
	_, layer = r.Lookup(PathTemplate, "6")
	assert.Equal(t, LayerGlobal, layer)
}

func TestResolver_DefaultWhenEmpty(t *testing.T) {
	t.Parallel()

	l := Layered{Forms: map[string]Scope{"5": {Template: "  "}}}
	r := NewResolver(l, map[string]any{PathTemplate: "default.html"})

	v, layer := r.Lookup(PathTemplate, "5")
	assert.Equal(t, "default.html", v)
	assert.Equal(t, LayerDefault, layer)
	assert.Equal(t, "", r.String(PathNotificationSubject, "5"))
	assert.Equal(t, "", r.String("no.such.path", "5"))
}

func TestResolver_NotificationPaths(t *testing.T) {
	t.Parallel()

	l := Layered{
		Scope: Scope{Notification: NotificationScope{Subject: "global subject", Template: "n.html"}},
		Forms: map[string]Scope{"9": {Notification: NotificationScope{Subject: "form subject"}}},
	}
	r := NewResolver(l, nil)

	assert.Equal(t, "form subject", r.String(PathNotificationSubject, "9"))
	assert.Equal(t, "global subject", r.String(PathNotificationSubject, "1"))
	assert.Equal(t, "n.html", r.String(PathNotificationTemplate, "9"))
}

func boolPtr(b bool) *bool { return &b }

func TestResolver_Bool(t *testing.T) {
	t.Parallel()

	l := Layered{Forms: map[string]Scope{"5": {SkipAttachments: boolPtr(true)}}}
	r := NewResolver(l, nil)

	assert.True(t, r.Bool(PathSkipAttachments, "5"))
	assert.False(t, r.Bool(PathSkipAttachments, "6"))
	assert.False(t, r.Bool(PathTemplate, "5"))
}

func TestResolver_ExplicitFalseOverridesGlobal(t *testing.T) {
	t.Parallel()

	l := Layered{
		Scope: Scope{SkipAttachments: boolPtr(true)},
		Forms: map[string]Scope{
			"5": {SkipAttachments: boolPtr(false)},
			"6": {Template: "t.html"},
		},
	}
	r := NewResolver(l, nil)

	v, layer := r.Lookup(PathSkipAttachments, "5")
	assert.Equal(t, false, v)
	assert.Equal(t, LayerDestination, layer)
	assert.False(t, r.Bool(PathSkipAttachments, "5"))

	v, layer = r.Lookup(PathSkipAttachments, "6")
	assert.Equal(t, true, v)
	assert.Equal(t, LayerGlobal, layer)
}

func TestResolver_CopiesFlagPointers(t *testing.T) {
	t.Parallel()

	skip := true
	r := NewResolver(Layered{Scope: Scope{SkipAttachments: &skip}}, nil)

	skip = false
	assert.True(t, r.Bool(PathSkipAttachments, "5"))
}

func TestResolver_DoesNotShareInput(t *testing.T) {
	t.Parallel()

	forms := map[string]Scope{"5": {From: "a@example.com"}}
	r := NewResolver(Layered{Forms: forms}, nil)

	forms["5"] = Scope{From: "changed@example.com"}
	assert.Equal(t, "a@example.com", r.String(PathFrom, "5"))
	assert.Equal(t, r.String(PathFrom, "5"), r.String(PathFrom, "5"))
}
