// Package hotkey maps physical key events to voice actions. Bindings are
// ignored while focus sits inside a text-entry context so typing never
// keys the radio.
package hotkey

import (
	"sync"

	"github.com/samber/lo"

	"voicenet/domain"
)

type Action string

const (
	ActionNone    Action = ""
	ActionPTT     Action = "ptt"
	ActionWhisper Action = "whisper"
)

// FocusContext describes where keyboard focus currently sits.
type FocusContext struct {
	TagName         string
	ContentEditable bool
	WindowFocused   bool
}

var textEntryTags = []string{"input", "textarea", "select"}

// SuppressesHotkeys reports whether key events must be ignored for this
// focus target.
func (f FocusContext) SuppressesHotkeys() bool {
	if f.ContentEditable {
		return true
	}
	return lo.Contains(textEntryTags, f.TagName)
}

// Binder resolves key events against the active profile.
type Binder struct {
	mu      sync.RWMutex
	profile domain.HotkeyProfile
}

func NewBinder() *Binder {
	return &Binder{profile: domain.DefaultHotkeyProfile()}
}

func (b *Binder) SetProfile(profile domain.HotkeyProfile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(profile.Bindings.PTT) == 0 {
		profile.Bindings.PTT = domain.DefaultHotkeyProfile().Bindings.PTT
	}
	b.profile = profile
}

func (b *Binder) Profile() domain.HotkeyProfile {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.profile
}

// Resolve maps a key to an action, honoring the focus context. Unbound
// keys and suppressed contexts resolve to ActionNone.
func (b *Binder) Resolve(key string, focus FocusContext) Action {
	if focus.SuppressesHotkeys() {
		return ActionNone
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if lo.Contains(b.profile.Bindings.PTT, key) {
		return ActionPTT
	}
	if lo.Contains(b.profile.Bindings.Whisper, key) {
		return ActionWhisper
	}
	return ActionNone
}
