package world

// ItemStack is an item payload: a template reference plus quantity and
// the optional flags that affect stacking identity.
type ItemStack struct {
	ID       string            `json:"id"`
	Quantity int               `json:"quantity"`
	Noted    bool              `json:"noted,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"` // custom authoring properties
}

// SameKind reports whether two stacks hold the same item: template id,
// noted flag and the full authoring-attribute set must all match.
// Quantity is not part of identity.
func (s ItemStack) SameKind(other ItemStack) bool {
	if s.ID != other.ID || s.Noted != other.Noted {
		return false
	}
	if len(s.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range s.Attrs {
		if ov, ok := other.Attrs[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// HasAttrs reports whether the stack carries custom authoring properties.
func (s ItemStack) HasAttrs() bool { return len(s.Attrs) > 0 }

// CopyAttrs returns a defensive copy of the attribute map (nil stays nil).
func (s ItemStack) CopyAttrs() map[string]string {
	if s.Attrs == nil {
		return nil
	}
	out := make(map[string]string, len(s.Attrs))
	for k, v := range s.Attrs {
		out[k] = v
	}
	return out
}
