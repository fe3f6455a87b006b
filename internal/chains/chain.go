package chains

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidChain is returned for a chain with no signals, a repeated signal
// type, or a length over the configured maximum.
var ErrInvalidChain = errors.New("invalid chain")

// KeySeparator joins signal types into a chain's map key. Signal type names
// are lowercase identifiers so "|" can never collide.
const KeySeparator = "|"

// Chain is an ordered, duplicate-free tuple of signal types. It is a value
// object: never mutated after construction, compared element-wise.
type Chain struct {
	signalTypes []string
}

// New builds a chain from signal types in temporal order. maxLen <= 0 skips
// the length check.
func New(signalTypes []string, maxLen int) (Chain, error) {
	if len(signalTypes) == 0 {
		return Chain{}, ErrInvalidChain
	}
	if maxLen > 0 && len(signalTypes) > maxLen {
		return Chain{}, ErrInvalidChain
	}
	seen := make(map[string]bool, len(signalTypes))
	for _, st := range signalTypes {
		if st == "" || seen[st] {
			return Chain{}, ErrInvalidChain
		}
		seen[st] = true
	}
	owned := make([]string, len(signalTypes))
	copy(owned, signalTypes)
	return Chain{signalTypes: owned}, nil
}

// ParseKey rebuilds a chain from its Key() form.
func ParseKey(key string, maxLen int) (Chain, error) {
	if key == "" {
		return Chain{}, ErrInvalidChain
	}
	return New(strings.Split(key, KeySeparator), maxLen)
}

func (c Chain) Len() int { return len(c.signalTypes) }

// SignalTypes returns a copy; the chain itself stays immutable.
func (c Chain) SignalTypes() []string {
	out := make([]string, len(c.signalTypes))
	copy(out, c.signalTypes)
	return out
}

// Key is the stable identity used for map lookups and ordering.
func (c Chain) Key() string {
	return strings.Join(c.signalTypes, KeySeparator)
}

// String renders the chain for humans: "customer_frustration → agent_delay".
func (c Chain) String() string {
	return strings.Join(c.signalTypes, " → ")
}

// Equal is element-wise structural equality.
func (c Chain) Equal(other Chain) bool {
	if len(c.signalTypes) != len(other.signalTypes) {
		return false
	}
	for i := range c.signalTypes {
		if c.signalTypes[i] != other.signalTypes[i] {
			return false
		}
	}
	return true
}

// Less is the lexical total order over chains, used as the final tie-break.
func (c Chain) Less(other Chain) bool {
	return c.Key() < other.Key()
}

// Contains reports whether the chain includes the given signal type.
func (c Chain) Contains(signalType string) bool {
	for _, st := range c.signalTypes {
		if st == signalType {
			return true
		}
	}
	return false
}

func (c Chain) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.signalTypes)
}

func (c *Chain) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := New(raw, 0)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
