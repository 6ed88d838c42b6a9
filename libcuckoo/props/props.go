// Package props holds a plugin's advertised property descriptors in a
// fixed-capacity registry and serializes them as JSON under an explicit
// buffer budget.
package props

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
)

const (
	MaxProperties = 32
	MaxNameLen    = 64
	MaxDescLen    = 256
)

// Property describes one tunable a plugin exposes.
type Property struct {
	Name         string
	Description  string
	DefaultValue uint32
	MinValue     uint32
	MaxValue     uint32
	PerDevice    bool
}

// Registry is an append-only property list, capped at MaxProperties for the
// life of the instance.
type Registry struct {
	mu    sync.Mutex
	props []Property
}

// Register appends the given property.
//
// Over-long fields are rejected rather than truncated.  Once the registry is
// at capacity further registrations are silently dropped -- a documented
// limitation carried over from the plugin ABI, not an error.
func (reg *Registry) Register(p Property) error {
	if len(p.Name) > MaxNameLen || len(p.Description) > MaxDescLen {
		return errors.Wrapf(gocuckoo.ErrTooLong, "property %q", p.Name)
	}
	reg.mu.Lock()
	if len(reg.props) < MaxProperties {
		reg.props = append(reg.props, p)
	}
	reg.mu.Unlock()
	return nil
}

func (reg *Registry) Count() int {
	reg.mu.Lock()
	n := len(reg.props)
	reg.mu.Unlock()
	return n
}

// PerDevice is advertised separately by device enumeration, not in the JSON.
type propertyJSON struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DefaultValue uint32 `json:"default_value"`
	MinValue     uint32 `json:"min_value"`
	MaxValue     uint32 `json:"max_value"`
}

// SerializeJSON renders the registry as a JSON array within bufCap bytes.
// An empty registry yields the two-character array "[]".
func (reg *Registry) SerializeJSON(bufCap int) ([]byte, error) {
	if bufCap <= 3 {
		return nil, errors.Wrapf(gocuckoo.ErrBufferTooSmall, "capacity %d", bufCap)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	buf := make([]byte, 0, bufCap)
	buf = append(buf, '[')

	for i, p := range reg.props {
		entry, err := json.Marshal(propertyJSON{
			Name:         p.Name,
			Description:  p.Description,
			DefaultValue: p.DefaultValue,
			MinValue:     p.MinValue,
			MaxValue:     p.MaxValue,
		})
		if err != nil {
			return nil, err
		}
		needed := len(entry) + 1 // entry plus comma or closing bracket
		if i > 0 {
			needed++
		}
		if len(buf)+needed > bufCap {
			return nil, errors.Wrapf(gocuckoo.ErrBufferTooSmall, "capacity %d", bufCap)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, entry...)
	}

	buf = append(buf, ']')
	return buf, nil
}
