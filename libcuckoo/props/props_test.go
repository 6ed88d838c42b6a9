package props

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cuckoo-systems/gocuckoo/gocuckoo"
)

func TestRegistryOverflow(t *testing.T) {
	reg := &Registry{}
	for i := 0; i < MaxProperties+1; i++ {
		err := reg.Register(Property{
			Name:         fmt.Sprintf("prop_%d", i),
			Description:  "a tunable",
			DefaultValue: uint32(i),
			MaxValue:     100,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if reg.Count() != MaxProperties {
		t.Fatalf("registry holds %d entries, want %d", reg.Count(), MaxProperties)
	}
}

func TestRegisterTooLong(t *testing.T) {
	reg := &Registry{}
	err := reg.Register(Property{Name: strings.Repeat("n", MaxNameLen+1)})
	if !errors.Is(err, gocuckoo.ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
	err = reg.Register(Property{Name: "ok", Description: strings.Repeat("d", MaxDescLen+1)})
	if !errors.Is(err, gocuckoo.ErrTooLong) {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
	if reg.Count() != 0 {
		t.Fatal("rejected properties were stored")
	}
}

func TestSerializeEmpty(t *testing.T) {
	reg := &Registry{}

	out, err := reg.SerializeJSON(10)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "[]" {
		t.Fatalf("empty registry serialized to %q", out)
	}

	if _, err = reg.SerializeJSON(3); !errors.Is(err, gocuckoo.ErrBufferTooSmall) {
		t.Fatalf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestSerializeEntries(t *testing.T) {
	reg := &Registry{}
	reg.Register(Property{Name: "NUM_THREADS", Description: "worker thread count", DefaultValue: 1, MinValue: 1, MaxValue: 32})
	reg.Register(Property{Name: "NUM_TRIMS", Description: "trimming rounds", DefaultValue: 7, MinValue: 0, MaxValue: 50})

	out, err := reg.SerializeJSON(4096)
	if err != nil {
		t.Fatal(err)
	}

	var entries []struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		DefaultValue uint32 `json:"default_value"`
		MinValue     uint32 `json:"min_value"`
		MaxValue     uint32 `json:"max_value"`
	}
	if err := json.Unmarshal(out, &entries); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "NUM_THREADS" || entries[1].DefaultValue != 7 {
		t.Fatalf("bad serialization: %s", out)
	}

	// A budget too small for the entries themselves.
	if _, err := reg.SerializeJSON(16); !errors.Is(err, gocuckoo.ErrBufferTooSmall) {
		t.Fatalf("expected ErrBufferTooSmall, got %v", err)
	}
}
