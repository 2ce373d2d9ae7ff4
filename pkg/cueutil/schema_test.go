// SPDX-License-Identifier: MPL-2.0

package cueutil_test

import (
	"strings"
	"testing"

	"kernlet/pkg/cueutil"
)

const testSchema = `
#Greeting: {
	name:  string
	count: int & >=0
	extras?: [...string]
}
`

type greeting struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Extras []string `json:"extras,omitempty"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("valid schema compiles", func(t *testing.T) {
		t.Parallel()

		s, err := cueutil.Load(testSchema, "#Greeting")
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}
		if s == nil {
			t.Fatal("Load() returned nil schema")
		}
	})

	t.Run("broken schema source", func(t *testing.T) {
		t.Parallel()

		_, err := cueutil.Load(`#Greeting: {`, "#Greeting")
		if err == nil {
			t.Fatal("Load() with broken source succeeded, want error")
		}
		if !strings.Contains(err.Error(), "compiling schema") {
			t.Errorf("Load() error = %v, want compile failure", err)
		}
	})

	t.Run("missing root definition", func(t *testing.T) {
		t.Parallel()

		_, err := cueutil.Load(testSchema, "#Missing")
		if err == nil {
			t.Fatal("Load() with missing root succeeded, want error")
		}
		if !strings.Contains(err.Error(), "#Missing") {
			t.Errorf("Load() error = %v, want it to name the definition", err)
		}
	})

	t.Run("empty root path", func(t *testing.T) {
		t.Parallel()

		_, err := cueutil.Load(testSchema, "  ")
		if err == nil {
			t.Fatal("Load() with blank root succeeded, want error")
		}
	})
}

func TestMustLoad_PanicsOnBadSchema(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustLoad() with bad schema did not panic")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("panic value = %T, want string", r)
		}
		if !strings.HasPrefix(msg, "cueutil:") {
			t.Errorf("panic message = %q, want cueutil prefix", msg)
		}
	}()

	cueutil.MustLoad(`not valid {`, "#Greeting")
}
