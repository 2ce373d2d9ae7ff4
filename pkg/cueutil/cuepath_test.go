// SPDX-License-Identifier: MPL-2.0

package cueutil_test

import (
	"errors"
	"testing"

	"kernlet/pkg/cueutil"
)

func TestCUEPathValidate(t *testing.T) {
	t.Parallel()

	valid := []cueutil.CUEPath{"#Seed", "filesystem.backend", "dirs[0]"}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", p, err)
		}
	}

	invalid := []cueutil.CUEPath{"", "   ", "\t\n"}
	for _, p := range invalid {
		err := p.Validate()
		if err == nil {
			t.Errorf("Validate(%q) = nil, want error", p)
			continue
		}
		if !errors.Is(err, cueutil.ErrInvalidCUEPath) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidCUEPath in chain", p, err)
		}
	}

	if got := cueutil.CUEPath("files[0].path").String(); got != "files[0].path" {
		t.Errorf("String() = %q, want the path back", got)
	}
}
