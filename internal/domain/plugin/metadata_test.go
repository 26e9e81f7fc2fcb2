package plugin

import "testing"

func TestMetadataValidate(t *testing.T) {
	meta := Metadata{
		ID:           "aave",
		Name:         "Aave Adapter",
		Version:      "1.0.0",
		Kinds:        []Kind{KindLend, KindWithdraw},
		Chains:       []string{"ethereum"},
		Dependencies: []string{"erc20"},
		APIVersion:   "1.0",
	}

	if err := meta.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if !meta.SupportsKind(KindLend) {
		t.Fatal("expected metadata to support lend")
	}
	if meta.SupportsKind(KindBridge) {
		t.Fatal("did not expect metadata to support bridge")
	}

	invalid := Metadata{}
	if err := invalid.Validate(); err == nil {
		t.Fatal("expected validation error for empty metadata")
	}

	cases := []struct {
		name string
		meta Metadata
	}{
		{
			name: "missing id",
			meta: Metadata{Name: "Aave", Version: "1.0.0", Kinds: []Kind{KindLend}},
		},
		{
			name: "missing kinds",
			meta: Metadata{ID: "aave", Name: "Aave", Version: "1.0.0"},
		},
		{
			name: "missing name",
			meta: Metadata{ID: "aave", Version: "1.0.0", Kinds: []Kind{KindLend}},
		},
		{
			name: "missing version",
			meta: Metadata{ID: "aave", Name: "Aave", Kinds: []Kind{KindLend}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.meta.Validate(); err == nil {
				t.Fatalf("expected validation failure for %s", tc.name)
			}
		})
	}
}
