package plugin

import "testing"

func TestIsKnownKind(t *testing.T) {
	if !IsKnownKind(KindLend) {
		t.Fatal("expected lend to be a known kind")
	}
	if IsKnownKind(Kind("teleport")) {
		t.Fatal("did not expect an adapter-specific verb to be known")
	}
}
