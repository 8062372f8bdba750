package privacy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPseudonymizeDeterministic(t *testing.T) {
	p := NewPseudonymizer("test-salt")

	first := p.Pseudonymize("S001")
	second := p.Pseudonymize("S001")
	require.Equal(t, first, second)
}

func TestPseudonymizeFixedLengthAndOpaque(t *testing.T) {
	p := NewPseudonymizer("test-salt")

	short := p.Pseudonymize("a")
	long := p.Pseudonymize("a-much-longer-identifier-with-many-characters")
	require.Len(t, short, 16)
	require.Len(t, long, 16)
	require.NotEqual(t, "a", short)
	require.NotEqual(t, short, long)
}

func TestPseudonymizeSaltSeparatesSpaces(t *testing.T) {
	require.NotEqual(t,
		NewPseudonymizer("salt-a").Pseudonymize("S001"),
		NewPseudonymizer("salt-b").Pseudonymize("S001"),
	)
}
