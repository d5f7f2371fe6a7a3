package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimIsExclusive(t *testing.T) {
	r := NewNameRegistry("")

	require.True(t, r.Claim("alice"))
	require.False(t, r.Claim("alice"), "second claim of a held name must fail")
	require.True(t, r.Claim("bob"))
}

func TestClaimRejectsEmptyName(t *testing.T) {
	r := NewNameRegistry("")

	require.False(t, r.Claim(""))
	require.Empty(t, r.ListActive())
}

func TestFreeAllowsReclaim(t *testing.T) {
	r := NewNameRegistry("")

	require.True(t, r.Claim("alice"))
	r.Free("alice")
	require.True(t, r.Claim("alice"), "freed name must be claimable again")
}

func TestFreeIsIdempotent(t *testing.T) {
	r := NewNameRegistry("")

	r.Free("ghost")
	r.Free("ghost")
	require.Empty(t, r.ListActive())
}

func TestGenerateGuestNameCountsUp(t *testing.T) {
	r := NewNameRegistry("")

	require.Equal(t, "Guest 1", r.GenerateGuestName())
	require.Equal(t, "Guest 2", r.GenerateGuestName())
	require.Equal(t, "Guest 3", r.GenerateGuestName())
}

func TestGenerateGuestNameSkipsClaimedSuffixes(t *testing.T) {
	r := NewNameRegistry("")

	require.True(t, r.Claim("Guest 2"))
	require.Equal(t, "Guest 1", r.GenerateGuestName())
	require.Equal(t, "Guest 3", r.GenerateGuestName(), "Guest 2 is held and must be skipped")
}

func TestGenerateGuestNameIsAlreadyReserved(t *testing.T) {
	r := NewNameRegistry("")

	name := r.GenerateGuestName()
	require.False(t, r.Claim(name), "generated name must be claimed before it is returned")
	require.Contains(t, r.ListActive(), name)
}

func TestGenerateGuestNameCustomPrefix(t *testing.T) {
	r := NewNameRegistry("Visitor ")

	require.Equal(t, "Visitor 1", r.GenerateGuestName())
}

func TestGenerateGuestNameConcurrentUniqueness(t *testing.T) {
	r := NewNameRegistry("")

	const sessions = 50
	names := make(chan string, sessions)
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- r.GenerateGuestName()
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]struct{}, sessions)
	for name := range names {
		_, dup := seen[name]
		require.False(t, dup, "guest name %q handed out twice", name)
		seen[name] = struct{}{}
	}
	require.Len(t, seen, sessions)
}

func TestListActiveSnapshot(t *testing.T) {
	r := NewNameRegistry("")

	require.True(t, r.Claim("alice"))
	require.True(t, r.Claim("bob"))

	active := r.ListActive()
	require.ElementsMatch(t, []string{"alice", "bob"}, active)

	r.Free("alice")
	require.ElementsMatch(t, []string{"alice", "bob"}, active, "snapshot must not track later mutations")
	require.ElementsMatch(t, []string{"bob"}, r.ListActive())
}
