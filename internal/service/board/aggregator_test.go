package board

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainboard "github.com/smallbiznis/boardview/internal/domain/board"
	domainoauth "github.com/smallbiznis/boardview/internal/domain/oauth"
)

var testCred = &domainoauth.AccessCredential{Token: "access", Secret: "secret"}

func TestAggregator_Aggregate(t *testing.T) {
	p := newScriptedProvider()
	p.set("boards/board-1", domainboard.Board{Name: "Release Plan", Desc: "Q3"})
	p.set("boards/board-1/lists", []domainboard.List{
		{ID: "list-1", Name: "Doing"},
		{ID: "list-2", Name: "Done"},
	})
	p.set("lists/list-1/cards", []domainboard.Card{
		{ID: "card-1", Name: "Ship it"},
	})
	p.set("lists/list-2/cards", []domainboard.Card{
		{ID: "card-2", Name: "Review", MemberIDs: []string{"member-b", "member-a"}},
	})
	p.set("members/member-a", domainboard.Member{FullName: "Ada Lovelace", Username: "ada"})
	p.set("members/member-b", domainboard.Member{FullName: "Brian Kernighan", Username: "bwk"})

	agg := NewAggregator(p, 4, zap.NewNop())
	snap, err := agg.Aggregate(context.Background(), testCred, "board-1")
	require.NoError(t, err)

	require.Equal(t, "board-1", snap.Board.ID)
	require.Equal(t, "Release Plan", snap.Board.Name)

	// Lists and cards keep provider order.
	require.Len(t, snap.Lists, 2)
	require.Equal(t, "Doing", snap.Lists[0].Name)
	require.Equal(t, "Done", snap.Lists[1].Name)
	require.Empty(t, snap.Lists[0].Cards[0].Members)

	// Members resolve in idMembers order, not resolution order.
	members := snap.Lists[1].Cards[0].Members
	require.Len(t, members, 2)
	require.Equal(t, "Brian Kernighan", members[0].FullName)
	require.Equal(t, "Ada Lovelace", members[1].FullName)
}

func TestAggregator_Aggregate_DeduplicatesMembers(t *testing.T) {
	p := newScriptedProvider()
	p.set("boards/board-1", domainboard.Board{Name: "Board"})
	p.set("boards/board-1/lists", []domainboard.List{{ID: "list-1", Name: "Only"}})
	p.set("lists/list-1/cards", []domainboard.Card{
		{ID: "card-1", MemberIDs: []string{"member-a"}},
		{ID: "card-2", MemberIDs: []string{"member-a", "member-a"}},
	})
	p.set("members/member-a", domainboard.Member{FullName: "Ada Lovelace", Username: "ada"})

	agg := NewAggregator(p, 4, zap.NewNop())
	snap, err := agg.Aggregate(context.Background(), testCred, "board-1")
	require.NoError(t, err)

	// The same member appears on both cards but is fetched exactly once.
	require.Equal(t, 1, p.calls("members/member-a"))
	require.Equal(t, "Ada Lovelace", snap.Lists[0].Cards[0].Members[0].FullName)
	require.Len(t, snap.Lists[0].Cards[1].Members, 2)
}

func TestAggregator_Aggregate_MemberFetchFailureAborts(t *testing.T) {
	p := newScriptedProvider()
	p.set("boards/board-1", domainboard.Board{Name: "Board"})
	p.set("boards/board-1/lists", []domainboard.List{{ID: "list-1", Name: "Only"}})
	p.set("lists/list-1/cards", []domainboard.Card{
		{ID: "card-1", MemberIDs: []string{"member-a", "member-gone"}},
	})
	p.set("members/member-a", domainboard.Member{FullName: "Ada Lovelace"})
	p.fail("members/member-gone", &domainoauth.ProviderRejectedError{StatusCode: 404, Body: "member not found"})

	agg := NewAggregator(p, 4, zap.NewNop())
	snap, err := agg.Aggregate(context.Background(), testCred, "board-1")

	// No partial result: one failed member sinks the whole aggregation.
	require.Nil(t, snap)
	var rejected *domainoauth.ProviderRejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, 404, rejected.StatusCode)
}

func TestAggregator_Aggregate_MissingBoardID(t *testing.T) {
	agg := NewAggregator(newScriptedProvider(), 4, zap.NewNop())
	_, err := agg.Aggregate(context.Background(), testCred, "")
	require.ErrorIs(t, err, domainoauth.ErrMissingParameter)
}

func TestAggregator_Aggregate_Idempotent(t *testing.T) {
	p := newScriptedProvider()
	p.set("boards/board-1", domainboard.Board{Name: "Board"})
	p.set("boards/board-1/lists", []domainboard.List{{ID: "list-1", Name: "Only"}})
	p.set("lists/list-1/cards", []domainboard.Card{{ID: "card-1", MemberIDs: []string{"member-a"}}})
	p.set("members/member-a", domainboard.Member{FullName: "Ada Lovelace"})

	agg := NewAggregator(p, 2, zap.NewNop())
	first, err := agg.Aggregate(context.Background(), testCred, "board-1")
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background(), testCred, "board-1")
	require.NoError(t, err)

	require.Equal(t, first, second)
	// No implicit caching: the second call issued a fresh round of fetches.
	require.Equal(t, 2, p.calls("boards/board-1"))
}

func TestAggregator_ListBoards(t *testing.T) {
	p := newScriptedProvider()
	p.set("members/me/boards", []domainboard.BoardSummary{
		{ID: "board-1", Name: "Release Plan"},
		{ID: "board-2", Name: "Backlog"},
	})

	agg := NewAggregator(p, 2, zap.NewNop())
	boards, err := agg.ListBoards(context.Background(), testCred)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	require.Equal(t, "Release Plan", boards[0].Name)
}

// ---- Scripted provider fake ----

type scriptedProvider struct {
	mu        sync.Mutex
	responses map[string]any
	failures  map[string]error
	counts    map[string]int
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{
		responses: make(map[string]any),
		failures:  make(map[string]error),
		counts:    make(map[string]int),
	}
}

func (p *scriptedProvider) set(path string, value any) {
	p.responses[path] = value
}

func (p *scriptedProvider) fail(path string, err error) {
	p.failures[path] = err
}

func (p *scriptedProvider) calls(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[path]
}

func (p *scriptedProvider) Get(_ context.Context, _ *domainoauth.AccessCredential, path string, _ []string, out any) error {
	p.mu.Lock()
	p.counts[path]++
	failure := p.failures[path]
	value, ok := p.responses[path]
	p.mu.Unlock()

	if failure != nil {
		return failure
	}
	if !ok {
		return &domainoauth.ProviderRejectedError{StatusCode: 404, Body: "no scripted response for " + path}
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

func (p *scriptedProvider) FetchRequestToken(context.Context) (*domainoauth.RequestToken, error) {
	return nil, &domainoauth.ProviderRejectedError{Body: "not scripted"}
}

func (p *scriptedProvider) AuthorizationURL(tokenID string) string {
	return "https://provider.example/authorize?oauth_token=" + tokenID
}

func (p *scriptedProvider) ExchangeAccessToken(context.Context, *domainoauth.RequestToken, string) (*domainoauth.AccessCredential, error) {
	return nil, &domainoauth.ProviderRejectedError{Body: "not scripted"}
}
