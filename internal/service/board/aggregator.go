package board

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smallbiznis/boardview/internal/adapter/provider"
	domainboard "github.com/smallbiznis/boardview/internal/domain/board"
	domainoauth "github.com/smallbiznis/boardview/internal/domain/oauth"
)

var (
	boardFields  = []string{"name", "desc", "url"}
	listFields   = []string{"name", "id"}
	cardFields   = []string{"name", "desc", "due", "labels", "idMembers"}
	memberFields = []string{"fullName", "username"}
)

// Aggregator walks the board → lists → cards → members hierarchy and
// assembles one consistent snapshot per call. Any failed fetch aborts the
// whole aggregation; callers never see a partially filled graph.
type Aggregator interface {
	ListBoards(ctx context.Context, cred *domainoauth.AccessCredential) ([]domainboard.BoardSummary, error)
	Aggregate(ctx context.Context, cred *domainoauth.AccessCredential, boardID string) (*domainboard.Snapshot, error)
}

type aggregator struct {
	provider provider.Client
	limit    int
	logger   *zap.Logger
}

// NewAggregator wires the aggregation service. The concurrency limit bounds
// simultaneous provider calls within one aggregation.
func NewAggregator(providerClient provider.Client, concurrency int, logger *zap.Logger) Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &aggregator{
		provider: providerClient,
		limit:    concurrency,
		logger:   logger,
	}
}

// ListBoards returns the authenticated user's boards.
func (a *aggregator) ListBoards(ctx context.Context, cred *domainoauth.AccessCredential) ([]domainboard.BoardSummary, error) {
	var boards []domainboard.BoardSummary
	if err := a.provider.Get(ctx, cred, "members/me/boards", listFields, &boards); err != nil {
		return nil, fmt.Errorf("fetch boards: %w", err)
	}
	return boards, nil
}

// Aggregate fetches the board, its lists, each list's cards, and every
// referenced member. Lists and cards keep provider order; members keep the
// order their ids appear on each card. Each distinct member id is fetched at
// most once per call.
func (a *aggregator) Aggregate(ctx context.Context, cred *domainoauth.AccessCredential, boardID string) (*domainboard.Snapshot, error) {
	if boardID == "" {
		return nil, domainoauth.ErrMissingParameter
	}

	var b domainboard.Board
	if err := a.provider.Get(ctx, cred, "boards/"+boardID, boardFields, &b); err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}
	b.ID = boardID

	var lists []domainboard.List
	if err := a.provider.Get(ctx, cred, "boards/"+boardID+"/lists", listFields, &lists); err != nil {
		return nil, fmt.Errorf("fetch lists: %w", err)
	}

	if err := a.fetchCards(ctx, cred, lists); err != nil {
		return nil, err
	}
	if err := a.resolveMembers(ctx, cred, lists); err != nil {
		return nil, err
	}

	a.log().Debug("aggregated board",
		zap.String("board_id", boardID),
		zap.Int("lists", len(lists)))

	return &domainboard.Snapshot{Board: b, Lists: lists}, nil
}

// fetchCards loads every list's cards. Lists have no ordering dependency on
// each other, so the fan-out runs concurrently up to the configured limit.
func (a *aggregator) fetchCards(ctx context.Context, cred *domainoauth.AccessCredential, lists []domainboard.List) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for i := range lists {
		i := i
		g.Go(func() error {
			var cards []domainboard.Card
			if err := a.provider.Get(ctx, cred, "lists/"+lists[i].ID+"/cards", cardFields, &cards); err != nil {
				return fmt.Errorf("fetch cards for list %s: %w", lists[i].ID, err)
			}
			lists[i].Cards = cards
			return nil
		})
	}
	return g.Wait()
}

// resolveMembers fetches each distinct member id referenced by any card
// exactly once, then attaches the resolved records per card in idMembers
// order.
func (a *aggregator) resolveMembers(ctx context.Context, cred *domainoauth.AccessCredential, lists []domainboard.List) error {
	distinct := make(map[string]struct{})
	for _, list := range lists {
		for _, card := range list.Cards {
			for _, id := range card.MemberIDs {
				distinct[id] = struct{}{}
			}
		}
	}
	if len(distinct) == 0 {
		return nil
	}

	var mu sync.Mutex
	resolved := make(map[string]domainboard.Member, len(distinct))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.limit)
	for id := range distinct {
		id := id
		g.Go(func() error {
			var member domainboard.Member
			if err := a.provider.Get(ctx, cred, "members/"+id, memberFields, &member); err != nil {
				return fmt.Errorf("fetch member %s: %w", id, err)
			}
			member.ID = id
			mu.Lock()
			resolved[id] = member
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for li := range lists {
		for ci := range lists[li].Cards {
			card := &lists[li].Cards[ci]
			if len(card.MemberIDs) == 0 {
				continue
			}
			card.Members = make([]domainboard.Member, 0, len(card.MemberIDs))
			for _, id := range card.MemberIDs {
				card.Members = append(card.Members, resolved[id])
			}
		}
	}
	return nil
}

func (a *aggregator) log() *zap.Logger {
	if a != nil && a.logger != nil {
		return a.logger
	}
	return zap.L()
}
