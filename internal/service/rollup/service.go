package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/sse"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Options tunes the rollup service. Zero values fall back to sensible defaults.
type Options struct {
	SnapshotTTL        time.Duration
	MaxLimit           int
	RefreshConcurrency int
	// LoadTimeout bounds a repository read shared by concurrent requests.
	LoadTimeout time.Duration
	Now         func() time.Time
}

type RollupServiceImpl struct {
	repo  rollup.SnapshotRepository
	hub   *sse.Hub
	names NameCollator
	store *snapshotStore
	loads singleflight.Group
	opts  Options
}

func NewRollupService(repo rollup.SnapshotRepository, hub *sse.Hub, names NameCollator, opts Options) rollup.RollupService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RefreshConcurrency <= 0 {
		opts.RefreshConcurrency = 4
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	return &RollupServiceImpl{
		repo:  repo,
		hub:   hub,
		names: names,
		store: newSnapshotStore(opts.SnapshotTTL),
		opts:  opts,
	}
}

// getCompanyID extracts company_id from JWT claims
func (s *RollupServiceImpl) getCompanyID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", rollup.ErrCompanyIDRequired
	}
	return companyID, nil
}

// snapshot returns the cached snapshot for the company and month, loading it on a miss.
// Concurrent misses for the same key share a single load.
func (s *RollupServiceImpl) snapshot(ctx context.Context, companyID string, period rollup.Period) (*Snapshot, error) {
	key := snapshotKey{companyID: companyID, period: period}
	if snap, ok := s.store.get(key, s.opts.Now()); ok {
		return snap, nil
	}

	ch := s.loads.DoChan(companyID+"|"+period.String(), func() (any, error) {
		if snap, ok := s.store.get(key, s.opts.Now()); ok {
			return snap, nil
		}
		// shared by every waiter, so it must outlive the caller that started it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
		defer cancel()
		return s.load(loadCtx, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load always reads from the repository. The result only replaces the cache when no newer load won.
func (s *RollupServiceImpl) load(ctx context.Context, key snapshotKey) (*Snapshot, error) {
	seq := s.store.begin()

	records, err := s.repo.GetEmployeeSummaries(ctx, key.companyID, key.period.Year, key.period.Month)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rollup.ErrSnapshotUnavailable, err)
	}

	snap, err := newSnapshot(key.companyID, key.period, records, s.names, s.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	stored, replaced := s.store.put(key, seq, snap)
	if !replaced {
		slog.Debug("rollup snapshot superseded",
			"company_id", key.companyID,
			"period", key.period.String(),
			"discarded_snapshot_id", snap.ID,
			"current_snapshot_id", stored.ID,
		)
		return stored, nil
	}

	slog.Info("rollup snapshot loaded",
		"company_id", key.companyID,
		"period", key.period.String(),
		"snapshot_id", stored.ID,
		"employees", len(records),
	)
	s.publish(stored)
	return stored, nil
}

func (s *RollupServiceImpl) publish(snap *Snapshot) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(snap.CompanyID, sse.Event{
		Topic: snap.CompanyID,
		Event: rollup.EventSnapshotReplaced,
		Data:  snap.Info(),
	})
}

func (s *RollupServiceImpl) treeResponse(snapshotID string, period rollup.Period, forest []*rollup.TreeNode, state ExpansionState, now time.Time) rollup.TreeResponse {
	return rollup.TreeResponse{
		SnapshotID:      snapshotID,
		Period:          period.String(),
		GeneratedAt:     now.Format(time.RFC3339),
		ElapsedWorkDays: ElapsedWorkDays(now),
		TotalNodes:      CountNodes(forest),
		Roots:           forest,
		Expanded:        state.IDs(),
		Rollups:         ComputeRollups(forest, state, now),
	}
}

func (s *RollupServiceImpl) GetTree(ctx context.Context, req rollup.TreeRequest) (rollup.TreeResponse, error) {
	companyID, err := s.getCompanyID(ctx)
	if err != nil {
		return rollup.TreeResponse{}, err
	}

	now := s.opts.Now()
	if err := req.Validate(now); err != nil {
		return rollup.TreeResponse{}, err
	}

	snap, err := s.snapshot(ctx, companyID, req.ResolvedPeriod)
	if err != nil {
		return rollup.TreeResponse{}, err
	}

	state := ResolveExpansion(snap.Forest, req.Expand, req.Expanded, req.Toggle)
	return s.treeResponse(snap.ID, snap.Period, snap.Forest, state, now), nil
}

func (s *RollupServiceImpl) PreviewTree(ctx context.Context, req rollup.PreviewRequest) (rollup.TreeResponse, error) {
	if err := req.Validate(); err != nil {
		return rollup.TreeResponse{}, err
	}

	now := s.opts.Now()
	forest := BuildForest(req.Records, s.names)
	state := ResolveExpansion(forest, req.Expand, req.Expanded, nil)
	return s.treeResponse("", rollup.PeriodOf(now), forest, state, now), nil
}

func (s *RollupServiceImpl) GetNode(ctx context.Context, req rollup.NodeRequest) (rollup.NodeResponse, error) {
	snap, node, path, err := s.findNode(ctx, &req)
	if err != nil {
		return rollup.NodeResponse{}, err
	}

	resp := rollup.NodeResponse{
		SnapshotID: snap.ID,
		Period:     snap.Period.String(),
		Node:       node,
		Path:       path,
	}
	if node.HasChildren() {
		avg := GroupAverage(node.Children, s.opts.Now())
		resp.Rollup = &avg
	}
	return resp, nil
}

func (s *RollupServiceImpl) findNode(ctx context.Context, req *rollup.NodeRequest) (*Snapshot, *rollup.TreeNode, []string, error) {
	companyID, err := s.getCompanyID(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := req.Validate(s.opts.Now()); err != nil {
		return nil, nil, nil, err
	}

	snap, err := s.snapshot(ctx, companyID, req.ResolvedPeriod)
	if err != nil {
		return nil, nil, nil, err
	}

	node, path, ok := FindNode(snap.Forest, req.NodeID)
	if !ok {
		return nil, nil, nil, rollup.ErrNodeNotFound
	}
	return snap, node, path, nil
}

func (s *RollupServiceImpl) GetLeaderboard(ctx context.Context, req rollup.LeaderboardRequest) (rollup.LeaderboardResponse, error) {
	snap, view, sortState, err := s.leaderboard(ctx, &req)
	if err != nil {
		return rollup.LeaderboardResponse{}, err
	}

	return rollup.LeaderboardResponse{
		SnapshotID:    snap.ID,
		Period:        snap.Period.String(),
		Sort:          sortState,
		TotalRows:     view.Total,
		FilteredRows:  view.Filtered,
		Rows:          view.Rows,
		TeamAverage:   view.TeamAverage,
		GeneratedAt:   s.opts.Now().Format(time.RFC3339),
		AvailableKeys: rollup.SortKeys,
	}, nil
}

func (s *RollupServiceImpl) leaderboard(ctx context.Context, req *rollup.LeaderboardRequest) (*Snapshot, LeaderboardView, rollup.SortState, error) {
	companyID, err := s.getCompanyID(ctx)
	if err != nil {
		return nil, LeaderboardView{}, rollup.SortState{}, err
	}
	if err := req.Validate(s.opts.Now(), s.opts.MaxLimit); err != nil {
		return nil, LeaderboardView{}, rollup.SortState{}, err
	}

	snap, err := s.snapshot(ctx, companyID, req.ResolvedPeriod)
	if err != nil {
		return nil, LeaderboardView{}, rollup.SortState{}, err
	}

	sortState := req.SortState()
	view := BuildLeaderboard(snap.Records, LeaderboardQuery{
		Sort:       sortState,
		Department: req.Department,
		Search:     req.Search,
		Limit:      req.Limit,
	}, s.names)
	return snap, view, sortState, nil
}

func (s *RollupServiceImpl) Refresh(ctx context.Context, req rollup.RefreshRequest) (rollup.SnapshotInfo, error) {
	companyID, err := s.getCompanyID(ctx)
	if err != nil {
		return rollup.SnapshotInfo{}, err
	}

	tree := rollup.TreeRequest{Period: req.Period}
	if err := tree.Validate(s.opts.Now()); err != nil {
		return rollup.SnapshotInfo{}, err
	}

	snap, err := s.load(ctx, snapshotKey{companyID: companyID, period: tree.ResolvedPeriod})
	if err != nil {
		return rollup.SnapshotInfo{}, err
	}
	return snap.Info(), nil
}

// RefreshAll reloads every snapshot still in the cache. Expired entries are dropped instead.
func (s *RollupServiceImpl) RefreshAll(ctx context.Context) error {
	if evicted := s.store.evictExpired(s.opts.Now()); evicted > 0 {
		slog.Info("evicted expired rollup snapshots", "count", evicted)
	}

	keys := s.store.keys()
	if len(keys) == 0 {
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.RefreshConcurrency)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			if _, err := s.load(gCtx, key); err != nil {
				return fmt.Errorf("refresh %s/%s: %w", key.companyID, key.period.String(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Subscribe creates an SSE subscription for a company
func (s *RollupServiceImpl) Subscribe(ctx context.Context, companyID string) (<-chan rollup.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(companyID)

	out := make(chan rollup.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				if info, ok := event.Data.(rollup.SnapshotInfo); ok {
					select {
					case out <- rollup.SSEEvent{Event: event.Event, Data: info}:
					case <-ctx.Done():
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}
