package rollup

import (
	"context"
	"io"
)

// RollupService defines the organizational rollup operations (companyID from JWT)
type RollupService interface {
	// GetTree returns the sorted management forest with rollups for the expanded nodes
	GetTree(ctx context.Context, req TreeRequest) (TreeResponse, error)

	// PreviewTree builds a tree view from a supplied snapshot without touching the database
	PreviewTree(ctx context.Context, req PreviewRequest) (TreeResponse, error)

	// GetNode returns a single node with its subtree, ancestor path and rollup
	GetNode(ctx context.Context, req NodeRequest) (NodeResponse, error)

	// GetLeaderboard returns the flat sorted view with its team average footer
	GetLeaderboard(ctx context.Context, req LeaderboardRequest) (LeaderboardResponse, error)

	// ExportLeaderboard writes the leaderboard view as an XLSX workbook and describes the exported snapshot
	ExportLeaderboard(ctx context.Context, req LeaderboardRequest, w io.Writer) (SnapshotInfo, error)

	// RenderProgress writes a PNG chart of the node and its direct reports
	RenderProgress(ctx context.Context, req NodeRequest, w io.Writer) error

	// Refresh reloads the caller's snapshot and notifies stream subscribers
	Refresh(ctx context.Context, req RefreshRequest) (SnapshotInfo, error)

	// RefreshAll reloads every cached snapshot (cron)
	RefreshAll(ctx context.Context) error

	// Subscribe creates an SSE subscription for a company
	Subscribe(ctx context.Context, companyID string) (<-chan SSEEvent, func())
}
