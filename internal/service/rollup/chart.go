package rollup

import (
	"context"
	"fmt"
	"io"

	"github.com/cmlabs-hris/hris-rollup-go/internal/domain/rollup"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	completedColor = drawing.ColorFromHex("22c55e")
	missingColor   = drawing.ColorFromHex("ef4444")
	remainingColor = drawing.ColorFromHex("f59e0b")
	unfilledColor  = drawing.ColorFromHex("e5e7eb")
)

// maxChartBars caps how many direct reports are drawn next to the node.
const maxChartBars = 24

// RenderProgress draws the node's month progress followed by its direct reports as a PNG.
func (s *RollupServiceImpl) RenderProgress(ctx context.Context, req rollup.NodeRequest, w io.Writer) error {
	_, node, _, err := s.findNode(ctx, &req)
	if err != nil {
		return err
	}

	nodes := append([]*rollup.TreeNode{node}, node.Children...)
	if len(nodes) > maxChartBars {
		nodes = nodes[:maxChartBars]
	}
	return renderProgressChart(node.Name, nodes, w)
}

func progressSegment(label string, value float64, color drawing.Color) chart.Value {
	return chart.Value{
		Label: label,
		Value: value,
		Style: chart.Style{
			FillColor:   color,
			StrokeColor: color,
			StrokeWidth: 1,
		},
	}
}

func renderProgressChart(title string, nodes []*rollup.TreeNode, w io.Writer) error {
	if len(nodes) == 0 {
		return rollup.ErrNothingToRender
	}

	bars := make([]chart.StackedBar, 0, len(nodes))
	for _, n := range nodes {
		p := n.Progress
		bars = append(bars, chart.StackedBar{
			Name: n.Initials,
			Values: []chart.Value{
				progressSegment("Completed", p.CompletedPercent, completedColor),
				progressSegment("Missing", p.MissingPercent, missingColor),
				progressSegment("Remaining", p.RemainingPercent, remainingColor),
				progressSegment("Unfilled", p.UnfilledPercent, unfilledColor),
			},
		})
	}

	sbc := chart.StackedBarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Height:     400,
		Width:      80 + 60*len(bars),
		BarSpacing: 20,
		Bars:       bars,
	}

	if err := sbc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render progress chart: %w", err)
	}
	return nil
}
