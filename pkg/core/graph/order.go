package graph

import (
	"errors"
	"fmt"

	"github.com/gammazero/toposort"
)

// ErrCycle 图中存在环
var ErrCycle = errors.New("graph contains a cycle")

// TopologicalOrder 按依赖关系返回节点ID顺序（仅用于展示，不约束执行）
// 指向不存在节点的边会被忽略。
func TopologicalOrder(nodes []Node) ([]string, error) {
	known := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		known[n.ID] = struct{}{}
	}

	edges := make([]toposort.Edge, 0, len(nodes))
	for _, n := range nodes {
		// nil起点保证孤立节点也出现在结果中
		edges = append(edges, toposort.Edge{nil, n.ID})
	}
	for _, e := range DeriveEdges(nodes) {
		_, okSrc := known[e.Source]
		_, okDst := known[e.Target]
		if !okSrc || !okDst {
			continue
		}
		if e.Source == e.Target {
			return nil, fmt.Errorf("node %s: %w", e.Source, ErrCycle)
		}
		edges = append(edges, toposort.Edge{e.Source, e.Target})
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, err)
	}

	order := make([]string, 0, len(nodes))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	return order, nil
}
