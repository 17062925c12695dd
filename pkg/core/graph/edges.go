package graph

// Edge 由邻接表推导出的有向边（不单独存储）
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Key 边的标识 "source-target"
func (e Edge) Key() string {
	return e.Source + "-" + e.Target
}

// DeriveEdges 从节点邻接表推导边集合（纯函数）
// 每个节点的Predecessors和Successors都会产生边，同一条边按Key去重，
// 输出顺序只取决于节点顺序和邻接表顺序。
func DeriveEdges(nodes []Node) []Edge {
	size := 0
	for _, n := range nodes {
		size += len(n.Predecessors) + len(n.Successors)
	}

	edges := make([]Edge, 0, size/2+1)
	seen := make(map[string]struct{}, size)
	add := func(e Edge) {
		k := e.Key()
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		edges = append(edges, e)
	}

	for _, n := range nodes {
		for _, pred := range n.Predecessors {
			add(Edge{Source: pred, Target: n.ID})
		}
		for _, succ := range n.Successors {
			add(Edge{Source: n.ID, Target: succ})
		}
	}
	return edges
}
