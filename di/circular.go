package di

// cycleDetector 在“等待中”边构成的图上搜索环路
//
// 边的含义：holder.waiting 中的每个身份都是它正在等待创建完成的
// 依赖。解析器在挂起之前先跑一次检测，检测到环路时立刻返回
// 结构化错误而不是挂起——这是防死锁的正确性保证，不是启发式。
type cycleDetector struct {
	// lookup 在所有在飞持有者中按身份查找
	lookup func(name string) *instanceHolder
}

func newCycleDetector(lookup func(name string) *instanceHolder) *cycleDetector {
	return &cycleDetector{lookup: lookup}
}

// detect 检查 target 是否（传递地）在等待 waiter
// 若是，waiter 再等待 target 就构成环路，返回完整路径；否则返回 nil
func (d *cycleDetector) detect(waiterName, targetName string) *CircularDependencyError {
	if waiterName == targetName {
		// 自引用
		return &CircularDependencyError{Path: []string{waiterName, targetName}}
	}

	visited := make(map[string]struct{})
	path := d.search(targetName, waiterName, visited)
	if path == nil {
		return nil
	}

	// 环路从 waiter 出发，经 target 一路回到 waiter
	cycle := make([]string, 0, len(path)+2)
	cycle = append(cycle, waiterName)
	cycle = append(cycle, path...)
	cycle = append(cycle, waiterName)
	return &CircularDependencyError{Path: cycle}
}

// search 从 from 沿等待边 DFS，寻找 goal，返回 from 到 goal 前一跳的路径
func (d *cycleDetector) search(from, goal string, visited map[string]struct{}) []string {
	if _, seen := visited[from]; seen {
		return nil
	}
	visited[from] = struct{}{}

	holder := d.lookup(from)
	if holder == nil {
		return nil
	}

	for _, next := range holder.waitingOn() {
		if next == goal {
			return []string{from}
		}
		if sub := d.search(next, goal, visited); sub != nil {
			return append([]string{from}, sub...)
		}
	}
	return nil
}
