package di

import "sync"

// storage 一个作用域域的持有者仓库
// 全局（单例）与每个请求各有一个实例
//
// 反向依赖索引（dependency -> dependents）只为批量销毁时 O(1)
// 找到依赖者而存在，随持有者的插入/删除同步维护。
type storage struct {
	mu         sync.RWMutex
	holders    map[string]*instanceHolder
	dependents map[string]map[string]struct{}
}

func newStorage() *storage {
	return &storage{
		holders:    make(map[string]*instanceHolder),
		dependents: make(map[string]map[string]struct{}),
	}
}

func (s *storage) get(name string) *instanceHolder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.holders[name]
}

// insertIfAbsent 单飞插入
// 已存在时返回现有持有者，调用方转为等待者
func (s *storage) insertIfAbsent(h *instanceHolder) (*instanceHolder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.holders[h.name]; ok {
		return existing, false
	}
	s.holders[h.name] = h
	return h, true
}

func (s *storage) insert(h *instanceHolder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holders[h.currentName()] = h
}

func (s *storage) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holders, name)
}

// indexDependencies 持有者创建完成后登记反向依赖边
func (s *storage) indexDependencies(h *instanceHolder) {
	name := h.currentName()
	deps := h.dependencies()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dep := range deps {
		set, ok := s.dependents[dep]
		if !ok {
			set = make(map[string]struct{})
			s.dependents[dep] = set
		}
		set[name] = struct{}{}
	}
}

// dropDependencies 持有者删除时撤销反向依赖边
func (s *storage) dropDependencies(name string, deps []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dep := range deps {
		if set, ok := s.dependents[dep]; ok {
			delete(set, name)
			if len(set) == 0 {
				delete(s.dependents, dep)
			}
		}
	}
	delete(s.dependents, name)
}

// dependentsOf 返回直接依赖 name 的身份集合快照
func (s *storage) dependentsOf(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.dependents[name]
	out := make([]string, 0, len(set))
	for dep := range set {
		out = append(out, dep)
	}
	return out
}

// rewriteDependency 把所有持有者依赖集合中的 oldName 改写为 newName
// 作用域提升改名后调用，保证反向索引与级联布线仍然正确
func (s *storage) rewriteDependency(oldName, newName string) {
	s.mu.Lock()
	holders := make([]*instanceHolder, 0, len(s.holders))
	for _, h := range s.holders {
		holders = append(holders, h)
	}
	s.mu.Unlock()

	var rewritten []string
	for _, h := range holders {
		if h.renameDependency(oldName, newName) {
			rewritten = append(rewritten, h.currentName())
		}
	}

	if len(rewritten) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.dependents[oldName]; ok {
		target, exists := s.dependents[newName]
		if !exists {
			target = make(map[string]struct{})
			s.dependents[newName] = target
		}
		for _, name := range rewritten {
			delete(set, name)
			target[name] = struct{}{}
		}
		if len(set) == 0 {
			delete(s.dependents, oldName)
		}
	} else {
		set := make(map[string]struct{})
		for _, name := range rewritten {
			set[name] = struct{}{}
		}
		s.dependents[newName] = set
	}
}

func (s *storage) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.holders))
	for name := range s.holders {
		out = append(out, name)
	}
	return out
}

func (s *storage) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.holders)
}
