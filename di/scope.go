package di

import (
	"github.com/navios-org/navios-sub005/logging"
)

// scopeTracker 检测并执行作用域提升
//
// 当一个单例作用域的消费者在活动请求中依赖了请求作用域的服务，
// 把请求数据泄漏进进程级单例是不可接受的。解决办法是把消费者
// 本身提升为请求作用域：改写注册表、把持有者迁入请求存储并
// 改名，然后把所有引用旧身份的依赖集合原地改写到新身份。
type scopeTracker struct {
	registry *registry
	logger   logging.Logger
}

func newScopeTracker(reg *registry, logger logging.Logger) *scopeTracker {
	return &scopeTracker{registry: reg, logger: logger}
}

// checkAndPromote 条件满足时提升 consumer
// 仅当 consumer 为单例、依赖为请求作用域且存在活动请求时生效，
// 否则是无副作用的 no-op
func (t *scopeTracker) checkAndPromote(consumer *instanceHolder, depScope Scope, singletons *storage, req *RequestContext) (bool, string) {
	if consumer == nil || req == nil {
		return false, ""
	}
	if depScope != ScopeRequest {
		return false, ""
	}

	consumer.mu.Lock()
	if consumer.scope != ScopeSingleton {
		consumer.mu.Unlock()
		return false, ""
	}
	oldName := consumer.name
	newName := spliceRequestID(oldName, req.id)

	// 持有者对象原样迁移：状态、实例、依赖集合、销毁监听器全部保留
	consumer.name = newName
	consumer.scope = ScopeRequest
	consumer.home = req.storage
	tokenID := consumer.token.ID()
	consumer.mu.Unlock()

	// 注册表中该令牌此后按请求作用域解析
	t.registry.setScope(tokenID, ScopeRequest)

	singletons.remove(oldName)
	req.storage.insert(consumer)

	// 两个存储里所有依赖旧身份的持有者都要改写引用，
	// 反向索引与销毁级联布线才能在改名后继续成立
	singletons.rewriteDependency(oldName, newName)
	req.storage.rewriteDependency(oldName, newName)

	t.logger.Debug("promoted singleton to request scope",
		logging.Field{Key: "token", Value: tokenID},
		logging.Field{Key: "from", Value: oldName},
		logging.Field{Key: "to", Value: newName},
		logging.Field{Key: "requestId", Value: req.id})

	return true, newName
}
