package notification

import "github.com/google/wire"

// ProviderSet 通知基础设施 ProviderSet
var ProviderSet = wire.NewSet(
	NewWebSocketPusher,
)
