package application

import (
	"github.com/google/wire"

	"github.com/docchat/backend/internal/application/chat"
	"github.com/docchat/backend/internal/application/document"
	"github.com/docchat/backend/internal/application/rag"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	rag.ProviderSet,
	chat.ProviderSet,
	document.ProviderSet,
)
