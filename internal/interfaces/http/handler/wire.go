package handler

import "github.com/google/wire"

// ProviderSet Handler 层 ProviderSet
var ProviderSet = wire.NewSet(
	NewChatHandler,
	NewFileHandler,
	NewWSHandler,
)
