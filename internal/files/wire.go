package files

import "github.com/google/wire"

var Set = wire.NewSet(
	NewLocalStorage,
	wire.Bind(new(Storage), new(*LocalStorage)),
	NewAttachmentService,
	NewJSONHandler,
)
