package handler

import (
	"context"

	"bucketfront/internal/app/files"
	"bucketfront/internal/app/storage"
	"bucketfront/internal/configs"
)

// ObjectGetter is implemented by backends that can serve object content directly,
// such as storage.MemoryBackend.
type ObjectGetter interface {
	Get(ctx context.Context, bucket, key string) (storage.Object, error)
}

type AppDeps struct {
	Config *configs.AppConfig
	Files  *files.Service

	// Objects is set when the backend cannot be reached by clients on its own
	// (the memory driver); the router then serves /objects from it.
	Objects ObjectGetter
}
