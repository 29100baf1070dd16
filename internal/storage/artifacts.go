package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ArtifactObject maps a remote key to a local path.
type ArtifactObject struct {
	Key       string
	LocalPath string
}

// FetchArtifacts downloads the model artifacts concurrently.
func FetchArtifacts(ctx context.Context, store ObjectStorage, objects ...ArtifactObject) error {
	for _, obj := range objects {
		if obj.Key == "" || obj.LocalPath == "" {
			return fmt.Errorf("artifact key and local path must be provided")
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, obj := range objects {
		g.Go(func() error {
			if err := store.DownloadObject(ctx, obj.Key, obj.LocalPath); err != nil {
				return err
			}
			log.Info().Str("key", obj.Key).Str("path", obj.LocalPath).Msg("artifact downloaded")
			return nil
		})
	}
	return g.Wait()
}
