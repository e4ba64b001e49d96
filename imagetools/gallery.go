package imagetools

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const galleryImagesPerCollection = 10

// Curated collections used for the themed backgrounds
const (
	GamingCollectionID     = "317099"
	AbstractCollectionID   = "4474589"
	TechnologyCollectionID = "8687142"
)

// CollectionFetcher reads photos of a curated collection
type CollectionFetcher interface {
	CollectionPhotos(ctx context.Context, collectionID string, count int) ([]Image, error)
}

type GamingImages struct {
	Gaming     []Image `json:"gaming_images"`
	Abstract   []Image `json:"abstract_backgrounds"`
	Technology []Image `json:"technology_images"`
}

// Gallery loads the themed image sets used across the portal pages
type Gallery struct {
	fetcher CollectionFetcher
}

func NewGallery(fetcher CollectionFetcher) *Gallery {
	return &Gallery{fetcher: fetcher}
}

// GamingImages fetches the three collections concurrently. Any failure fails the whole call.
func (g *Gallery) GamingImages(ctx context.Context) (*GamingImages, error) {
	var out GamingImages
	group, ctx := errgroup.WithContext(ctx)

	fetch := func(collectionID string, dst *[]Image) {
		group.Go(func() error {
			imgs, err := g.fetcher.CollectionPhotos(ctx, collectionID, galleryImagesPerCollection)
			if err != nil {
				return fmt.Errorf("collection %s: %w", collectionID, err)
			}
			*dst = imgs
			return nil
		})
	}
	fetch(GamingCollectionID, &out.Gaming)
	fetch(AbstractCollectionID, &out.Abstract)
	fetch(TechnologyCollectionID, &out.Technology)

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("[Gallery GamingImages] %w", err)
	}
	return &out, nil
}
