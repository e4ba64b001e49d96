package imagetools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/rs/zerolog/log"
)

const noDescription = "No description"

// Image is the trimmed-down photo returned to callers
type Image struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type photo struct {
	ID   string `json:"id"`
	URLs struct {
		Small string `json:"small"`
	} `json:"urls"`
	AltDescription *string `json:"alt_description"`
}

func (p photo) image() Image {
	desc := noDescription
	if p.AltDescription != nil && *p.AltDescription != "" {
		desc = *p.AltDescription
	}
	return Image{ID: p.ID, URL: p.URLs.Small, Description: desc}
}

// Unsplash is a minimal client for the photo search and collection endpoints
type Unsplash struct {
	baseURL   string
	accessKey string
	client    *http.Client
}

func NewUnsplash(baseURL, accessKey string, timeout time.Duration) *Unsplash {
	return &Unsplash{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		accessKey: accessKey,
		client:    &http.Client{Timeout: timeout},
	}
}

// SearchPhotos runs a keyword search and returns up to count images
func (u *Unsplash) SearchPhotos(ctx context.Context, query string, count int) ([]Image, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))

	var body struct {
		Results []photo `json:"results"`
	}
	if err := u.get(ctx, "/search/photos?"+params.Encode(), &body); err != nil {
		return nil, err
	}
	return images(body.Results), nil
}

// CollectionPhotos returns up to count images of a curated collection
func (u *Unsplash) CollectionPhotos(ctx context.Context, collectionID string, count int) ([]Image, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(count))

	var body []photo
	if err := u.get(ctx, "/collections/"+url.PathEscape(collectionID)+"/photos?"+params.Encode(), &body); err != nil {
		return nil, err
	}
	return images(body), nil
}

func (u *Unsplash) get(ctx context.Context, path string, out interface{}) error {
	if u.accessKey == "" {
		return fmt.Errorf("%w: unsplash access key", apperrors.ErrNotConfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("[Unsplash get] build request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		log.Warn().Int("status", resp.StatusCode).Str("path", req.URL.Path).Msg("unsplash request failed")
		return fmt.Errorf("%w: status %d", apperrors.ErrFetchFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperrors.ErrFetchFailed, err)
	}
	return nil
}

func images(photos []photo) []Image {
	out := make([]Image, 0, len(photos))
	for _, p := range photos {
		out = append(out, p.image())
	}
	return out
}
