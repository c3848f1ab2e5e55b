package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"
)

const (
	maxManifestBytes = 1 << 20
	maxParallelFetch = 4
)

// weightManifest is the face-api weights manifest format: groups of shard
// paths relative to the manifest.
type weightManifest []struct {
	Paths []string `json:"paths"`
}

// FetchModels downloads every manifest and every shard it lists. Any failure
// fails the whole load.
func FetchModels(ctx context.Context, client *http.Client, baseURL string, manifests []string) error {
	if len(manifests) == 0 {
		return fmt.Errorf("no model manifests configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetch)
	for _, name := range manifests {
		name := name
		g.Go(func() error {
			return fetchManifest(gctx, client, baseURL, name)
		})
	}
	return g.Wait()
}

func fetchManifest(ctx context.Context, client *http.Client, baseURL, name string) error {
	manifestURL, err := url.JoinPath(baseURL, name)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", name, err)
	}

	body, err := fetch(ctx, client, manifestURL)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", name, err)
	}
	defer body.Close()

	var manifest weightManifest
	if err := json.NewDecoder(io.LimitReader(body, maxManifestBytes)).Decode(&manifest); err != nil {
		return fmt.Errorf("manifest %s: malformed: %w", name, err)
	}
	if len(manifest) == 0 {
		return fmt.Errorf("manifest %s: no weight groups", name)
	}

	for _, group := range manifest {
		for _, shard := range group.Paths {
			if err := fetchShard(ctx, client, baseURL, shard); err != nil {
				return fmt.Errorf("manifest %s: %w", name, err)
			}
		}
	}
	return nil
}

func fetchShard(ctx context.Context, client *http.Client, baseURL, shard string) error {
	shardURL, err := url.JoinPath(baseURL, shard)
	if err != nil {
		return fmt.Errorf("shard %s: %w", shard, err)
	}
	body, err := fetch(ctx, client, shardURL)
	if err != nil {
		return fmt.Errorf("shard %s: %w", shard, err)
	}
	defer body.Close()

	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return fmt.Errorf("shard %s: %w", shard, err)
	}
	if n == 0 {
		return fmt.Errorf("shard %s: empty", shard)
	}
	return nil
}

func fetch(ctx context.Context, client *http.Client, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", target, resp.Status)
	}
	return resp.Body, nil
}
