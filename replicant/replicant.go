// Package replicant talks to an auto-replicant origin: the remote node a
// joining node replicates its initial state from.
//
// The origin exposes two read-only endpoints: /api/v1/bootstrap serves the
// raw bootstrap artifact and /api/v1/visa serves the origin's node info.
package replicant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"quarzo.network/launcher/identity"
	"quarzo.network/launcher/storage"
)

const (
	bootstrapEndpoint = "/api/v1/bootstrap"
	visaEndpoint      = "/api/v1/visa"

	// Bootstrap artifacts are small genesis blobs; cap reads defensively.
	maxArtifactSize = 64 << 20

	defaultTimeout = 30 * time.Second
)

// Visa is the identity card an origin publishes about itself.
type Visa struct {
	NodeVersion string `json:"node_version"`
	CoreVersion string `json:"core_version"`
	AccountID   string `json:"account_id,omitempty"`
}

// Client fetches bootstrap material from an origin.
type Client struct {
	// HTTP optionally overrides the transport. Defaults to a client with a
	// 30s timeout.
	HTTP *http.Client
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: defaultTimeout}
}

// FetchBootstrap downloads the origin's bootstrap artifact, derives its
// network identity, and stores it in store. It returns the stored artifact.
func (c *Client) FetchBootstrap(ctx context.Context, origin string, store *storage.Store) (*identity.Artifact, error) {
	b, err := c.get(ctx, origin, bootstrapEndpoint)
	if err != nil {
		return nil, err
	}

	id, err := store.Put(b)
	if err != nil {
		return nil, fmt.Errorf("replicant: storing bootstrap artifact: %w", err)
	}
	return &identity.Artifact{Path: store.PathFor(id), Bytes: b, Identity: id}, nil
}

// Visa fetches the origin's node info.
func (c *Client) Visa(ctx context.Context, origin string) (*Visa, error) {
	b, err := c.get(ctx, origin, visaEndpoint)
	if err != nil {
		return nil, err
	}
	var v Visa
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("replicant: malformed visa from %s: %w", origin, err)
	}
	return &v, nil
}

func (c *Client) get(ctx context.Context, origin, endpoint string) ([]byte, error) {
	url := strings.TrimRight(origin, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("replicant: %w", err)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicant: GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("replicant: GET %s: status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
	if err != nil {
		return nil, fmt.Errorf("replicant: GET %s: %w", url, err)
	}
	return b, nil
}

// CheckVersions compares local node and core versions against the origin's
// visa and warns on skew. Version skew never fails a join; an operator can
// act on the warning after the fact.
func CheckVersions(log *slog.Logger, localNode, localCore string, visa *Visa) {
	compare(log, "node", localNode, visa.NodeVersion)
	compare(log, "core", localCore, visa.CoreVersion)
}

func compare(log *slog.Logger, what, local, remote string) {
	lv, err := semver.NewVersion(local)
	if err != nil {
		log.Warn("unparseable local version", "component", what, "version", local)
		return
	}
	rv, err := semver.NewVersion(remote)
	if err != nil {
		log.Warn("unparseable origin version", "component", what, "version", remote)
		return
	}
	switch {
	case lv.LessThan(rv):
		log.Warn("local version behind origin", "component", what, "local", local, "origin", remote)
	case lv.GreaterThan(rv):
		log.Warn("local version ahead of origin", "component", what, "local", local, "origin", remote)
	}
}
