// Package ghmirror implements the Mirror gateway on a GitHub repository.
//
// Each collection maps to one file in the repository. Push reads the
// current blob SHA and commits the new snapshot over it; Fetch returns
// the decoded file contents. Every call is best-effort from the ledgers'
// perspective: failures are logged by the mirror queue, never surfaced.
package ghmirror

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"

	"github.com/warp/crewdesk/store"
)

// Config locates the mirror file. All fields are required; use
// Config.Enabled before constructing a client.
type Config struct {
	Owner string
	Repo  string
	Path  string
	Token string
}

// Enabled reports whether all mirror coordinates are present.
func (c Config) Enabled() bool {
	return c.Owner != "" && c.Repo != "" && c.Path != "" && c.Token != ""
}

type Client struct {
	gh  *github.Client
	cfg Config
}

func New(cfg Config) *Client {
	return &Client{
		gh:  github.NewClient(nil).WithAuthToken(cfg.Token),
		cfg: cfg,
	}
}

// Push commits the snapshot to the mirror file, creating it on first use.
func (c *Client) Push(ctx context.Context, data []byte) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Update %s", c.cfg.Path)),
		Content: data,
	}

	file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.cfg.Owner, c.cfg.Repo, c.cfg.Path, nil)
	switch {
	case err == nil && file != nil:
		opts.SHA = file.SHA
		_, _, err = c.gh.Repositories.UpdateFile(ctx, c.cfg.Owner, c.cfg.Repo, c.cfg.Path, opts)
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		_, _, err = c.gh.Repositories.CreateFile(ctx, c.cfg.Owner, c.cfg.Repo, c.cfg.Path, opts)
	}
	if err != nil {
		return fmt.Errorf("mirror %s/%s/%s: %w", c.cfg.Owner, c.cfg.Repo, c.cfg.Path, err)
	}
	return nil
}

// Fetch downloads the mirror file contents.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.cfg.Owner, c.cfg.Repo, c.cfg.Path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, store.ErrMirrorEmpty
		}
		return nil, fmt.Errorf("fetch %s/%s/%s: %w", c.cfg.Owner, c.cfg.Repo, c.cfg.Path, err)
	}
	if file == nil {
		return nil, store.ErrMirrorEmpty
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.cfg.Path, err)
	}
	return []byte(content), nil
}
