package typeface

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
)

// Manager receives load progress notifications. Any hook may be nil.
type Manager struct {
	// OnStart is called before the resource fetch begins.
	OnStart func(url string)
	// OnProgress is called as resource bytes arrive. total is -1 when
	// the length is unknown.
	OnProgress func(url string, loaded, total int64)
	// OnLoad is called after the font was fetched and parsed.
	OnLoad func(url string)
	// OnError is called when the fetch or parse failed.
	OnError func(url string, err error)
}

func (m *Manager) start(url string) {
	if m != nil && m.OnStart != nil {
		m.OnStart(url)
	}
}

func (m *Manager) progress(url string, loaded, total int64) {
	if m != nil && m.OnProgress != nil {
		m.OnProgress(url, loaded, total)
	}
}

func (m *Manager) load(url string) {
	if m != nil && m.OnLoad != nil {
		m.OnLoad(url)
	}
}

func (m *Manager) fail(url string, err error) {
	if m != nil && m.OnError != nil {
		m.OnError(url, err)
	}
}

// Loader fetches and parses glyph-outline font descriptions.
type Loader struct {
	mgr    *Manager
	client *http.Client
}

// NewLoader returns a Loader reporting to the manager. A nil manager
// disables notifications.
func NewLoader(mgr *Manager) *Loader {
	return &Loader{
		mgr:    mgr,
		client: http.DefaultClient,
	}
}

// WithHTTPClient overrides the HTTP client used for fetches.
func (l *Loader) WithHTTPClient(client *http.Client) *Loader {
	l.client = client
	return l
}

// Load fetches a font description over HTTP and parses it.
func (l *Loader) Load(ctx context.Context, url string) (*Font, error) {
	l.mgr.start(url)

	font, err := l.fetch(ctx, url)
	if err != nil {
		l.mgr.fail(url, err)
		return nil, err
	}
	l.mgr.load(url)
	return font, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (*Font, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create request")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to fetch font")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch font failed: %s", resp.Status)
	}

	body, err := io.ReadAll(&progressReader{
		r:     resp.Body,
		url:   url,
		total: resp.ContentLength,
		mgr:   l.mgr,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read font")
	}

	return Parse(body)
}

// LoadFile reads a font description from the local filesystem and
// parses it.
func (l *Loader) LoadFile(path string) (*Font, error) {
	l.mgr.start(path)

	raw, err := os.ReadFile(path)
	if err != nil {
		err = errors.WithMessage(err, "unable to read file")
		l.mgr.fail(path, err)
		return nil, err
	}
	l.mgr.progress(path, int64(len(raw)), int64(len(raw)))

	font, err := Parse(raw)
	if err != nil {
		l.mgr.fail(path, err)
		return nil, err
	}
	l.mgr.load(path)
	return font, nil
}

// progressReader reports cumulative bytes read to the manager.
type progressReader struct {
	r      io.Reader
	url    string
	total  int64
	loaded int64
	mgr    *Manager
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.loaded += int64(n)
		p.mgr.progress(p.url, p.loaded, p.total)
	}
	return n, err
}
