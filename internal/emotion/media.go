package emotion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	infraerrors "github.com/jonesrussell/cooper/infrastructure/errors"
	infrahttp "github.com/jonesrussell/cooper/infrastructure/http"
)

// defaultMaxAudioBytes matches the transcription upload limit.
const defaultMaxAudioBytes = 25 << 20

const defaultMediaName = "audio.mp4"

var (
	errEmptySource   = errors.New("empty audio source")
	errMediaTooLarge = errors.New("audio source exceeds size limit")
)

type mediaOpener struct {
	client   *http.Client
	maxBytes int64
}

func newMediaOpener(client *http.Client, maxBytes int64) *mediaOpener {
	if client == nil {
		client = infrahttp.NewClient(nil)
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxAudioBytes
	}
	return &mediaOpener{client: client, maxBytes: maxBytes}
}

// media is an opened audio stream with the filename the transcriber needs
// to infer its format.
type media struct {
	io.Reader
	closer io.Closer
	name   string
}

func (m *media) Close() error { return m.closer.Close() }

func (o *mediaOpener) open(ctx context.Context, source string) (*media, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errEmptySource
	}

	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return o.fetch(ctx, source, u)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	if info, statErr := f.Stat(); statErr == nil && info.Size() > o.maxBytes {
		f.Close()
		return nil, fmt.Errorf("open audio file: %w (%d > %d bytes)", errMediaTooLarge, info.Size(), o.maxBytes)
	}
	return &media{
		Reader: &cappedReader{r: f, remaining: o.maxBytes},
		closer: f,
		name:   mediaName(filepath.Base(source)),
	}, nil
}

func (o *mediaOpener) fetch(ctx context.Context, source string, u *url.URL) (*media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch media: %w", httpErr)
	}

	if resp.ContentLength > o.maxBytes {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch media: %w (%d > %d bytes)", errMediaTooLarge, resp.ContentLength, o.maxBytes)
	}

	return &media{
		Reader: &cappedReader{r: resp.Body, remaining: o.maxBytes},
		closer: resp.Body,
		name:   mediaName(path.Base(u.Path)),
	}, nil
}

// mediaName keeps a base name that carries an extension, else a default.
func mediaName(base string) string {
	if base == "" || base == "." || base == "/" || path.Ext(base) == "" {
		return defaultMediaName
	}
	return base
}

// cappedReader passes through at most remaining bytes and fails with
// errMediaTooLarge if the source holds more, instead of truncating it.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errMediaTooLarge
	}
	// one byte past the cap detects overflow
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	if int64(n) > c.remaining {
		n = int(c.remaining)
		c.remaining = -1
		return n, errMediaTooLarge
	}
	c.remaining -= int64(n)
	return n, err
}
