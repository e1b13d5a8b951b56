package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/flowcanvas/config"
	"github.com/BaSui01/flowcanvas/internal/tlsutil"
	"github.com/BaSui01/flowcanvas/types"
	"github.com/BaSui01/flowcanvas/workflow"
)

const defaultMaxBytes = 1 << 20

// Loader 读取 file 输入的本地文件并抓取 url 输入的远程内容
type Loader struct {
	baseDir  string
	allowURL bool
	maxBytes int64
	client   *http.Client
	logger   *zap.Logger
}

var _ workflow.ContentLoader = (*Loader)(nil)

// Option 配置 Loader
type Option func(*Loader)

// WithHTTPClient 替换抓取用的 HTTP 客户端
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger.With(zap.String("component", "content_loader"))
		}
	}
}

// NewLoader 按配置创建 Loader
func NewLoader(cfg config.ContentConfig, opts ...Option) (*Loader, error) {
	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve content base dir: %w", err)
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	l := &Loader{
		baseDir:  abs,
		allowURL: cfg.AllowURL,
		maxBytes: maxBytes,
		client:   tlsutil.HTTPClient(timeout),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// LoadContent 实现 workflow.ContentLoader
func (l *Loader) LoadContent(ctx context.Context, cfg workflow.InputConfig) (string, error) {
	switch cfg.InputType {
	case workflow.InputTypeFile:
		return l.loadFile(cfg.FileName)
	case workflow.InputTypeURL:
		return l.fetch(ctx, cfg.URL)
	default:
		return "", types.Errorf(types.ErrInvalidRequest, "input type %q has nothing to load", cfg.InputType)
	}
}

func (l *Loader) loadFile(name string) (string, error) {
	path, err := l.resolve(name)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", types.Errorf(types.ErrInvalidRequest, "file %s not found", name)
		}
		return "", types.Errorf(types.ErrInternalError, "open file %s", name).WithCause(err)
	}
	defer f.Close()

	text, err := l.readLimited(f, name)
	if err != nil {
		return "", err
	}
	l.logger.Debug("file content loaded", zap.String("file", name), zap.Int("bytes", len(text)))
	return text, nil
}

// resolve 把文件名限制在 baseDir 之内
func (l *Loader) resolve(name string) (string, error) {
	if name == "" {
		return "", types.NewError(types.ErrInvalidRequest, "file name is empty")
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(l.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", types.Errorf(types.ErrInvalidRequest, "file %s is outside the content directory", name)
	}
	return path, nil
}

func (l *Loader) fetch(ctx context.Context, raw string) (string, error) {
	if !l.allowURL {
		return "", types.NewError(types.ErrInvalidRequest, "url inputs are disabled")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", types.Errorf(types.ErrInvalidRequest, "invalid url %q", raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", types.Errorf(types.ErrInvalidRequest, "build request for %s", raw).WithCause(err)
	}
	req.Header.Set("Accept", "text/plain, text/markdown, text/html, application/json;q=0.9, */*;q=0.5")
	req.Header.Set("User-Agent", "flowcanvas-content-loader")

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", types.Errorf(types.ErrTimeout, "fetch %s interrupted", raw).WithCause(err)
		}
		return "", types.Errorf(types.ErrUpstreamError, "fetch %s", raw).WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", types.Errorf(types.ErrUpstreamError, "fetch %s: status %d", raw, resp.StatusCode).
			WithHTTPStatus(resp.StatusCode).WithRetryable(resp.StatusCode >= 500)
	}

	text, err := l.readLimited(resp.Body, raw)
	if err != nil {
		return "", err
	}
	l.logger.Debug("url content fetched", zap.String("url", raw), zap.Int("bytes", len(text)))
	return text, nil
}

func (l *Loader) readLimited(r io.Reader, source string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return "", types.Errorf(types.ErrUpstreamError, "read %s", source).WithCause(err)
	}
	if int64(len(data)) > l.maxBytes {
		return "", types.Errorf(types.ErrInvalidRequest, "%s exceeds %d bytes", source, l.maxBytes)
	}
	if !utf8.Valid(data) {
		return "", types.Errorf(types.ErrInvalidRequest, "%s is not valid UTF-8 text", source)
	}
	return string(data), nil
}
