package httpbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
)

const maxResponseBytes = 16 << 20

// Client talks to the HTTP bridge that exposes the server's object surface.
type Client struct {
	BaseURL        string
	Token          string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.RemoteSurface = Client{}

type acquireRequest struct {
	Class   string `json:"class"`
	Factory string `json:"factory,omitempty"`
	Args    []any  `json:"args"`
}

type acquireResponse struct {
	Ref struct {
		ID    string `json:"id"`
		Class string `json:"class"`
	} `json:"ref"`
}

type callRequest struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

type callResponse struct {
	Result any `json:"result"`
}

type errorResponse struct {
	Error struct {
		Category string `json:"category"`
		Message  string `json:"message"`
	} `json:"error"`
}

func (c Client) Acquire(ctx context.Context, req ports.AcquireRequest) (domain.ObjectRef, error) {
	var payload acquireResponse
	body := acquireRequest{Class: req.Class, Factory: req.Factory, Args: encodeArgs(req.Args)}
	if err := c.do(ctx, http.MethodPost, "objects", body, &payload); err != nil {
		return domain.ObjectRef{}, fmt.Errorf("acquire %s: %w", req.Class, err)
	}
	if payload.Ref.ID == "" {
		return domain.ObjectRef{}, fmt.Errorf("acquire %s: response missing object reference", req.Class)
	}

	class := payload.Ref.Class
	if class == "" {
		class = req.Class
	}
	return domain.ObjectRef{ID: payload.Ref.ID, Class: class}, nil
}

func (c Client) Call(ctx context.Context, obj domain.ObjectRef, method string, args []any) (any, error) {
	var payload callResponse
	body := callRequest{Method: method, Args: encodeArgs(args)}
	if err := c.do(ctx, http.MethodPost, "objects/"+url.PathEscape(obj.ID)+"/calls", body, &payload); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return decodeValue(payload.Result), nil
}

// Release frees a remote object. An object the bridge no longer knows is
// already released.
func (c Client) Release(ctx context.Context, obj domain.ObjectRef) error {
	err := c.do(ctx, http.MethodDelete, "objects/"+url.PathEscape(obj.ID), nil, nil)
	if err != nil && !errors.Is(err, domain.ErrCapabilityNotFound) {
		return fmt.Errorf("release %s: %w", obj.ID, err)
	}
	return nil
}

func (c Client) do(ctx context.Context, method string, path string, body any, out any) error {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request bridge: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps a bridge error onto the capability error classes.
func decodeError(resp *http.Response) error {
	var payload errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload)

	category := payload.Error.Category
	message := payload.Error.Message
	if message == "" {
		message = fmt.Sprintf("status %d", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, category == "ClassNotFound":
		return fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, message)
	case resp.StatusCode == http.StatusConflict,
		resp.StatusCode == http.StatusUnprocessableEntity,
		category == "SignatureMismatch",
		category == "NoSuchMethod":
		return fmt.Errorf("%w: %s", domain.ErrSignatureMismatch, message)
	}

	if category == "" {
		category = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return &domain.RemoteError{Category: category, Message: payload.Error.Message}
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 2 * time.Minute
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("bridge base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse bridge base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("bridge base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("bridge base url host is required")
	}

	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse bridge path: %w", err)
	}
	return endpoint.String(), nil
}
