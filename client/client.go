package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/jsonapi"

	"github.com/devitsoftware/docs-assistant/models"
	"github.com/devitsoftware/docs-assistant/stream"
)

func New(baseURL string) Client {
	return Client{
		baseURL: baseURL,
	}
}

type Client struct {
	baseURL string
}

func (c Client) SearchPost(ctx context.Context, req models.SearchPostRequest) (resp models.SearchPostResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "search").String()
	if err != nil {
		return resp, err
	}
	return jsonapi.Post[models.SearchPostRequest, models.SearchPostResponse](ctx, url, req)
}

// ChatPost sends a chat request and dispatches the frames of the streamed
// answer to f as they arrive.
func (c Client) ChatPost(ctx context.Context, req models.ChatPostRequest, f stream.Frames) (err error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "chat").String()
	if err != nil {
		return err
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	res, err := jsonapi.Raw(httpReq)
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return jsonapi.InvalidStatusError{
			Status: res.StatusCode,
			Body:   string(body),
		}
	}
	return stream.Read(res.Body, f)
}
