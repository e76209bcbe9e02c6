package gallery

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Sternrassler/gallery-feed/pkg/client"
	"github.com/Sternrassler/gallery-feed/pkg/pagination"
)

// ImagesPath is the gallery API collection endpoint.
const ImagesPath = "/api/images"

// Transport is the subset of client.Client the API needs.
type Transport interface {
	Get(ctx context.Context, path string, params url.Values) (*client.Response, error)
	Post(ctx context.Context, path string, body any) (*client.Response, error)
}

// API is the typed gallery API.
type API struct {
	transport Transport
}

// NewAPI creates an API on top of t.
func NewAPI(t Transport) *API {
	return &API{transport: t}
}

type listResponse struct {
	Data  []Image `json:"data"`
	After *string `json:"after"`
}

type createResponse struct {
	Image Image `json:"image"`
}

// ListImages fetches the page that starts at after. The empty cursor asks
// for the first page. A missing or empty "after" in the response marks the
// last page.
func (a *API) ListImages(ctx context.Context, after string) (pagination.Page[Image], error) {
	resp, err := a.transport.Get(ctx, ImagesPath, url.Values{"after": {after}})
	if err != nil {
		return pagination.Page[Image]{}, err
	}

	var body listResponse
	if err := resp.Decode(&body); err != nil {
		return pagination.Page[Image]{}, fmt.Errorf("list images: %w", err)
	}

	page := pagination.Page[Image]{Items: body.Data}
	if body.After != nil {
		page.Cursor = *body.After
	}
	if page.Items == nil {
		page.Items = []Image{}
	}
	return page, nil
}

// CreateImage uploads one image record and returns it as stored.
func (a *API) CreateImage(ctx context.Context, img NewImage) (Image, error) {
	resp, err := a.transport.Post(ctx, ImagesPath, img)
	if err != nil {
		return Image{}, err
	}

	var body createResponse
	if err := resp.Decode(&body); err != nil {
		return Image{}, fmt.Errorf("create image: %w", err)
	}
	return body.Image, nil
}
