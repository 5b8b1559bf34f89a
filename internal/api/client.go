package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/auth"
	"github.com/Mepiyou/myfirstfront/internal/models"
)

// ErrInvalidCredentials is returned by Login on any non-2xx response.
var ErrInvalidCredentials = errors.New("invalid credentials")

// StatusError is a completed HTTP exchange that the server rejected.
// It is distinct from a network failure: the synchronizer and the
// offline-queueing decision both branch on that difference.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote api: unexpected status %d", e.Status)
}

// IsNetworkError reports whether err is a transport-level failure (no
// HTTP response at all), as opposed to a response the server rejected.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Client is the thin wrapper around the remote product/auth API. Calls
// carry the stored bearer token when present. Requests carry no
// timeout; a hung request blocks only its own logical task.
type Client struct {
	base   string
	http   *http.Client
	tokens *auth.TokenStore
	log    *zap.Logger
}

func NewClient(base string, tokens *auth.TokenStore, log *zap.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{},
		tokens: tokens,
		log:    log,
	}
}

// ProductsURL is the public catalog endpoint; also used as the
// connectivity probe target.
func (c *Client) ProductsURL() string { return c.base + "/api/products" }

// AdminProductsURL is the create endpoint for queued operations.
func (c *Client) AdminProductsURL() string { return c.base + "/api/admin/products" }

// AdminProductURL is the update/delete endpoint for one product.
func (c *Client) AdminProductURL(id string) string {
	return c.base + "/api/admin/products/" + url.PathEscape(id)
}

// AuthHeaders returns the Authorization header for the stored token, or
// an empty map when no token is stored. The queue captures these at
// enqueue time so a replay does not depend on the token still being
// retrievable.
func (c *Client) AuthHeaders() map[string]string {
	token, err := c.tokens.Load()
	if err != nil {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// Login exchanges credentials for a bearer token and stores it. The
// token arrives either at the top level or nested under a data
// envelope; any non-2xx response means invalid credentials.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", ErrInvalidCredentials
	}

	var body struct {
		Token string `json:"token"`
		Data  struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	token := body.Data.Token
	if token == "" {
		token = body.Token
	}
	if token == "" {
		return "", errors.New("no token returned")
	}

	if err := c.tokens.Save(token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// ListProducts fetches the full catalog, sentinel record included. The
// product array arrives either bare or under a data envelope; when the
// envelope shape is unrecognized the payload itself is treated as the
// list.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProductsURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build products request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read products response: %w", err)
	}

	var envelope struct {
		Data []models.Product `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode products response: %w", err)
	}
	return products, nil
}

// SplitSiteConfig filters the reserved __SITE_CONFIG__ record out of
// the catalog and decodes the configuration it carries. An unreadable
// config record is dropped from the catalog all the same.
func SplitSiteConfig(products []models.Product, log *zap.Logger) ([]models.Product, *models.SiteConfig) {
	catalog := make([]models.Product, 0, len(products))
	var cfg *models.SiteConfig
	for _, p := range products {
		if p.Name == models.SiteConfigName {
			parsed, err := models.ParseSiteConfig(p.Description)
			if err != nil {
				log.Warn("unreadable site config record", zap.Error(err))
				continue
			}
			cfg = &parsed
			continue
		}
		catalog = append(catalog, p)
	}
	return catalog, cfg
}

// ProductForm is the multipart payload for product create/update.
// Name and price being present is the caller's responsibility; the
// client only transmits.
type ProductForm struct {
	Name        string
	Category    string
	Price       float64
	Stock       int
	Description string
	IsPromotion bool
	Image       *models.FilePart
}

// Fields renders the form the way the remote API expects it: every
// value as a string field, the image as a separate file part.
func (f ProductForm) Fields() map[string]string {
	return map[string]string{
		"name":        f.Name,
		"category":    f.Category,
		"price":       strconv.FormatFloat(f.Price, 'f', -1, 64),
		"stock":       strconv.Itoa(f.Stock),
		"description": f.Description,
		"isPromotion": strconv.FormatBool(f.IsPromotion),
	}
}

// Files returns the form's file parts (nil when no image is attached).
func (f ProductForm) Files() []models.FilePart {
	if f.Image == nil {
		return nil
	}
	return []models.FilePart{*f.Image}
}

// CreateProduct issues the authenticated multipart create call.
func (c *Client) CreateProduct(ctx context.Context, form ProductForm) error {
	return c.doMultipart(ctx, http.MethodPost, c.AdminProductsURL(), form.Fields(), form.Files())
}

// UpdateProduct issues the authenticated multipart update call.
func (c *Client) UpdateProduct(ctx context.Context, id string, form ProductForm) error {
	return c.doMultipart(ctx, http.MethodPut, c.AdminProductURL(id), form.Fields(), form.Files())
}

// DeleteProduct issues the authenticated delete call.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.AdminProductURL(id), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	for k, v := range c.AuthHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) doMultipart(ctx context.Context, method, target string, fields map[string]string, files []models.FilePart) error {
	body, contentType, err := BuildMultipart(fields, files)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range c.AuthHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// BuildMultipart assembles a multipart/form-data body from string
// fields and binary file parts. The synchronizer uses the same function
// to reconstruct a queued operation's body at replay time.
func BuildMultipart(fields map[string]string, files []models.FilePart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write file part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// FetchImage downloads a remote image and re-encodes it as a file part
// ready to attach to a product form, the way the original client turned
// an image URL into an upload.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (*models.FilePart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return &models.FilePart{
		Field:       "image",
		Filename:    imageFilename(imageURL),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// imageFilename derives a safe filename from the source URL, keeping
// the extension and slugifying the rest. Unusable URLs fall back to
// image.jpg like the original client.
func imageFilename(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "image.jpg"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "image.jpg"
	}
	ext := path.Ext(base)
	name := slug.Make(strings.TrimSuffix(base, ext))
	if name == "" {
		return "image.jpg"
	}
	return name + ext
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Status: resp.StatusCode, Body: string(snippet)}
}
