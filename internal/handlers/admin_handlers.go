package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/api"
	"github.com/Mepiyou/myfirstfront/internal/models"
)

// ProductFormInput is the admin create/update form. Name and price are
// required here, at the point of user interaction: the API client and
// the queue transmit whatever they are handed.
type ProductFormInput struct {
	Name        string  `form:"name" binding:"required"`
	Category    string  `form:"category"`
	Price       float64 `form:"price" binding:"required,gt=0"`
	Stock       int     `form:"stock" binding:"gte=0"`
	Description string  `form:"description"`
	IsPromotion bool    `form:"isPromotion"`
	// ImageURL is the fetch-and-re-encode alternative to uploading a
	// file. The uploaded file wins when both are present.
	ImageURL string `form:"imageUrl"`
}

// CreateProduct handles POST /v1/admin/products: attempt the remote
// call, and when it fails at the transport level while the system is
// offline, durably queue it for later sync instead.
func (h *Handlers) CreateProduct(c *gin.Context) {
	form, ok := h.bindProductForm(c)
	if !ok {
		return
	}
	h.submitProduct(c, http.MethodPost, h.API.AdminProductsURL(), form, func(ctx context.Context) error {
		return h.API.CreateProduct(ctx, form)
	}, "Product created")
}

// UpdateProduct handles PUT /v1/admin/products/:id.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	form, ok := h.bindProductForm(c)
	if !ok {
		return
	}
	id := c.Param("id")
	h.submitProduct(c, http.MethodPut, h.API.AdminProductURL(id), form, func(ctx context.Context) error {
		return h.API.UpdateProduct(ctx, id, form)
	}, "Product updated")
}

// DeleteProduct handles DELETE /v1/admin/products/:id. A delete queued
// offline is stored as a bodyless JSON operation.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	err := h.API.DeleteProduct(c.Request.Context(), id)
	if err == nil {
		h.Hub.Notify("Product deleted", true)
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
		return
	}

	if api.IsNetworkError(err) && !h.Syncer.Online() {
		op, qerr := h.Queue.Enqueue(h.API.AdminProductURL(id), http.MethodDelete, h.API.AuthHeaders(), models.JSONBody(nil))
		if qerr != nil {
			h.Log.Error("queue delete failed", zap.Error(qerr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save action for later sync"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": true, "id": op.ID})
		return
	}

	h.remoteFailure(c, err, "Delete failed")
}

// GetQueue lists pending operations without their payload bytes.
func (h *Handlers) GetQueue(c *gin.Context) {
	ops, err := h.Queue.ListPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read sync queue"})
		return
	}

	type opSummary struct {
		ID          uint64    `json:"id"`
		Method      string    `json:"method"`
		URL         string    `json:"url"`
		IsMultipart bool      `json:"isMultipart"`
		EnqueuedAt  time.Time `json:"enqueuedAt"`
	}
	summaries := make([]opSummary, 0, len(ops))
	for _, op := range ops {
		summaries = append(summaries, opSummary{
			ID:          op.ID,
			Method:      op.Method,
			URL:         op.URL,
			IsMultipart: op.Body.IsMultipart(),
			EnqueuedAt:  op.EnqueuedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"pending": summaries})
}

// TriggerSync fires a replay pass in the background. The pass reports
// its progress through the notification stream, not this response.
func (h *Handlers) TriggerSync(c *gin.Context) {
	go h.Syncer.Sync(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"message": "Sync triggered"})
}

// bindProductForm validates the multipart form and resolves the image:
// an uploaded file is read directly, a bare imageUrl is fetched and
// re-encoded as a file payload before transmission.
func (h *Handlers) bindProductForm(c *gin.Context) (api.ProductForm, bool) {
	var input ProductFormInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return api.ProductForm{}, false
	}

	form := api.ProductForm{
		Name:        input.Name,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		Description: input.Description,
		IsPromotion: input.IsPromotion,
	}

	if file, err := c.FormFile("image"); err == nil {
		part, err := readUpload(file)
		if err != nil {
			h.Log.Error("read uploaded image", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable image upload"})
			return api.ProductForm{}, false
		}
		form.Image = part
	} else if input.ImageURL != "" {
		part, err := h.API.FetchImage(c.Request.Context(), input.ImageURL)
		if err != nil {
			// Without the bytes there is nothing to transmit or queue.
			h.Log.Error("fetch image url", zap.String("url", input.ImageURL), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch image URL"})
			return api.ProductForm{}, false
		}
		form.Image = part
	}

	return form, true
}

// submitProduct runs the shared attempt-then-queue flow for create and
// update.
func (h *Handlers) submitProduct(c *gin.Context, method, target string, form api.ProductForm, attempt func(context.Context) error, successMsg string) {
	err := attempt(c.Request.Context())
	if err == nil {
		h.Hub.Notify(successMsg, true)
		status := http.StatusOK
		if method == http.MethodPost {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"message": successMsg})
		return
	}

	if api.IsNetworkError(err) && !h.Syncer.Online() {
		body := models.MultipartBody(form.Fields(), form.Files())
		op, qerr := h.Queue.Enqueue(target, method, h.API.AuthHeaders(), body)
		if qerr != nil {
			h.Log.Error("queue operation failed", zap.Error(qerr))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save action for later sync"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": true, "id": op.ID})
		return
	}

	h.remoteFailure(c, err, "Request failed")
}

// remoteFailure converts a non-queueable remote error into a toast-style
// response. A transport failure while believed online flips the monitor
// so the next attempt can queue.
func (h *Handlers) remoteFailure(c *gin.Context, err error, fallbackMsg string) {
	if api.IsNetworkError(err) {
		h.Syncer.SetOnline(false)
		h.Log.Warn("remote call failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Network error — please retry"})
		return
	}

	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		h.Log.Warn("remote call rejected", zap.Int("status", statusErr.Status))
		c.JSON(statusErr.Status, gin.H{"error": fallbackMsg})
		return
	}

	h.Log.Error("remote call failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
}

func readUpload(file *multipart.FileHeader) (*models.FilePart, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &models.FilePart{
		Field:       "image",
		Filename:    file.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
