package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Mepiyou/myfirstfront/internal/models"
)

type AddCartItemInput struct {
	ID    string  `json:"_id" binding:"required"`
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"gte=0"`
	Image string  `json:"image"`
}

type SetQuantityInput struct {
	Quantity int `json:"qty" binding:"required"`
}

// GetCart returns the entries in insertion order plus the totals fold.
func (h *Handlers) GetCart(c *gin.Context) {
	entries, err := h.Cart.Entries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}
	totals, err := h.Cart.Totals()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}
	if entries == nil {
		entries = []models.CartEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "totals": totals})
}

// AddCartItem inserts the product or increments its existing entry.
func (h *Handlers) AddCartItem(c *gin.Context) {
	var input AddCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Cart.Add(models.Product{
		ID:    input.ID,
		Name:  input.Name,
		Price: input.Price,
		Image: input.Image,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	h.GetCart(c)
}

// SetCartQuantity sets an entry's quantity (clamped to a minimum of 1).
func (h *Handlers) SetCartQuantity(c *gin.Context) {
	var input SetQuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Cart.SetQuantity(c.Param("id"), input.Quantity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	h.GetCart(c)
}

// IncrementCartItem raises an entry's quantity by one.
func (h *Handlers) IncrementCartItem(c *gin.Context) {
	if err := h.Cart.Increment(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	h.GetCart(c)
}

// DecrementCartItem lowers an entry's quantity by one, never below 1.
func (h *Handlers) DecrementCartItem(c *gin.Context) {
	if err := h.Cart.Decrement(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	h.GetCart(c)
}

// RemoveCartItem eliminates the entry entirely.
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	if err := h.Cart.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}
	h.GetCart(c)
}

// ClearCart empties the cart.
func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.Cart.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// CheckoutLink renders the cart as the checkout-via-messaging order
// summary and wraps it into a WhatsApp link.
func (h *Handlers) CheckoutLink(c *gin.Context) {
	message, err := h.Cart.OrderMessage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read cart"})
		return
	}
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	link := "https://wa.me/" + h.Config.WhatsAppNumber + "?text=" + url.QueryEscape(message)
	c.JSON(http.StatusOK, gin.H{"url": link, "message": message})
}
