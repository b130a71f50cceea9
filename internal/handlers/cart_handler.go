package handlers

import (
	"log"

	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/policy"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for cart mutations. Every mutation runs
// the cart ownership predicate before touching the cart service.
type CartHandler struct {
	cartService    *services.CartService
	productService *services.ProductService
	validate       *validator.Validate
	debug          bool
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, productService *services.ProductService, debug bool) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		productService: productService,
		validate:       validator.New(),
		debug:          debug,
	}
}

// RegisterRoutes registers the cart routes. Reads are public; mutations
// require the strict identity resolver.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	carts := router.Group("/carts")
	carts.Post("/", h.HandleCreate)
	carts.Get("/:cid", h.HandleGet)
	carts.Get("/:cid/total", h.HandleTotal)
	carts.Post("/:cid/items/:pid", auth, h.HandleAddItem)
	carts.Put("/:cid/items/:pid", auth, h.HandleSetQuantity)
	carts.Delete("/:cid/items/:pid", auth, h.HandleRemoveItem)
	carts.Delete("/:cid", auth, h.HandleClear)
	carts.Put("/:cid", auth, h.HandleReplace)
}

// HandleCreate creates a standalone empty cart.
func (h *CartHandler) HandleCreate(c *fiber.Ctx) error {
	cart, err := h.cartService.CreateCart(nil)
	if err != nil {
		log.Printf("Error creating cart: %v", err)
		return respondError(c, err, h.debug)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "cart created successfully",
		"cart":    cart,
	})
}

// HandleGet returns a cart with its items and product records.
func (h *CartHandler) HandleGet(c *fiber.Ctx) error {
	cart, err := h.cartService.GetCart(c.Params("cid"))
	if err != nil {
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"cart":   cart,
	})
}

// HandleTotal returns the cart total computed against live product prices.
func (h *CartHandler) HandleTotal(c *fiber.Ctx) error {
	total, err := h.cartService.Total(c.Params("cid"))
	if err != nil {
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"total":  total,
	})
}

// AddItemRequest represents the request body for adding a product to a cart.
type AddItemRequest struct {
	Quantity int `json:"quantity"`
}

// HandleAddItem adds a product to the cart, merging with an existing line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	cid, pid := c.Params("cid"), c.Params("pid")
	actor := middleware.UserFromContext(c)
	if err := policy.CanMutateCart(actor, cid); err != nil {
		return respondError(c, err, h.debug)
	}

	req := AddItemRequest{Quantity: 1}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status": "error",
				"error":  "invalid request body",
			})
		}
	}

	product, err := h.productService.GetProductByID(pid)
	if err != nil {
		return respondError(c, err, h.debug)
	}
	if err := policy.CanAddToCart(actor, product); err != nil {
		return respondError(c, err, h.debug)
	}

	cart, err := h.cartService.AddItem(cid, pid, req.Quantity)
	if err != nil {
		log.Printf("Error adding product %s to cart %s: %v", pid, cid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "product added to cart",
		"cart":    cart,
	})
}

// SetQuantityRequest represents the request body for replacing a line
// quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// HandleSetQuantity replaces the quantity of an existing line item.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	cid, pid := c.Params("cid"), c.Params("pid")
	actor := middleware.UserFromContext(c)
	if err := policy.CanMutateCart(actor, cid); err != nil {
		return respondError(c, err, h.debug)
	}

	var req SetQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	cart, err := h.cartService.SetItemQuantity(cid, pid, req.Quantity)
	if err != nil {
		log.Printf("Error setting quantity for product %s in cart %s: %v", pid, cid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "quantity updated",
		"cart":    cart,
	})
}

// HandleRemoveItem drops a product's line item; removing an absent product
// succeeds.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cid, pid := c.Params("cid"), c.Params("pid")
	actor := middleware.UserFromContext(c)
	if err := policy.CanMutateCart(actor, cid); err != nil {
		return respondError(c, err, h.debug)
	}

	cart, err := h.cartService.RemoveItem(cid, pid)
	if err != nil {
		log.Printf("Error removing product %s from cart %s: %v", pid, cid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "product removed from cart",
		"cart":    cart,
	})
}

// HandleClear empties the cart's line items.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	cid := c.Params("cid")
	actor := middleware.UserFromContext(c)
	if err := policy.CanMutateCart(actor, cid); err != nil {
		return respondError(c, err, h.debug)
	}

	cart, err := h.cartService.Clear(cid)
	if err != nil {
		log.Printf("Error clearing cart %s: %v", cid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "cart emptied successfully",
		"cart":    cart,
	})
}

// ReplaceRequest represents the request body for the bulk item replace.
type ReplaceRequest struct {
	Items []struct {
		ProductID string `json:"product_id" validate:"required"`
		Quantity  int    `json:"quantity" validate:"required,gte=1"`
	} `json:"items" validate:"required,dive"`
}

// HandleReplace performs the administrative bulk item replace. Stock is not
// validated per line; see CartService.ReplaceItems.
func (h *CartHandler) HandleReplace(c *fiber.Ctx) error {
	cid := c.Params("cid")
	actor := middleware.UserFromContext(c)
	if err := policy.CanMutateCart(actor, cid); err != nil {
		return respondError(c, err, h.debug)
	}

	var req ReplaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	items := make([]models.CartItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.CartItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	cart, err := h.cartService.ReplaceItems(cid, items)
	if err != nil {
		log.Printf("Error replacing items in cart %s: %v", cid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "cart updated",
		"cart":    cart,
	})
}
