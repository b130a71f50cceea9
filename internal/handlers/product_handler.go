package handlers

import (
	"log"

	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/policy"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
	debug          bool
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, debug bool) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       validator.New(),
		debug:          debug,
	}
}

// RegisterRoutes registers the product routes. Reads are public; mutations
// require authentication and the admin or premium role.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	products := router.Group("/products")
	products.Get("/", h.HandleList)
	products.Get("/:pid", h.HandleGet)

	sellers := middleware.RequireRoles(models.RoleAdmin, models.RolePremium)
	products.Post("/", auth, sellers, h.HandleCreate)
	products.Put("/:pid", auth, sellers, h.HandleUpdate)
	products.Delete("/:pid", auth, sellers, h.HandleDelete)
}

// HandleList returns a page of products with optional query filter and
// price sort.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Query: c.Query("query"),
		Sort:  c.Query("sort"),
		Limit: c.QueryInt("limit", 10),
		Page:  c.QueryInt("page", 1),
	}

	products, total, err := h.productService.ListProducts(filter)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":      "success",
		"payload":     products,
		"total":       total,
		"page":        filter.Page,
		"total_pages": totalPages(total, filter.Limit),
	})
}

// HandleGet returns a single product.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.Params("pid"))
	if err != nil {
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"product": product,
	})
}

// ProductRequest represents the request body for creating or updating a
// product.
type ProductRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Code        string  `json:"code" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Category    string  `json:"category"`
	Thumbnails  string  `json:"thumbnails"`
}

// HandleCreate creates a product owned by the acting premium seller, or an
// unowned platform product for admins.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product := &models.Product{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Thumbnails:  req.Thumbnails,
	}
	actor := middleware.UserFromContext(c)
	if err := h.productService.CreateProduct(product, actor); err != nil {
		log.Printf("Error creating product: %v", err)
		return respondError(c, err, h.debug)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "product created successfully",
		"product": product,
	})
}

// HandleUpdate updates a product; premium sellers may only touch their own.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	pid := c.Params("pid")
	product, err := h.productService.GetProductByID(pid)
	if err != nil {
		return respondError(c, err, h.debug)
	}

	actor := middleware.UserFromContext(c)
	if err := policy.CanManageProduct(actor, product); err != nil {
		return respondError(c, err, h.debug)
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"error":  "invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product.Title = req.Title
	product.Description = req.Description
	product.Code = req.Code
	product.Price = req.Price
	product.Stock = req.Stock
	product.Category = req.Category
	product.Thumbnails = req.Thumbnails

	if err := h.productService.UpdateProduct(product); err != nil {
		log.Printf("Error updating product %s: %v", pid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "product updated successfully",
		"product": product,
	})
}

// HandleDelete deletes a product; premium sellers may only delete their own.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	pid := c.Params("pid")
	product, err := h.productService.GetProductByID(pid)
	if err != nil {
		return respondError(c, err, h.debug)
	}

	actor := middleware.UserFromContext(c)
	if err := policy.CanManageProduct(actor, product); err != nil {
		return respondError(c, err, h.debug)
	}

	if err := h.productService.DeleteProduct(pid); err != nil {
		log.Printf("Error deleting product %s: %v", pid, err)
		return respondError(c, err, h.debug)
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "product deleted successfully",
	})
}
