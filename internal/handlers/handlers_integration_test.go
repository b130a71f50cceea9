package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"mercado/internal/handlers"
	"mercado/internal/middleware"
	"mercado/internal/models"
	"mercado/internal/repositories"
	"mercado/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter int64

// setupApp wires a Fiber app against a fresh in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}, &models.User{}))

	tokenService, err := services.NewTokenService("test_jwt_secret", "token", time.Hour)
	assert.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)

	authService := services.NewAuthService(userRepo, cartRepo, nil)
	userService := services.NewUserService(userRepo)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)

	sessionHandler := handlers.NewSessionHandler(authService, tokenService, false, true)
	userHandler := handlers.NewUserHandler(userService, true)
	productHandler := handlers.NewProductHandler(productService, true)
	cartHandler := handlers.NewCartHandler(cartService, productService, true)

	app := fiber.New()
	strict := middleware.RequireAuth(tokenService, userRepo)
	current := middleware.CurrentUser(tokenService, userRepo)

	api := app.Group("/api")
	sessionHandler.RegisterRoutes(api, current)
	userHandler.RegisterRoutes(api, strict)
	productHandler.RegisterRoutes(api, strict)
	cartHandler.RegisterRoutes(api, strict)

	return app
}

// doJSON performs a request with an optional JSON body and Bearer token and
// decodes the JSON response.
func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)

	decoded := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	if len(raw) > 0 {
		assert.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

// registerUser registers an account and returns its id, cart id and token.
func registerUser(t *testing.T, app *fiber.App, email string, role models.Role) (id, cartID, token string) {
	t.Helper()

	body := map[string]interface{}{
		"first_name": "Test",
		"last_name":  "User",
		"email":      email,
		"age":        30,
		"password":   "password123",
	}
	if role != "" {
		body["role"] = role
	}
	resp, decoded := doJSON(t, app, http.MethodPost, "/api/sessions/register", body, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	user := decoded["user"].(map[string]interface{})
	return user["id"].(string), user["cart"].(string), decoded["token"].(string)
}

// createProduct creates a product as the given actor and returns its id.
func createProduct(t *testing.T, app *fiber.App, token, title, code string, price float64, stock int) string {
	t.Helper()

	resp, decoded := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"title": title,
		"code":  code,
		"price": price,
		"stock": stock,
	}, token)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	return decoded["product"].(map[string]interface{})["id"].(string)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRegisterIssuesTokenAndCart(t *testing.T) {
	app := setupApp(t)

	body := map[string]interface{}{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"age":        28,
		"password":   "password123",
	}
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cookie = c.Value
			assert.True(t, c.HttpOnly, "token cookie must be HttpOnly")
		}
	}
	assert.NotEmpty(t, cookie, "registration sets the token cookie")

	decoded := map[string]interface{}{}
	rawBody, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(rawBody, &decoded))
	assert.Equal(t, "success", decoded["status"])

	user := decoded["user"].(map[string]interface{})
	assert.NotEmpty(t, user["cart"], "an empty cart is linked before the response returns")
	assert.Equal(t, "user", user["role"])
	_, hasPassword := user["password"]
	assert.False(t, hasPassword, "the credential never leaves the server")

	// The cookie authenticates /current.
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := setupApp(t)
	registerUser(t, app, "dup@example.com", "")

	resp, decoded := doJSON(t, app, http.MethodPost, "/api/sessions/register", map[string]interface{}{
		"first_name": "Other",
		"last_name":  "Person",
		"email":      "dup@example.com",
		"age":        44,
		"password":   "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "error", decoded["status"])
}

func TestLoginFlow(t *testing.T) {
	app := setupApp(t)
	registerUser(t, app, "ada@example.com", "")

	resp, decoded := doJSON(t, app, http.MethodPost, "/api/sessions/login", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decoded["token"])
	user := decoded["user"].(map[string]interface{})
	assert.NotNil(t, user["last_login"], "login stamps last_login")

	// Wrong password and unknown email fail identically.
	resp, decoded = doJSON(t, app, http.MethodPost, "/api/sessions/login", map[string]interface{}{
		"email":    "ada@example.com",
		"password": "wrongpassword",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	wrongPasswordMsg := decoded["error"]

	resp, decoded = doJSON(t, app, http.MethodPost, "/api/sessions/login", map[string]interface{}{
		"email":    "ghost@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrongPasswordMsg, decoded["error"])
}

func TestCurrentWithoutToken(t *testing.T) {
	app := setupApp(t)

	resp, decoded := doJSON(t, app, http.MethodGet, "/api/sessions/current", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "no token provided", decoded["error"], "the lenient resolver names the reason")
}

func TestCartMutationFlow(t *testing.T) {
	app := setupApp(t)

	_, _, adminToken := registerUser(t, app, "admin@example.com", models.RoleAdmin)
	pid := createProduct(t, app, adminToken, "Gadget", "G-1", 9.99, 10)
	pid2 := createProduct(t, app, adminToken, "Trinket", "T-1", 5, 10)

	_, cartID, userToken := registerUser(t, app, "buyer@example.com", "")

	// Merge-on-add: 2 then 3 yields one line with quantity 5.
	resp, _ := doJSON(t, app, http.MethodPost, "/api/carts/"+cartID+"/items/"+pid,
		map[string]interface{}{"quantity": 2}, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, decoded := doJSON(t, app, http.MethodPost, "/api/carts/"+cartID+"/items/"+pid,
		map[string]interface{}{"quantity": 3}, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items := decoded["cart"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, items, 1)
	assert.Equal(t, float64(5), items[0].(map[string]interface{})["quantity"])

	// Exceeding stock is rejected and reports availability.
	resp, decoded = doJSON(t, app, http.MethodPost, "/api/carts/"+cartID+"/items/"+pid,
		map[string]interface{}{"quantity": 6}, userToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, float64(10), decoded["available"])

	// Live total: 9.99*5 + 5*1.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/carts/"+cartID+"/items/"+pid2,
		map[string]interface{}{"quantity": 1}, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, decoded = doJSON(t, app, http.MethodGet, "/api/carts/"+cartID+"/total", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 54.95, decoded["total"].(float64), 0.0001)

	// Quantity replacement.
	resp, decoded = doJSON(t, app, http.MethodPut, "/api/carts/"+cartID+"/items/"+pid,
		map[string]interface{}{"quantity": 1}, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items = decoded["cart"].(map[string]interface{})["items"].([]interface{})
	assert.Equal(t, float64(1), items[0].(map[string]interface{})["quantity"])

	// Idempotent removal.
	resp, _ = doJSON(t, app, http.MethodDelete, "/api/carts/"+cartID+"/items/"+pid2, nil, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, decoded = doJSON(t, app, http.MethodDelete, "/api/carts/"+cartID+"/items/"+pid2, nil, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items = decoded["cart"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, items, 1)

	// Clear keeps the cart itself.
	resp, decoded = doJSON(t, app, http.MethodDelete, "/api/carts/"+cartID, nil, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decoded["cart"].(map[string]interface{})
	assert.Equal(t, cartID, cart["id"])
	assert.Empty(t, cart["items"])
}

func TestCartOwnershipEnforced(t *testing.T) {
	app := setupApp(t)

	_, _, adminToken := registerUser(t, app, "admin@example.com", models.RoleAdmin)
	pid := createProduct(t, app, adminToken, "Gadget", "G-1", 10, 10)

	_, victimCart, _ := registerUser(t, app, "victim@example.com", "")
	_, _, intruderToken := registerUser(t, app, "intruder@example.com", "")

	resp, decoded := doJSON(t, app, http.MethodPost, "/api/carts/"+victimCart+"/items/"+pid,
		map[string]interface{}{"quantity": 1}, intruderToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "error", decoded["status"])

	// No state change on the victim's cart.
	resp, decoded = doJSON(t, app, http.MethodGet, "/api/carts/"+victimCart, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decoded["cart"].(map[string]interface{})["items"])

	// Admins may mutate any cart.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/carts/"+victimCart+"/items/"+pid,
		map[string]interface{}{"quantity": 1}, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPremiumSelfPurchaseForbidden(t *testing.T) {
	app := setupApp(t)

	_, premiumCart, premiumToken := registerUser(t, app, "seller@example.com", models.RolePremium)
	pid := createProduct(t, app, premiumToken, "Handmade", "H-1", 25, 5)

	resp, decoded := doJSON(t, app, http.MethodPost, "/api/carts/"+premiumCart+"/items/"+pid,
		map[string]interface{}{"quantity": 1}, premiumToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "you cannot add your own products to a cart", decoded["error"])

	// The identical call by an admin succeeds.
	_, _, adminToken := registerUser(t, app, "admin@example.com", models.RoleAdmin)
	resp, _ = doJSON(t, app, http.MethodPost, "/api/carts/"+premiumCart+"/items/"+pid,
		map[string]interface{}{"quantity": 1}, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPremiumProductOwnership(t *testing.T) {
	app := setupApp(t)

	_, _, sellerToken := registerUser(t, app, "seller@example.com", models.RolePremium)
	pid := createProduct(t, app, sellerToken, "Handmade", "H-1", 25, 5)

	_, _, otherToken := registerUser(t, app, "other@example.com", models.RolePremium)

	resp, _ := doJSON(t, app, http.MethodPut, "/api/products/"+pid, map[string]interface{}{
		"title": "Hijacked",
		"code":  "H-1",
		"price": 1.0,
		"stock": 5,
	}, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/products/"+pid, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The owner may edit their own product.
	resp, _ = doJSON(t, app, http.MethodPut, "/api/products/"+pid, map[string]interface{}{
		"title": "Handmade v2",
		"code":  "H-1",
		"price": 30.0,
		"stock": 5,
	}, sellerToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBulkReplaceBypassesStock(t *testing.T) {
	app := setupApp(t)

	_, _, adminToken := registerUser(t, app, "admin@example.com", models.RoleAdmin)
	pid := createProduct(t, app, adminToken, "Gadget", "G-1", 10, 5)
	_, cartID, userToken := registerUser(t, app, "buyer@example.com", "")

	resp, decoded := doJSON(t, app, http.MethodPut, "/api/carts/"+cartID, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": pid, "quantity": 500},
		},
	}, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items := decoded["cart"].(map[string]interface{})["items"].([]interface{})
	assert.Equal(t, float64(500), items[0].(map[string]interface{})["quantity"])
}

func TestDeactivationTakesEffectImmediately(t *testing.T) {
	app := setupApp(t)

	_, _, adminToken := registerUser(t, app, "admin@example.com", models.RoleAdmin)
	uid, _, userToken := registerUser(t, app, "target@example.com", "")

	// The user's token works before deactivation.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/sessions/current", nil, userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/users/"+uid, nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The still-valid token is now rejected: identity is re-resolved on
	// every request.
	resp, decoded := doJSON(t, app, http.MethodGet, "/api/sessions/current", nil, userToken)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "account is inactive", decoded["error"])

	// And login is refused.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/sessions/login", map[string]interface{}{
		"email":    "target@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUserListAdminOnly(t *testing.T) {
	app := setupApp(t)

	_, _, adminToken := registerUser(t, app, "admin@example.com", models.RoleAdmin)
	_, _, userToken := registerUser(t, app, "pleb@example.com", "")

	resp, decoded := doJSON(t, app, http.MethodGet, "/api/users/", nil, userToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, decoded["error"], "admin", "the rejection names the required role")

	resp, decoded = doJSON(t, app, http.MethodGet, "/api/users/", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), decoded["total"])
}

func TestTogglePremium(t *testing.T) {
	app := setupApp(t)

	_, _, adminToken := registerUser(t, app, "admin@example.com", models.RoleAdmin)
	uid, _, _ := registerUser(t, app, "member@example.com", "")

	resp, decoded := doJSON(t, app, http.MethodPut, "/api/users/"+uid+"/premium", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "premium", decoded["user"].(map[string]interface{})["role"])

	resp, decoded = doJSON(t, app, http.MethodPut, "/api/users/"+uid+"/premium", nil, adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user", decoded["user"].(map[string]interface{})["role"])
}
