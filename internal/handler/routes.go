package handler

import (
	"go-ecom-api/internal/middleware"
	"go-ecom-api/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every route handler of the API.
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Dashboard *DashboardHandler
	Product   *ProductHandler
	Category  *CategoryHandler
	Order     *OrderHandler
	Address   *AddressHandler
	Cart      *CartHandler
	Wishlist  *WishlistHandler
	Review    *ReviewHandler
	WS        *WSHandler
}

// SetupRoutes mounts the API under /api/v1 and the live feed under /ws.
// requireAuth guards everything except registration and login.
func SetupRoutes(app *fiber.App, h *Handlers, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Put("/password", requireAuth, h.Auth.ChangePassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/users/profile", h.User.GetProfile)
	protected.Put("/users/profile", h.User.UpdateProfile)

	admin := protected.Group("/admin", middleware.RequireAnyPrivilege(policy.UserView, policy.UserChangeRole, policy.ReportView))
	admin.Get("/sellers", middleware.RequirePrivilege(policy.UserView), h.User.GetSellers)
	admin.Get("/users", middleware.RequirePrivilege(policy.UserView), h.User.GetUsers)
	admin.Get("/users/count", middleware.RequirePrivilege(policy.UserView), h.User.GetRegistrationStats)
	admin.Put("/users/:id/role", middleware.RequirePrivilege(policy.UserChangeRole), h.User.ChangeRole)
	admin.Get("/dashboard/stats", middleware.RequirePrivilege(policy.ReportView), h.Dashboard.GetDashboardStats)
	admin.Get("/dashboard/sales", middleware.RequirePrivilege(policy.ReportView), h.Dashboard.GetSales)

	// Product Routes
	products := protected.Group("/products")
	products.Get("/", h.Product.GetProducts)
	products.Post("/create", middleware.RequirePrivilege(policy.ProductCreate), h.Product.CreateProduct)
	products.Get("/:id", h.Product.GetProduct)
	products.Put("/:id", middleware.RequirePrivilege(policy.ProductUpdate), h.Product.UpdateProduct)
	products.Delete("/:id", middleware.RequirePrivilege(policy.ProductDelete), h.Product.DeleteProduct)

	// Category Routes
	categories := protected.Group("/categories")
	categories.Get("/", h.Category.GetCategories)
	categories.Post("/create", middleware.RequirePrivilege(policy.CategoryCreate), h.Category.CreateCategory)
	categories.Get("/:id", h.Category.GetCategory)
	categories.Put("/:id", middleware.RequirePrivilege(policy.CategoryUpdate), h.Category.UpdateCategory)
	categories.Delete("/:id", middleware.RequirePrivilege(policy.CategoryDelete), h.Category.DeleteCategory)

	// Order Routes
	orders := protected.Group("/orders")
	orders.Get("/", h.Order.GetOrders)
	orders.Get("/all", h.Order.GetAllOrders)
	orders.Post("/create", h.Order.CreateOrder)
	orders.Post("/checkout", h.Order.Checkout)
	orders.Get("/:id", h.Order.GetOrder)
	orders.Post("/:id/pay", h.Order.PayOrder)
	orders.Put("/:id/status", middleware.RequirePrivilege(policy.OrderUpdateStatus), h.Order.UpdateStatus)
	orders.Delete("/:id", h.Order.CancelOrder)

	addresses := protected.Group("/addresses")
	addresses.Post("/", h.Address.CreateAddress)
	addresses.Get("/", h.Address.GetAddresses)
	addresses.Put("/:id", h.Address.UpdateAddress)
	addresses.Delete("/:id", h.Address.DeleteAddress)

	cart := protected.Group("/cart")
	cart.Post("/", h.Cart.AddItem)
	cart.Get("/", h.Cart.GetCart)
	cart.Delete("/", h.Cart.ClearCart)
	cart.Put("/:id", h.Cart.UpdateItem)
	cart.Delete("/:id", h.Cart.RemoveItem)

	wishlist := protected.Group("/wishlist")
	wishlist.Post("/", h.Wishlist.AddItem)
	wishlist.Get("/", h.Wishlist.GetWishlist)
	wishlist.Delete("/:id", h.Wishlist.RemoveItem)

	reviews := protected.Group("/reviews")
	reviews.Post("/", h.Review.CreateReview)
	reviews.Get("/products/:product_id", h.Review.GetProductReviews)
	reviews.Put("/:id", h.Review.UpdateReview)
	reviews.Delete("/:id", h.Review.DeleteReview)

	// WebSocket Route
	if h.WS != nil {
		app.Use("/ws", h.WS.RequireUpgrade)
		app.Get("/ws", requireAuth, middleware.RequirePrivilege(policy.EventsSubscribe), h.WS.Stream())
	}
}
