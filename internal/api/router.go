package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/digi-solutions-co-uk/digi-payment-system/internal/api/handlers"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/api/middleware"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/config"
	"github.com/digi-solutions-co-uk/digi-payment-system/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client) *gin.Engine {
	// Initialize services needed by API handlers here.
	repo := services.NewBillingRepository(db)
	activityService := services.NewActivityService(db)
	userService := services.NewUserService(db)
	customerService := services.NewCustomerService(db)
	planService := services.NewPlanService(db, cfg, rdb)
	subscriptionService := services.NewSubscriptionService(db, cfg, planService, activityService)
	invoiceService := services.NewInvoiceService(db, activityService)
	paymentService := services.NewPaymentService(repo)
	billingService := services.NewBillingService(repo)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	// Initialize handlers.
	authHandler := handlers.NewAuthHandler(cfg, userService)
	customerHandler := handlers.NewCustomerHandler(customerService, invoiceService)
	planHandler := handlers.NewPlanHandler(planService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	billingHandler := handlers.NewBillingHandler(billingService)

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.POST("/auth/login", authHandler.Login)
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/customers", customerHandler.CreateCustomer)
			authRequired.GET("/customers", customerHandler.ListCustomers)
			authRequired.GET("/customers/:id", customerHandler.GetCustomer)
			authRequired.PUT("/customers/:id/status", customerHandler.UpdateCustomerStatus)
			authRequired.GET("/customers/:id/invoices", customerHandler.ListCustomerInvoices)

			authRequired.POST("/plans", planHandler.CreatePlan)
			authRequired.GET("/plans", planHandler.ListPlans)
			authRequired.GET("/plans/:id", planHandler.GetPlan)

			authRequired.POST("/subscriptions", subscriptionHandler.CreateSubscription)
			authRequired.GET("/subscriptions", subscriptionHandler.ListSubscriptions)
			authRequired.GET("/subscriptions/:id", subscriptionHandler.GetSubscription)
			authRequired.PUT("/subscriptions/:id/status", subscriptionHandler.UpdateSubscriptionStatus)
			authRequired.PUT("/subscriptions/:id/plan", subscriptionHandler.ChangePlan)

			authRequired.POST("/invoices", invoiceHandler.CreateManualInvoice)
			authRequired.GET("/invoices/:id", invoiceHandler.GetInvoice)

			authRequired.POST("/payments", paymentHandler.RecordPayment)
		}

		// Admin routes: manual triggers for the scheduled billing jobs.
		adminRequired := v1.Group("/billing")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/generate", billingHandler.GenerateInvoices)
			adminRequired.POST("/sweep-overdue", billingHandler.SweepOverdue)
		}
	}

	return r
}
