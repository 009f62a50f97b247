package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"poinup/controllers/admin"
	"poinup/controllers/callback/adjoe"
	"poinup/controllers/callback/qureka"
	"poinup/controllers/callback/tapjoy"
	"poinup/controllers/user"
	"poinup/middlewares"
	"poinup/models"
)

func Setup(app *fiber.App) {
	userroutes := app.Group("/user", middlewares.RequestThrottle(60, time.Minute))
	userroutes.Post("/register", user.RegisterUser)
	userroutes.Post("/balance", user.CheckUserBalance)
	userroutes.Post("/games/start", user.StartGame)

	adminroutes := app.Group("/admin", middlewares.AdminAuth())
	adminroutes.Post("/wallet/adjust", admin.AdjustWallet)
	adminroutes.Get("/fraud/review", admin.ListReviewQueue)
	adminroutes.Post("/fraud/review/:id/resolve", admin.ResolveReviewEntry)

	// provider callbacks
	adjoeroutes := app.Group("/seamless/rewards/adjoe", middlewares.ProviderSignature(models.ProviderAdjoe))
	adjoeroutes.Post("/callback", adjoe.RewardCallback)

	qurekaroutes := app.Group("/seamless/rewards/qureka", middlewares.ProviderSignature(models.ProviderQureka))
	qurekaroutes.Post("/callback", qureka.RewardCallback)

	// tapjoy signs with a query verifier, checked inside the handler
	app.Get("/seamless/rewards/tapjoy/callback", tapjoy.RewardCallback)
}
