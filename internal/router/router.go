package router

import (
	"net/http"
	"time"

	"botgate/internal/captcha"
	"botgate/internal/config"
	"botgate/internal/detector"
	"botgate/internal/handlers"
	"botgate/internal/session"
	"botgate/internal/utils"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

// Setup wires the HTTP surface: cookie session carrying the opaque
// verification-session ID, rate limiting on the answer endpoints, security
// headers, and the verification/movement/admin handlers.
func Setup(log *zap.Logger, machine *captcha.Machine, store *session.Store, det *detector.Detector) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secret := config.Conf.Server.SessionSecret
	if secret == "" {
		// Sessions survive only as long as the process anyway; a random
		// secret keeps an unconfigured deployment from shipping a static key.
		generated, err := utils.GenerateSecureToken(32)
		if err != nil {
			log.Fatal("Failed to generate session secret", zap.Error(err))
		}
		log.Warn("server.session_secret not set, using a random per-process secret")
		secret = generated
	}

	cookieStore := cookie.NewStore([]byte(secret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   3600, // One verification flow; state dies server-side anyway
	})
	router.Use(sessions.Sessions("botgate", cookieStore))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	router.Static("/assets", "./assets")

	// Handlers and routes
	verifyHandler := handlers.NewVerifyHandler(log, machine, store)
	movementHandler := handlers.NewMovementHandler(log, det)
	adminHandler := handlers.NewAdminHandler(log)

	// Answer submissions are user-driven retries; keep the budget sane.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 30,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/start_verification", verifyHandler.StartVerification)
	router.GET("/get_current_challenge", verifyHandler.GetCurrentChallenge)
	router.POST("/verify_captcha", limiter, verifyHandler.VerifyCaptcha)

	router.POST("/verify", limiter, movementHandler.VerifyMovement)
	router.POST("/capture", movementHandler.Capture)

	admin := router.Group("/admin")
	admin.Use(AdminAuth(log))
	{
		admin.GET("/stats", adminHandler.ShowStats)
	}

	return router
}
