// Package app wires the HTTP surface: dependencies, middleware and routes
package app

import (
	"context"
	"time"

	"vidcollab/api/app/auth"
	"vidcollab/api/app/google"
	"vidcollab/api/app/root"
	"vidcollab/api/app/team"
	"vidcollab/api/app/video"
	"vidcollab/api/internal"
	"vidcollab/api/internal/model"
	"vidcollab/api/pkg/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TODO: use redis once more than one instance serves the API
var cacheStore = persist.NewMemoryStore(time.Minute)

func NewRouter(ctx context.Context, d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors_origins"),
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
			ExposeHeaders:    []string{"Content-Length", "Content-Range", "Accept-Ranges", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("user_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 8 << 20

	rateLimit := viper.GetInt("security.rate_limit")
	authed := middleware.NewAuthMiddleware(d.Accounts)
	youtuber := middleware.RequireRole(model.RoleYoutuber)
	editor := middleware.RequireRole(model.RoleEditor)

	// GET / 				-> Welcome message
	router.GET("/", root.Welcome)

	main := router.Group("/api", middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	}))
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
		main.GET("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	a := main.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/auth/signup	-> Creates a youtuber or requests to join one as editor
		a.POST("/signup", func(c *gin.Context) { auth.Signup(c, d) })

		// POST /api/auth/login		-> Returns a session token
		a.POST("/login", func(c *gin.Context) { auth.Login(c, d) })

		// GET /api/auth/me		-> Returns the caller's account
		a.GET("/me", authed, func(c *gin.Context) { auth.Me(c, d) })
	}

	g := main.Group("/google")
	{
		// GET /api/google/connect	-> Returns the Google consent URL
		g.GET("/connect", authed, youtuber, func(c *gin.Context) { google.Connect(c, d) })

		// GET /api/google/oauth2callback	-> Google redirects here after consent
		g.GET("/oauth2callback", func(c *gin.Context) { google.Callback(c, d) })
	}

	v := main.Group("/video")
	{
		// GET /api/video		-> Lists the caller's videos
		v.GET("", authed, func(c *gin.Context) { video.List(c, d) })

		// POST /api/video/upload	-> Uploads a video for review
		v.POST("/upload", authed, editor, middleware.BodySizeLimiter(d.MaxUploadSize+1<<20), func(c *gin.Context) { video.Upload(c, d) })

		// GET /api/video/stream/:fileId	-> Streams a chunk of a video
		v.GET("/stream/:fileId", func(c *gin.Context) { video.Stream(c, d) })

		// POST /api/video/approve-json/:videoId	-> Publishes a video to YouTube
		v.POST("/approve-json/:videoId", authed, youtuber, func(c *gin.Context) { video.Approve(c, d) })

		// POST /api/video/reject-json/:videoId	-> Sends a video back for review
		v.POST("/reject-json/:videoId", authed, youtuber, func(c *gin.Context) { video.Reject(c, d) })

		// POST /api/video/:videoId/approve?token=	-> Approve from the emailed link
		v.POST("/:videoId/approve", func(c *gin.Context) { video.ApproveWithToken(c, d) })

		// POST /api/video/:videoId/reject?token=	-> Reject from the emailed link
		v.POST("/:videoId/reject", func(c *gin.Context) { video.RejectWithToken(c, d) })
	}

	t := main.Group("/team", authed, youtuber, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/team/invite	-> Emails a signup link
		t.POST("/invite", func(c *gin.Context) { team.Invite(c, d) })

		// GET /api/team/editors	-> Lists the youtuber's editors
		t.GET("/editors", func(c *gin.Context) { team.Editors(c, d) })

		// GET /api/team/pending-invites	-> Lists unexpired join requests
		t.GET("/pending-invites", func(c *gin.Context) { team.PendingInvites(c, d) })

		// POST /api/team/pending-invites/:id/approve	-> Creates the editor account
		t.POST("/pending-invites/:id/approve", func(c *gin.Context) { team.ApproveInvite(c, d) })

		// POST /api/team/pending-invites/:id/deny	-> Denies a join request
		t.POST("/pending-invites/:id/deny", func(c *gin.Context) { team.DenyInvite(c, d) })

		// PATCH /api/team/editor/:id/activate
		t.PATCH("/editor/:id/activate", func(c *gin.Context) { team.Activate(c, d) })

		// PATCH /api/team/editor/:id/deactivate
		t.PATCH("/editor/:id/deactivate", func(c *gin.Context) { team.Deactivate(c, d) })

		// DELETE /api/team/editor/:id	-> Removes an editor
		t.DELETE("/editor/:id", func(c *gin.Context) { team.Remove(c, d) })

		// GET /api/team/editor/:id/history	-> An editor's uploads with stats
		t.GET("/editor/:id/history", cachePerUser(15), func(c *gin.Context) { team.History(c, d) })
	}

	return router
}

// cachePerUser caches responses per caller. Must run after the auth
// middleware, responses differ between youtubers for the same URI.
func cachePerUser(sec int) gin.HandlerFunc {
	return cache.Cache(cacheStore, time.Second*time.Duration(sec),
		cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
			return true, cache.Strategy{
				CacheKey: c.GetString("userID") + ":" + c.Request.RequestURI,
			}
		}),
	)
}
