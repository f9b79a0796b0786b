package httpgin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-factory/internal/domain"
	redisrepo "github.com/kirinyoku/tix-factory/internal/repository/redis"
	"github.com/kirinyoku/tix-factory/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter builds the HTTP API. idem is optional; without it purchases are
// not deduplicated by Idempotency-Key.
func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	tokens TokenParser,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	h := &handlers{svcs: svcs, idem: idem, logger: logger}
	authed := AuthMiddleware(tokens)

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/sagas/:id", h.getSaga)
	r.GET("/accounts/:id", h.getAccount)

	factory := r.Group("/factory")
	{
		factory.GET("/owners/:account/deployments", h.listDeployments)
		factory.POST("/deployments", authed, h.provision)
		factory.POST("/accounts/:account/credit", authed, h.credit)
	}

	dep := r.Group("/deployments/:dep")
	{
		dep.GET("", h.getMetadata)
		dep.PUT("/owner", authed, h.transferOwner)
		dep.DELETE("/owner", authed, h.renounceOwner)

		dep.GET("/shows", h.listShows)
		dep.POST("/shows", authed, h.createShow)
		dep.GET("/shows/:show", h.getShow)
		dep.POST("/shows/:show/ticket-types", authed, h.addTicketType)
		dep.PUT("/shows/:show/ticket-types/:type", authed, h.editTicketType)
		dep.POST("/shows/:show/ticket-types/:type/purchases", authed, h.buyTicket)

		dep.GET("/tickets/:token", h.getTicket)
		dep.POST("/tickets/:token/redeem", authed, h.redeem)
		dep.GET("/owners/:account/tickets", h.listTickets)
	}

	return r
}

type handlers struct {
	svcs   *service.Services
	idem   *redisrepo.IdempotencyStore
	logger *slog.Logger
}

// --- Helpers ---

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// mustCaller returns the authenticated caller. Routes behind AuthMiddleware
// always have one.
func mustCaller(c *gin.Context) (domain.Caller, bool) {
	caller, ok := callerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	return caller, ok
}

func deploymentParam(c *gin.Context) domain.AccountID {
	return domain.AccountID(c.Param("dep"))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotStarted),
		errors.Is(err, domain.ErrEnded),
		errors.Is(err, domain.ErrSoldOut):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientDeposit),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidKey),
		errors.Is(err, domain.ErrInvalidSupply),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSaleWindow),
		errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrInvalidMetadata):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		c.Header("Retry-After", "60")
	}

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		if status == http.StatusInternalServerError {
			c.JSON(status, ErrorResponse{Error: "internal error"})
			return
		}
	}

	c.JSON(status, ErrorResponse{Error: err.Error()})
}
