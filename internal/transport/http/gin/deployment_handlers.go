package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-factory/internal/domain"
	redisx "github.com/kirinyoku/tix-factory/internal/redis"
	"github.com/kirinyoku/tix-factory/internal/service/inventory"
)

const (
	metadataMaxAge = 10 * time.Minute
	showsMaxAge    = 15 * time.Second
	idemLockTTL    = 60 * time.Second
)

// @Summary  Get deployment metadata
// @Param    dep  path  string  true  "Deployment"
// @Success  200  {object}  domain.ContractMetadata
// @Failure  404  {object}  ErrorResponse
// @Router   /deployments/{dep} [get]
func (h *handlers) getMetadata(c *gin.Context) {
	meta, err := h.svcs.Query.Metadata(c.Request.Context(), deploymentParam(c))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	writeJSONWithCache(c, http.StatusOK, meta, metadataMaxAge)
}

// @Summary  Transfer deployment ownership
// @Security BearerAuth
// @Param    dep  path  string                true  "Deployment"
// @Param    req  body  TransferOwnerRequest  true  "payload"
// @Success  204
// @Failure  403 {object} ErrorResponse
// @Router   /deployments/{dep}/owner [put]
func (h *handlers) transferOwner(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req TransferOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	err := h.svcs.Inventory.TransferOwnership(c.Request.Context(), caller.Account, deploymentParam(c), domain.AccountID(req.NewOwner))
	h.respondErr(c, err)
}

// @Summary  Renounce deployment ownership
// @Security BearerAuth
// @Param    dep  path  string  true  "Deployment"
// @Success  204
// @Failure  403 {object} ErrorResponse
// @Router   /deployments/{dep}/owner [delete]
func (h *handlers) renounceOwner(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	err := h.svcs.Inventory.RenounceOwnership(c.Request.Context(), caller.Account, deploymentParam(c))
	h.respondErr(c, err)
}

// @Summary  List shows
// @Param    dep     path   string  true   "Deployment"
// @Param    active  query  bool    false  "only shows on sale now"
// @Success  200  {array}   domain.Show
// @Router   /deployments/{dep}/shows [get]
func (h *handlers) listShows(c *gin.Context) {
	var (
		shows []domain.Show
		err   error
	)
	if c.Query("active") == "true" {
		shows, err = h.svcs.Query.ActiveShows(c.Request.Context(), deploymentParam(c))
	} else {
		shows, err = h.svcs.Query.AllShows(c.Request.Context(), deploymentParam(c))
	}
	if err != nil {
		h.respondErr(c, err)
		return
	}

	writeJSONWithCache(c, http.StatusOK, shows, showsMaxAge)
}

// @Summary  Create show
// @Security BearerAuth
// @Param    dep  path  string             true  "Deployment"
// @Param    req  body  CreateShowRequest  true  "payload"
// @Success  201 {object} domain.Show
// @Failure  403 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "show exists"
// @Router   /deployments/{dep}/shows [post]
func (h *handlers) createShow(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req CreateShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	show, err := h.svcs.Inventory.CreateShow(c.Request.Context(), caller.Account, deploymentParam(c), req.toInput())
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, show)
}

// @Summary  Get show
// @Param    dep   path  string  true  "Deployment"
// @Param    show  path  string  true  "Show key"
// @Success  200  {object}  domain.Show
// @Failure  404  {object}  ErrorResponse
// @Router   /deployments/{dep}/shows/{show} [get]
func (h *handlers) getShow(c *gin.Context) {
	show, err := h.svcs.Query.Show(c.Request.Context(), deploymentParam(c), c.Param("show"))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	writeJSONWithCache(c, http.StatusOK, show, showsMaxAge)
}

// @Summary  Add ticket type
// @Security BearerAuth
// @Param    dep   path  string             true  "Deployment"
// @Param    show  path  string             true  "Show key"
// @Param    req   body  TicketTypeRequest  true  "payload"
// @Success  201 {object} domain.TicketType
// @Failure  409 {object} ErrorResponse "type exists"
// @Router   /deployments/{dep}/shows/{show}/ticket-types [post]
func (h *handlers) addTicketType(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req TicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tt, err := h.svcs.Inventory.AmendTicketType(c.Request.Context(), caller.Account, deploymentParam(c), c.Param("show"), req.toSpec(), inventory.ModeAdd)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, tt)
}

// @Summary  Edit ticket type
// @Security BearerAuth
// @Param    dep   path  string                 true  "Deployment"
// @Param    show  path  string                 true  "Show key"
// @Param    type  path  string                 true  "Ticket type"
// @Param    req   body  EditTicketTypeRequest  true  "payload"
// @Success  200 {object} domain.TicketType
// @Failure  404 {object} ErrorResponse
// @Router   /deployments/{dep}/shows/{show}/ticket-types/{type} [put]
func (h *handlers) editTicketType(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req EditTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	spec := domain.TicketTypeSpec{Name: c.Param("type"), Supply: req.Supply, Price: req.Price}
	tt, err := h.svcs.Inventory.AmendTicketType(c.Request.Context(), caller.Account, deploymentParam(c), c.Param("show"), spec, inventory.ModeEdit)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, tt)
}

// @Summary  Buy a ticket (idempotent)
// @Description  Takes the deposit and schedules the mint. The ticket exists once the saga is committed.
// @Security BearerAuth
// @Param    dep   path  string          true  "Deployment"
// @Param    show  path  string          true  "Show key"
// @Param    type  path  string          true  "Ticket type"
// @Param    req   body  DepositRequest  true  "payload"
// @Header   202 {string} Idempotency-Key "echo"
// @Success  202 {object} sale.Purchase
// @Failure  402 {object} ErrorResponse "deposit below price"
// @Failure  409 {object} ErrorResponse "sold out / not on sale / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /deployments/{dep}/shows/{show}/ticket-types/{type}/purchases [post]
func (h *handlers) buyTicket(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	deployment := deploymentParam(c)

	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	var idemStorageKey string
	if h.idem != nil && idemKey != "" {
		idemStorageKey = redisx.KeyIdemPurchase(string(deployment), string(caller.Account), idemKey)

		if payload, ok, _ := h.idem.GetResult(c.Request.Context(), idemStorageKey); ok {
			replay(c, idemKey, payload)
			return
		}

		locked, err := h.idem.AcquireLock(c.Request.Context(), idemStorageKey, idemLockTTL)
		if err != nil {
			h.respondErr(c, err)
			return
		}
		if !locked {
			if payload, ok, _ := h.idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				replay(c, idemKey, payload)
				return
			}
			c.Header("Retry-After", "1")
			c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
			return
		}
	}

	p, err := h.svcs.Sale.BuyTicket(c.Request.Context(), caller, deployment, c.Param("show"), c.Param("type"), req.Deposit)
	if err != nil {
		if idemStorageKey != "" {
			_ = h.idem.Release(c.Request.Context(), idemStorageKey)
		}
		h.respondErr(c, err)
		return
	}

	if idemStorageKey != "" {
		b, _ := json.Marshal(p)
		if err := h.idem.SaveResult(c.Request.Context(), idemStorageKey, string(b)); err != nil {
			h.logger.Warn("idempotency result not saved", "key", idemStorageKey, "error", err)
		}
		c.Header("Idempotency-Key", idemKey)
	}

	c.JSON(http.StatusAccepted, p)
}

func replay(c *gin.Context, idemKey, payload string) {
	c.Header("Idempotency-Key", idemKey)
	c.Data(http.StatusAccepted, "application/json; charset=utf-8", []byte(payload))
}

// @Summary  Redeem a ticket
// @Security BearerAuth
// @Param    dep    path  string          true  "Deployment"
// @Param    token  path  string          true  "Ticket id"
// @Param    req    body  DepositRequest  true  "payload, deposit must equal the redeem fee"
// @Success  200 {object} domain.Ticket
// @Failure  402 {object} ErrorResponse
// @Failure  403 {object} ErrorResponse "not the owner"
// @Failure  404 {object} ErrorResponse
// @Router   /deployments/{dep}/tickets/{token}/redeem [post]
func (h *handlers) redeem(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	t, err := h.svcs.Sale.Redeem(c.Request.Context(), caller.Account, deploymentParam(c), c.Param("token"), req.Deposit)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

// @Summary  Get ticket with its show
// @Param    dep    path  string  true  "Deployment"
// @Param    token  path  string  true  "Ticket id"
// @Success  200 {object} domain.Ticket
// @Failure  404 {object} ErrorResponse
// @Router   /deployments/{dep}/tickets/{token} [get]
func (h *handlers) getTicket(c *gin.Context) {
	t, err := h.svcs.Query.Ticket(c.Request.Context(), deploymentParam(c), c.Param("token"))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

// @Summary  List tickets held by an account
// @Param    dep      path  string  true  "Deployment"
// @Param    account  path  string  true  "Owner"
// @Success  200 {array} domain.Ticket
// @Router   /deployments/{dep}/owners/{account}/tickets [get]
func (h *handlers) listTickets(c *gin.Context) {
	tickets, err := h.svcs.Query.TicketsOwnedBy(c.Request.Context(), deploymentParam(c), domain.AccountID(c.Param("account")))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, tickets)
}
