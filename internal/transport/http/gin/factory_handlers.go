package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

// @Summary  Provision a ticket-sales deployment
// @Description  Charges the deposit and creates <prefix>.<factory> asynchronously.
// @Security BearerAuth
// @Param    req body  ProvisionRequest true "payload"
// @Success  202 {object} factory.Provisioning
// @Failure  400 {object} ErrorResponse
// @Failure  402 {object} ErrorResponse "deposit must equal fee plus capital"
// @Failure  502 {object} ErrorResponse "chain could not be scheduled, deposit refunded"
// @Router   /factory/deployments [post]
func (h *handlers) provision(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.svcs.Factory.Provision(c.Request.Context(), caller, req.Prefix, req.Metadata.toDomain(), req.Deposit)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusAccepted, p)
}

// @Summary  List deployments provisioned for an account
// @Param    account  path  string  true  "Organizer account"
// @Success  200  {object}  DeploymentsResponse
// @Router   /factory/owners/{account}/deployments [get]
func (h *handlers) listDeployments(c *gin.Context) {
	owner := domain.AccountID(c.Param("account"))

	ids, err := h.svcs.Factory.DeploymentsOwnedBy(c.Request.Context(), owner)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, DeploymentsResponse{Owner: owner, Deployments: ids})
}

// @Summary  Credit an account (factory owner only)
// @Security BearerAuth
// @Param    account  path  string         true  "Account"
// @Param    req      body  CreditRequest  true  "payload"
// @Success  200 {object} domain.Account
// @Failure  403 {object} ErrorResponse
// @Router   /factory/accounts/{account}/credit [post]
func (h *handlers) credit(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var req CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	acc, err := h.svcs.Factory.Credit(c.Request.Context(), caller.Account, domain.AccountID(c.Param("account")), req.Amount)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, acc)
}

// @Summary  Get saga state
// @Param    id  path  string  true  "Saga ID (uuid)"
// @Success  200 {object} domain.Saga
// @Failure  404 {object} ErrorResponse
// @Router   /sagas/{id} [get]
func (h *handlers) getSaga(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid saga id")
		return
	}

	saga, err := h.svcs.Query.Saga(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, saga)
}

// @Summary  Get account balance
// @Param    id  path  string  true  "Account"
// @Success  200 {object} domain.Account
// @Failure  404 {object} ErrorResponse
// @Router   /accounts/{id} [get]
func (h *handlers) getAccount(c *gin.Context) {
	acc, err := h.svcs.Query.Account(c.Request.Context(), domain.AccountID(c.Param("id")))
	if err != nil {
		h.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, acc)
}
