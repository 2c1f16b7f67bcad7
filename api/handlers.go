package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitfsorg/libclaim-go/amount"
	"github.com/bitfsorg/libclaim-go/contract"
	"github.com/bitfsorg/libclaim-go/settlement"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

type registerRequest struct {
	Title          string `json:"title" binding:"required"`
	TokenContract  string `json:"token_contract" binding:"required"`
	ReleaseStartMs uint64 `json:"release_start_ms"`
	ReleaseEndMs   uint64 `json:"release_end_ms"`
}

type addClaimsRequest struct {
	TotalAmount string                `json:"total_amount" binding:"required"`
	Claims      []contract.ClaimInput `json:"claims"`
}

type scheduleRequest struct {
	ReleaseStartMs uint64 `json:"release_start_ms"`
	ReleaseEndMs   uint64 `json:"release_end_ms"`
}

type resolveRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Reason  string `json:"reason"`
}

type pruneRequest struct {
	Accounts []string `json:"accounts"`
}

type accountRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) info(c *gin.Context) {
	c.JSON(http.StatusOK, s.contract.Info())
}

func (s *Server) listAirdrops(c *gin.Context) {
	all, ok := boolQuery(c, "all")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.contract.Airdrops(all))
}

func (s *Server) getAirdrop(c *gin.Context) {
	id, ok := airdropParam(c)
	if !ok {
		return
	}
	v, err := s.contract.Airdrop(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) registerAirdrop(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := s.contract.RegisterAirdrop(c.Request.Context(), caller(c),
		req.Title, req.TokenContract, req.ReleaseStartMs, req.ReleaseEndMs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"airdrop_index": id})
}

func (s *Server) addClaims(c *gin.Context) {
	id, ok := airdropParam(c)
	if !ok {
		return
	}
	var req addClaimsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	total, err := amount.FromString(req.TotalAmount)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.contract.AddClaims(caller(c), id, total, req.Claims); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": len(req.Claims)})
}

func (s *Server) enableAirdrop(c *gin.Context) {
	id, ok := airdropParam(c)
	if !ok {
		return
	}
	if err := s.contract.EnableAirdrop(c.Request.Context(), caller(c), id); err != nil {
		fail(c, err)
		return
	}
	s.respondAirdrop(c, id)
}

func (s *Server) disableAirdrop(c *gin.Context) {
	id, ok := airdropParam(c)
	if !ok {
		return
	}
	if err := s.contract.DisableAirdrop(caller(c), id); err != nil {
		fail(c, err)
		return
	}
	s.respondAirdrop(c, id)
}

func (s *Server) archiveAirdrop(c *gin.Context) {
	id, ok := airdropParam(c)
	if !ok {
		return
	}
	if err := s.contract.ArchiveAirdrop(caller(c), id); err != nil {
		fail(c, err)
		return
	}
	s.respondAirdrop(c, id)
}

func (s *Server) changeSchedule(c *gin.Context) {
	id, ok := airdropParam(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.contract.ChangeSchedule(caller(c), id, req.ReleaseStartMs, req.ReleaseEndMs); err != nil {
		fail(c, err)
		return
	}
	s.respondAirdrop(c, id)
}

func (s *Server) respondAirdrop(c *gin.Context, id uint16) {
	v, err := s.contract.Airdrop(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// claim answers 202 with the pending settlement. With ?wait=true it blocks
// until the outcome is recorded and answers with the event instead; an
// unknown outcome still answers 202.
func (s *Server) claim(c *gin.Context) {
	id, ok := airdropParam(c)
	if !ok {
		return
	}
	wait, ok := boolQuery(c, "wait")
	if !ok {
		return
	}
	p, err := s.contract.Claim(caller(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	pending := contract.NewSettlementView(settlement.Settlement{
		Handle: p.Handle,
		Phase:  settlement.PhaseTransferPending,
	})
	if !wait {
		c.JSON(http.StatusAccepted, pending)
		return
	}
	select {
	case ev, ok := <-p.Done:
		if !ok {
			c.JSON(http.StatusAccepted, pending)
			return
		}
		c.JSON(http.StatusOK, contract.NewEventView(ev))
	case <-c.Request.Context().Done():
		c.JSON(http.StatusAccepted, pending)
	}
}

func (s *Server) resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	outcome, err := settlement.ParseOutcome(req.Outcome)
	if err != nil {
		fail(c, err)
		return
	}
	ev, dup, err := s.contract.ResolveClaim(caller(c), c.Param("id"), outcome, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicate": dup, "event": contract.NewEventView(ev)})
}

func (s *Server) pendingSettlements(c *gin.Context) {
	c.JSON(http.StatusOK, s.contract.PendingSettlements())
}

func (s *Server) getSettlement(c *gin.Context) {
	v, err := s.contract.Settlement(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) prune(c *gin.Context) {
	var req pruneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	removed, err := s.contract.RemoveUsedClaims(req.Accounts)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) listAccounts(c *gin.Context) {
	from, ok := intQuery(c, "from", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", defaultPageLimit)
	if !ok {
		return
	}
	if from < 0 || limit < 1 {
		badRequest(c, "from must be >= 0 and limit >= 1")
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	users, err := s.contract.Users(from, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) accountClaims(c *gin.Context) {
	inactive, ok := boolQuery(c, "inactive")
	if !ok {
		return
	}
	v, err := s.contract.UserClaims(c.Param("account"), inactive)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) inClaims(c *gin.Context) {
	tok := c.Param("token")
	c.JSON(http.StatusOK, gin.H{"token_contract": tok, "in_claims": s.contract.TotalInClaims(tok).Dec()})
}

func (s *Server) setOwner(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.contract.SetOwner(caller(c), req.AccountID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.contract.Info())
}

func (s *Server) setOperator(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.contract.SetOperator(caller(c), req.AccountID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.contract.Info())
}

func caller(c *gin.Context) string { return c.GetString(callerKey) }

func airdropParam(c *gin.Context) (uint16, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 16)
	if err != nil {
		badRequest(c, "invalid airdrop id")
		return 0, false
	}
	return uint16(id), true
}

func boolQuery(c *gin.Context, key string) (bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid "+key)
		return false, false
	}
	return v, true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+key)
		return 0, false
	}
	return v, true
}
