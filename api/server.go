// Package api exposes the claim contract over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bitfsorg/libclaim-go/contract"
)

// Server routes HTTP requests to a contract.
type Server struct {
	contract *contract.Contract
	log      *zap.Logger
	engine   *gin.Engine
}

// NewServer builds the router. A nil logger disables request logging.
func NewServer(c *contract.Contract, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{contract: c, log: log, engine: gin.New()}
	// No proxy is trusted: ClientIP is always the peer address.
	if err := s.engine.SetTrustedProxies(nil); err != nil {
		log.Warn("set trusted proxies", zap.Error(err))
	}
	s.engine.Use(gin.Recovery(), RequestLogger(log))
	s.routes()
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", s.health)
	r.GET("/info", s.info)

	r.GET("/airdrops", s.listAirdrops)
	r.GET("/airdrops/:id", s.getAirdrop)
	r.GET("/settlements/pending", s.pendingSettlements)
	r.GET("/settlements/:id", s.getSettlement)
	r.GET("/accounts", s.listAccounts)
	r.GET("/accounts/:account/claims", s.accountClaims)
	r.GET("/tokens/:token/in-claims", s.inClaims)

	auth := r.Group("/", RequireCaller())
	auth.POST("/airdrops", s.registerAirdrop)
	auth.POST("/airdrops/:id/claims", s.addClaims)
	auth.POST("/airdrops/:id/enable", s.enableAirdrop)
	auth.POST("/airdrops/:id/disable", s.disableAirdrop)
	auth.POST("/airdrops/:id/archive", s.archiveAirdrop)
	auth.PUT("/airdrops/:id/schedule", s.changeSchedule)
	auth.POST("/airdrops/:id/claim", s.claim)
	auth.POST("/claims/prune", s.prune)
	auth.PUT("/owner", s.setOwner)
	auth.PUT("/operator", s.setOperator)

	local := auth.Group("/", LocalOnly())
	local.POST("/settlements/:id/resolve", s.resolve)
}
