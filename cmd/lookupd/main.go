// Command lookupd serves cascade choice lookups over a YAML catalog. It is
// the remote collaborator the HTTP fetcher talks to: POST /lookup resolves an
// operation against the catalog, GET /states enumerates the root field.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/onceinteractive/cascade/internal/catalog"
	"github.com/onceinteractive/cascade/pkg/types"
)

func main() {
	var (
		addr        = flag.String("addr", ":8780", "listen address")
		catalogPath = flag.String("catalog", "catalog.yaml", "catalog YAML file")
		token       = flag.String("token", "", "request token; empty disables the check")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "lookupd",
	})

	cat, err := catalog.LoadFile(*catalogPath)
	if err != nil {
		logger.Fatal("load catalog", "path", *catalogPath, "err", err)
	}

	srv := &server{catalog: cat, token: *token, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	logger.Info("listening", "addr", *addr, "catalog", *catalogPath)
	if err := srv.router().Run(*addr); err != nil {
		logger.Fatal("serve", "err", err)
	}
}

type server struct {
	catalog *catalog.Catalog
	token   string
	logger  *log.Logger
}

func (s *server) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.POST("/lookup", s.lookup)
	router.GET("/states", s.states)
	return router
}

// lookup resolves one operation. Every rejection is reported through the
// failure envelope with status 200, matching what the client degrades on.
func (s *server) lookup(c *gin.Context) {
	var req types.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("malformed lookup", "err", err)
		c.JSON(http.StatusOK, types.Failed())
		return
	}
	if s.token != "" && req.Token != s.token {
		s.logger.Warn("token mismatch", "operation", req.Operation)
		c.JSON(http.StatusOK, types.Failed())
		return
	}
	if !s.catalog.Has(req.Operation) {
		s.logger.Debug("unknown operation", "operation", req.Operation)
		c.JSON(http.StatusOK, types.Failed())
		return
	}

	choices := s.catalog.Resolve(req.Operation, req.Filters)
	s.logger.Debug("resolved", "operation", req.Operation, "choices", len(choices))
	c.JSON(http.StatusOK, types.OK(choices))
}

// states serves the root enumeration used to render the first select, with
// the placeholder as choice zero.
func (s *server) states(c *gin.Context) {
	placeholder := types.Choice{Value: "", Text: "Please Select State"}
	choices := append([]types.Choice{placeholder}, s.catalog.States()...)
	c.JSON(http.StatusOK, types.OK(choices))
}
