package server

import (
	"fmt"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"

	"JobCard-backend/internal/auth"
	"JobCard-backend/internal/config"
	"JobCard-backend/internal/controller/file"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/service"
)

// MyServer holds everything the route handlers need
type MyServer struct {
	cfg       *config.Config
	DB        *database.DBinstanceStruct
	Services  *service.Services
	Authority *auth.TokenAuthority
	Storage   file.StorageClient
	Limiter   ratelimit.Store
}

// NewMyServer builds a MyServer. storage may be nil to disable file
// endpoints; limiter may be nil to disable rate limiting.
func NewMyServer(cfg *config.Config, db *database.DBinstanceStruct, svc *service.Services, storage file.StorageClient, limiter ratelimit.Store) *MyServer {
	return &MyServer{
		cfg:       cfg,
		DB:        db,
		Services:  svc,
		Authority: auth.NewTokenAuthority(cfg.Auth.SecretKey, cfg.Auth.Issuer),
		Storage:   storage,
		Limiter:   limiter,
	}
}

// NewServer construct new http.Server serving the API on the configured port
func (s *MyServer) NewServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
