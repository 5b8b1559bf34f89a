package handlers

import (
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/api"
	"github.com/Mepiyou/myfirstfront/internal/auth"
	"github.com/Mepiyou/myfirstfront/internal/cart"
	"github.com/Mepiyou/myfirstfront/internal/config"
	"github.com/Mepiyou/myfirstfront/internal/notify"
	"github.com/Mepiyou/myfirstfront/internal/queue"
	"github.com/Mepiyou/myfirstfront/internal/syncer"
)

// Handlers holds every dependency of the application shell. It is
// constructed once in main and injected; no handler reaches for ambient
// globals.
type Handlers struct {
	DB     *bolt.DB
	API    *api.Client
	Cart   *cart.Store
	Queue  *queue.Store
	Syncer *syncer.Syncer
	Tokens *auth.TokenStore
	Hub    *notify.Hub
	Config *config.Config
	Log    *zap.Logger
}
