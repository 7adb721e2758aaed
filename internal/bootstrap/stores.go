package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/target/admin-console/config"
	mongoadapter "github.com/target/admin-console/internal/adapters/mongo"
	"github.com/target/admin-console/internal/core"
	"github.com/target/admin-console/internal/data"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stores holds the repositories the services run against.
type Stores struct {
	Profiles core.ProfileRepository
	Tasks    core.TaskRepository
	// Accounts is only set when PostgreSQL is connected; the local identity provider needs it.
	Accounts core.AccountRepository
}

// StoreDeps are the connections a store backend may draw from.
type StoreDeps struct {
	Backend config.StoreBackend
	DB      *sql.DB
	Mongo   *mongo.Database
}

// BuildStores selects the profile and task stores for the configured backend.
func BuildStores(deps StoreDeps) (Stores, error) {
	var s Stores
	if deps.DB != nil {
		s.Accounts = data.NewAccountRepo(deps.DB)
	}

	switch deps.Backend {
	case config.StoreBackendMongo:
		if deps.Mongo == nil {
			return s, errors.New("mongo store selected but no mongo database connected")
		}
		s.Profiles = mongoadapter.NewProfileRepo(deps.Mongo)
		s.Tasks = mongoadapter.NewTaskRepo(deps.Mongo)
	case config.StoreBackendPostgres, "":
		if deps.DB == nil {
			return s, errors.New("postgres store selected but no database connected")
		}
		s.Profiles = data.NewProfileRepo(deps.DB)
		s.Tasks = data.NewTaskRepo(deps.DB)
	default:
		return s, fmt.Errorf("unknown store backend %q", deps.Backend)
	}
	return s, nil
}
