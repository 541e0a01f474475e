//go:build integration

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"salescrm_backend/internal/adapters"
	"salescrm_backend/internal/audit"
	"salescrm_backend/internal/leads/distribution"
	"salescrm_backend/internal/leads/domain"
	"salescrm_backend/internal/leads/policy"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/platform/apperr"
	"salescrm_backend/platform/db"
	"salescrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDBConfig struct{ url string }

func (c testDBConfig) GetDatabaseURL() string              { return c.url }
func (c testDBConfig) GetDBMaxConns() int                  { return 32 }
func (c testDBConfig) GetDBMinConns() int                  { return 0 }
func (c testDBConfig) GetDBMaxConnLifetime() time.Duration { return 0 }
func (c testDBConfig) GetMigrationsEnabled() bool          { return true }

func newPostgresService(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	cfg := testDBConfig{url: url}
	require.NoError(t, db.RunMigrations(ctx, cfg))

	pool, err := db.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := logger.Discard()
	repo := repository.New(pool)
	settings := adapters.NewSettingsStore(pool)
	directory := adapters.NewSalesDirectory(pool)
	svc := New(Deps{
		Store:       repo,
		Policy:      policy.New(settings, log),
		Distributor: distribution.New(repo, directory, nil, log),
		Directory:   directory,
		Customers:   adapters.NewCustomerCreator(),
		Audit:       audit.NewSink(),
		Log:         log,
	})
	return svc, pool
}

func TestPostgresClaimRace(t *testing.T) {
	svc, pool := newPostgresService(t)
	ctx := context.Background()
	tenant := uuid.New()

	res, err := svc.CreateLead(ctx, CreateLeadInput{CustomerName: "张三", CustomerPhone: "13800000000"}, tenant, uuid.New())
	require.NoError(t, err)

	const claimers = 16
	sales := make([]uuid.UUID, claimers)
	for i := range sales {
		require.NoError(t, pool.QueryRow(ctx,
			`INSERT INTO sales_users (tenant_id, name) VALUES ($1, $2) RETURNING id`,
			tenant, fmt.Sprintf("S%d", i),
		).Scan(&sales[i]))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, salesID := range sales {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClaimFromPool(ctx, res.Lead.ID, tenant, salesID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperr.Is(err, apperr.KindStateConflict):
				conflicts++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, claimers-1, conflicts)

	var claims int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM audit_logs WHERE tenant_id = $1 AND record_id = $2 AND action = 'CLAIM'`,
		tenant, res.Lead.ID,
	).Scan(&claims))
	assert.Equal(t, 1, claims)
}

func TestPostgresDedupAndRoundRobin(t *testing.T) {
	svc, pool := newPostgresService(t)
	ctx := context.Background()
	tenant := uuid.New()

	_, err := pool.Exec(ctx, `
		INSERT INTO tenant_settings (tenant_id, key, value) VALUES
			($1, $2, 'AUTO_LINK'),
			($1, $3, 'ROUND_ROBIN')`,
		tenant, domain.SettingDuplicateStrategy, domain.SettingAutoAssignRule)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO sales_users (tenant_id, name) VALUES ($1, 'S1'), ($1, 'S2')`, tenant)
	require.NoError(t, err)

	first, err := svc.CreateLead(ctx, CreateLeadInput{CustomerName: "a", CustomerPhone: "13900000001"}, tenant, uuid.New())
	require.NoError(t, err)
	dup, err := svc.CreateLead(ctx, CreateLeadInput{CustomerName: "a", CustomerPhone: "139 0000 0001"}, tenant, uuid.New())
	require.NoError(t, err)
	assert.True(t, dup.IsDuplicate)
	assert.Equal(t, first.Lead.ID, dup.Lead.ID)

	second, err := svc.CreateLead(ctx, CreateLeadInput{CustomerName: "b", CustomerPhone: "13900000002"}, tenant, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, first.Lead.AssignedSalesID)
	require.NotNil(t, second.Lead.AssignedSalesID)
	assert.NotEqual(t, *first.Lead.AssignedSalesID, *second.Lead.AssignedSalesID)

	customerID, err := svc.ConvertLead(ctx, first.Lead.ID, nil, tenant, *first.Lead.AssignedSalesID)
	require.NoError(t, err)
	var source uuid.UUID
	require.NoError(t, pool.QueryRow(ctx, `SELECT source_lead_id FROM customers WHERE id = $1 AND tenant_id = $2`, customerID, tenant).Scan(&source))
	assert.Equal(t, first.Lead.ID, source)
}
