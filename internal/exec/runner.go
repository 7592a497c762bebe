package exec

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Row is one result row keyed by output column name.
type Row map[string]any

// Runner executes a Cypher query against a graph engine and returns the
// fully-buffered rows. Implemented by Neo4jRunner in production and by
// stub runners in tests.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) ([]Row, error)
}

// Neo4jRunner runs queries through the official Neo4j driver, using
// ExecuteQuery so session and transaction handling stay inside the
// driver. Cancellation and timeouts flow through ctx.
type Neo4jRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jRunner creates a runner from adapter configuration.
func NewNeo4jRunner(cfg *Config) (*Neo4jRunner, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Neo4jRunner{driver: driver, database: cfg.Database}, nil
}

// Verify checks connectivity to the graph engine.
func (r *Neo4jRunner) Verify(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

// Close releases the underlying driver.
func (r *Neo4jRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Run implements Runner.
func (r *Neo4jRunner) Run(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	result, err := neo4j.ExecuteQuery(ctx, r.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database),
	)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}

	rows := make([]Row, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, Row(record.AsMap()))
	}
	return rows, nil
}
