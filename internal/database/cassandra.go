package database

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// Cassandra wraps a gocql session
type Cassandra struct {
	Session *gocql.Session
}

// CassandraConfig holds Cassandra connection configuration
type CassandraConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
}

// NewCassandra creates a new Cassandra session
func NewCassandra(config *CassandraConfig) (*Cassandra, error) {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = config.Timeout

	cluster.NumConns = 2
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	if config.Username != "" && config.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        time.Second,
		Max:        10 * time.Second,
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	return &Cassandra{Session: session}, nil
}

// Close closes the session
func (db *Cassandra) Close() {
	if db.Session != nil {
		db.Session.Close()
	}
}
