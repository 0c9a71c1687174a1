package config

import (
	"context"
	"fmt"
	"net"
	"time"

	sqle "github.com/dolthub/go-mysql-server"
	"github.com/dolthub/go-mysql-server/memory"
	"github.com/dolthub/go-mysql-server/server"
	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/mysql_db"
	"github.com/dolthub/vitess/go/mysql"

	"datamanageapi/pkg/logger"
)

// StartEmbeddedDB starts an in-memory MySQL server holding the metadata
// database. It returns the port the server listens on. The server lives for
// the remainder of the process; all state is lost on shutdown.
func StartEmbeddedDB(dbName string, port int) (int, error) {
	if port == 0 {
		freePort, err := getFreePort()
		if err != nil {
			return 0, fmt.Errorf("failed to get free port: %w", err)
		}
		port = freePort
	}

	metaDB := memory.NewDatabase(dbName)
	metaDB.EnablePrimaryKeyIndexes()
	provider := memory.NewDBProvider(metaDB)
	engine := sqle.NewDefault(provider)

	cfg := server.Config{
		Protocol: "tcp",
		Address:  fmt.Sprintf("127.0.0.1:%d", port),
	}
	s, err := server.NewServer(cfg, engine, newMemorySessionBuilder(provider), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create embedded server: %w", err)
	}

	go func() {
		if err := s.Start(); err != nil {
			logger.Errorf("Embedded database server error: %v", err)
		}
	}()

	// Poll server readiness with timeout to prevent indefinite blocking
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 100*time.Millisecond)
		if err == nil {
			conn.Close()
			logger.Infof("Embedded MySQL server listening on port %d", port)
			return port, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return 0, fmt.Errorf("embedded server failed to start on port %d within timeout", port)
}

// newMemorySessionBuilder mirrors memory.NewSessionBuilder from go-mysql-server
// v0.20.0, which does not exist in v0.18.0 (the newest version compatible with
// the Go 1.21 toolchain available here).
func newMemorySessionBuilder(pro *memory.DbProvider) server.SessionBuilder {
	return func(ctx context.Context, conn *mysql.Conn, addr string) (sql.Session, error) {
		host := ""
		user := ""
		mysqlConnectionUser, ok := conn.UserData.(mysql_db.MysqlConnectionUser)
		if ok {
			host = mysqlConnectionUser.Host
			user = mysqlConnectionUser.User
		}

		client := sql.Client{Address: host, User: user, Capabilities: conn.Capabilities}
		baseSession := sql.NewBaseSessionWithClientServer(addr, client, conn.ConnectionID)
		return memory.NewSession(baseSession, pro), nil
	}
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
