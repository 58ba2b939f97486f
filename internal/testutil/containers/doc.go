// Package containers provides testcontainer management for integration tests.
//
// It offers helpers for starting and managing Docker containers during
// integration testing using testcontainers-go:
//
//   - MySQL 8.0 database containers, for exercising the GORM repositories
//     against the production storage backend
//nolint:misspell // Mosquitto is the official Eclipse project name
//   - Eclipse Mosquitto MQTT broker containers, for the collar position
//     ingestion adapter
//   - ntfy push notification server containers, for end-to-end push delivery
//
// Container Lifecycle:
//
// Containers are typically managed using TestMain in integration test packages:
//
//	var mysqlContainer *containers.MySQLContainer
//
//	func TestMain(m *testing.M) {
//	    var err error
//	    mysqlContainer, err = containers.NewMySQLContainer(context.Background(), nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    _ = mysqlContainer.Terminate(context.Background())
//	    os.Exit(code)
//	}
//
// Build Tags:
//
// Integration tests using this package use the "integration" build tag:
//
//	//go:build integration
//
//	go test -tags=integration ./...
package containers
