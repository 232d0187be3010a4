// Package e2e holds the Docker-based scenario test. Run it with
//
//	go test -tags integration ./internal/orchestration/e2e/...
package e2e
