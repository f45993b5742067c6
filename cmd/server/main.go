package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v6/osfs"

	"github.com/aetherdb/aetherdb"
	"github.com/aetherdb/aetherdb/audit"
	"github.com/aetherdb/aetherdb/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	port := flag.Int("port", 5432, "TCP port to listen on")
	auditPath := flag.String("audit", "", "Audit log file (disabled if empty)")
	snapshotPassword := flag.String("snapshot-password", "", "Password for encrypted snapshots (snapshots disabled if empty)")
	jwtSecret := flag.String("jwt-secret", "", "Shared secret for HS256 tokens (required)")
	issuer := flag.String("issuer", "aetherdb", "Issuer claim for issued tokens")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "Lifetime of issued tokens")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("aetherdb server v%s\n", Version)
		return
	}
	if *jwtSecret == "" {
		log.Fatal("-jwt-secret is required")
	}

	cfg := aetherdb.Config{}
	if *auditPath != "" {
		dir := filepath.Dir(*auditPath)
		cfg.Recorder = audit.NewFileRecorder(osfs.New(dir), filepath.Base(*auditPath))
		log.Printf("Audit log: %s", *auditPath)
	}
	if *snapshotPassword != "" {
		cfg.Snapshots = store.NewEncryptedStore(*snapshotPassword)
	}

	instance, err := aetherdb.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open instance: %v", err)
	}

	server := NewServer(instance, &AuthConfig{
		JWTSecret: *jwtSecret,
		Issuer:    *issuer,
		TokenTTL:  *tokenTTL,
	})

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   aetherdb SQL Server v%-14s ║\n", Version)
	fmt.Println("║   In-memory relational data engine    ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on port %d\n", *port)
	fmt.Println("Authenticate with LOGIN <user> <password> or AUTH JWT <token>")
	fmt.Println("Then send SQL statements (one per line), 'quit' to disconnect")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	server.Stop()
	log.Println("Server stopped")
}
